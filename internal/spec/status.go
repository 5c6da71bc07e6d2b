package spec

// StatusTable maps declared response codes to the phrase shown next to them
// and decides which codes document an error.
//
// Codes missing from Phrases get FallbackPhrase. With the default table that
// means a 404 is labelled "Internal Server Error"; configure Phrases when that
// matters.
type StatusTable struct {
	Phrases        map[string]string
	FallbackPhrase string
	SuccessCodes   []string
}

// DefaultStatusTable returns the phrases and success codes used when nothing is configured.
func DefaultStatusTable() StatusTable {
	return StatusTable{
		Phrases: map[string]string{
			"200": "Success",
			"400": "Bad Request",
			"403": "Forbidden",
		},
		FallbackPhrase: "Internal Server Error",
		SuccessCodes:   []string{"200", "302"},
	}
}

// Phrase returns the phrase for code.
func (t StatusTable) Phrase(code string) string {
	if p, ok := t.Phrases[code]; ok {
		return p
	}
	return t.FallbackPhrase
}

// IsError reports whether code is outside the success set.
func (t StatusTable) IsError(code string) bool {
	for _, c := range t.SuccessCodes {
		if c == code {
			return false
		}
	}
	return true
}

// WithPhrases returns a copy of t with extra phrases layered on top.
func (t StatusTable) WithPhrases(phrases map[string]string) StatusTable {
	merged := make(map[string]string, len(t.Phrases)+len(phrases))
	for k, v := range t.Phrases {
		merged[k] = v
	}
	for k, v := range phrases {
		merged[k] = v
	}
	t.Phrases = merged
	return t
}

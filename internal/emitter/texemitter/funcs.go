package texemitter

import (
	"strings"
	"text/template"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mark3labs/swagger2tex/internal/spec"
)

var texEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
	`<`, `\textless{}`,
	`>`, `\textgreater{}`,
)

// Tex escapes plain text for LaTeX. Descriptions and field names in the
// model are already LaTeX and must not go through it.
func Tex(s string) string { return texEscaper.Replace(s) }

// Label turns a name into a string usable in \label and \ref.
func Label(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-') {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

func templateFuncs(doc *spec.Documentation) template.FuncMap {
	schemas := make(map[string]struct{}, len(doc.Schemas))
	for _, s := range doc.Schemas {
		schemas[s.Name] = struct{}{}
	}
	return template.FuncMap{
		"tex":   Tex,
		"label": Label,
		// cases.Caser keeps state; build one per call.
		"title": func(s string) string { return cases.Title(language.English).String(s) },
		"upper": func(v any) string {
			return cases.Upper(language.English).String(toString(v))
		},
		"isSchema": func(name string) bool {
			_, ok := schemas[name]
			return ok
		},
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case spec.HttpMethod:
		return string(s)
	default:
		return ""
	}
}

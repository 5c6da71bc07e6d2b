// Package markup converts the small markdown subset used in API descriptions
// into LaTeX.
//
// Supported constructs are bullet lists ("- item"), strong emphasis (**x**,
// __x__), emphasis (*x*, _x_) and inline links [text](url "hover"). Anything
// else passes through unchanged; conversion never fails.
package markup

import (
	"regexp"
	"strings"
)

const (
	listOpen  = `\begin{itemize}`
	listClose = `\end{itemize}`
	itemMark  = `\item `
)

var listLine = regexp.MustCompile(`^[ \t]*- (.*)$`)

// Rule is one inline rewrite. Replacement follows regexp.Expand syntax.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// DefaultRules returns the inline rules in priority order. Strong emphasis
// comes before emphasis so that ***x*** and **_x_** collapse to
// \textbf{\emph{x}}.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "strong-star", Pattern: regexp.MustCompile(`\*\*(.*?)\*\*`), Replacement: `\textbf{${1}}`},
		{Name: "strong-underscore", Pattern: regexp.MustCompile(`__(.*?)__`), Replacement: `\textbf{${1}}`},
		{Name: "emph-star", Pattern: regexp.MustCompile(`\*(.*?)\*`), Replacement: `\emph{${1}}`},
		{Name: "emph-underscore", Pattern: regexp.MustCompile(`_(.*?)_`), Replacement: `\emph{${1}}`},
		// Runs last: underscores inside a URL are already rewritten as emphasis.
		{Name: "link", Pattern: regexp.MustCompile(`\[(.*?)\]\((https?://[^\s)"]*)(?: "(.*?)")?\)`), Replacement: `\url[${1}]{${2}}`},
	}
}

// Converter turns markdown text into LaTeX. The zero value is not usable; use
// New or Default.
type Converter struct {
	rules []Rule
}

// New builds a converter with the given inline rules, highest priority first.
func New(rules []Rule) *Converter {
	return &Converter{rules: append([]Rule(nil), rules...)}
}

var defaultConverter = New(DefaultRules())

// Default returns the shared converter with DefaultRules.
func Default() *Converter { return defaultConverter }

// ToLaTeX converts text with the default rules.
func ToLaTeX(text string) string { return defaultConverter.Convert(text) }

// Convert processes text line by line. Every line is terminated with a
// newline; a list still open at the end of input is closed without one.
func (c *Converter) Convert(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	inList := false
	for _, line := range splitLines(text) {
		if m := listLine.FindStringSubmatch(line); m != nil {
			if !inList {
				inList = true
				b.WriteString(listOpen)
				b.WriteByte('\n')
			}
			b.WriteString(c.Inline(itemMark + m[1]))
		} else {
			if inList {
				inList = false
				b.WriteString(listClose)
				b.WriteByte('\n')
			}
			b.WriteString(c.Inline(line))
		}
		b.WriteByte('\n')
	}
	if inList {
		b.WriteString(listClose)
	}
	return b.String()
}

// Inline rewrites a single line. The highest priority rule that matches is
// applied to all of its occurrences, then the scan restarts from the first
// rule, until no rule matches.
func (c *Converter) Inline(line string) string {
	// Every productive pass of the default rules removes at least one
	// delimiter, so the number of delimiters bounds the number of passes.
	budget := delimiterCount(line) + 1
	for ; budget > 0; budget-- {
		applied := false
		for _, r := range c.rules {
			if !r.Pattern.MatchString(line) {
				continue
			}
			next := r.Pattern.ReplaceAllString(line, r.Replacement)
			if next == line {
				continue
			}
			line = next
			applied = true
			break
		}
		if !applied {
			break
		}
	}
	return line
}

// delimiterCount counts ASCII punctuation, a superset of the delimiters any
// inline rule can consume.
func delimiterCount(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(punctuation, s[i]) >= 0 {
			n++
		}
	}
	return n
}

const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// splitLines splits like a line iterator: a trailing newline does not start
// an extra empty line and a carriage return before the newline is dropped.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

package synth

import "strings"

// SplitLines turns free-form multi-line input into batch entries: split on
// line boundaries, trim, drop blanks. Every front end goes through here so
// the same input yields the same batch regardless of entry point.
func SplitLines(s string) []string {
	return Normalize(strings.FieldsFunc(s, isLineBreak))
}

// Normalize trims each entry and drops the ones left empty, keeping order.
func Normalize(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

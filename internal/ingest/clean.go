package ingest

import (
	"strings"
	"unicode"
)

// CleanText normalizes extracted text before chunking: drops control
// characters, collapses runs of whitespace, trims markdown artifacts
// that confuse embedding models.
func CleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t' || r == ' ':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		case unicode.IsControl(r):
			// skip
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}
	out := strings.TrimSpace(b.String())
	out = strings.ReplaceAll(out, "```", "")
	return out
}

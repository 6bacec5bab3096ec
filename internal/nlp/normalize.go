// Package nlp derives lightweight linguistic signal from chat messages:
// normalized text, part-of-speech-filtered keywords, named entities, a
// polarity-bucketed mood label, a topic label, and lexical similarity
// against prior turns. All heuristics run over a fixed rule set; there is
// no claim of real language understanding.
package nlp

import (
	"strings"
	"unicode"
)

// Normalize lowercases text, strips everything that is not a word character
// or whitespace, collapses whitespace runs, and trims the ends. It is total
// and idempotent: empty in, empty out, never an error.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

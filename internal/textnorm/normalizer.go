package textnorm

import (
	"strings"
)

// fillerWords are dropped entirely, they carry no meaning in a spoken answer
// that went through speech-to-text.
var fillerWords = map[string]bool{
	"um":        true,
	"uh":        true,
	"like":      true,
	"basically": true,
	"actually":  true,
	"literally": true,
}

// repeatableWords may legitimately appear twice in a row ("it is is" is a
// transcription artifact, "that that" in "the thing is that that works" is not
// something we can distinguish, so a small allow-list of function words keeps
// collapsing conservative).
var repeatableWords = map[string]bool{
	"is":  true,
	"the": true,
	"a":   true,
	"an":  true,
	"it":  true,
	"and": true,
	"or":  true,
}

// Normalize cleans a free-text or transcribed answer before comparison.
// It lowercases, collapses whitespace, strips filler words, removes
// immediately repeated words (except allow-listed function words) and
// squashes repeated punctuation. Deterministic and idempotent; empty input
// yields empty output.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	lowered := strings.ToLower(text)
	lowered = collapsePunctuation(lowered)

	words := strings.Fields(lowered)
	cleaned := make([]string, 0, len(words))
	prev := ""
	for _, w := range words {
		bare := strings.Trim(w, ",.;:!?")
		if fillerWords[bare] {
			continue
		}
		if w == prev && !repeatableWords[bare] {
			continue
		}
		cleaned = append(cleaned, w)
		prev = w
	}

	return strings.TrimSpace(strings.Join(cleaned, " "))
}

// collapsePunctuation squashes runs of commas and semicolons into a single
// comma and runs of periods into a single period.
func collapsePunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var last rune
	for _, r := range s {
		switch r {
		case ',', ';':
			if last == ',' {
				continue
			}
			b.WriteRune(',')
			last = ','
		case '.':
			if last == '.' {
				continue
			}
			b.WriteRune('.')
			last = '.'
		default:
			b.WriteRune(r)
			last = r
		}
	}

	return b.String()
}

package index

import (
	"strings"
	"unicode"
)

const minTokenLen = 2

// Tokenize lowercases and splits on non-alphanumeric runes, dropping tokens
// shorter than two characters. Deliberately simple; the same tokenizer is
// applied to corpus fields and queries so statistics stay comparable.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 24)
	var b strings.Builder
	flush := func() {
		if b.Len() >= minTokenLen {
			tokens = append(tokens, b.String())
		}
		b.Reset()
	}

	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

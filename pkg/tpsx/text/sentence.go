package text

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sentences splits s into sentences.
//
// A sentence ends at '.', '!' or '?' (runs such as "?!" or "..." stay
// together) when followed by whitespace or the end of input, or at a blank
// line. Returned sentences are trimmed; empty ones are dropped.
func Sentences(s string) []string {
	var out []string
	start := 0

	emit := func(end int) {
		if sent := strings.TrimSpace(s[start:end]); sent != "" {
			out = append(out, sent)
		}
		start = end
	}

	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])

		// Blank line forces a break regardless of punctuation.
		if r == '\n' {
			j := i + size
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\r') {
				j++
			}
			if j < len(s) && s[j] == '\n' {
				emit(i)
				i = j + 1
				continue
			}
		}

		if isTerminal(r) {
			j := i + size
			for j < len(s) {
				next, n := utf8.DecodeRuneInString(s[j:])
				if !isTerminal(next) {
					break
				}
				j += n
			}
			if j == len(s) {
				emit(j)
				i = j
				continue
			}
			next, _ := utf8.DecodeRuneInString(s[j:])
			if unicode.IsSpace(next) {
				emit(j)
			}
			i = j
			continue
		}

		i += size
	}

	emit(len(s))
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

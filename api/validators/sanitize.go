package validators

import (
	"strings"
	"unicode"
)

// SanitizeText trims free text (operator and worker notes), normalises line
// endings, drops control characters other than newline and tab, and cuts the
// result to maxRunes characters. maxRunes <= 0 disables the cut.
func SanitizeText(input string, maxRunes int) string {
	input = strings.ReplaceAll(input, "\r\n", "\n")
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
	cleaned = strings.TrimSpace(cleaned)

	if maxRunes > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxRunes {
			cleaned = strings.TrimSpace(string(runes[:maxRunes]))
		}
	}
	return cleaned
}

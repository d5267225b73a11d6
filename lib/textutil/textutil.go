package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Clean drops non-printable characters, trims the ends and collapses any
// run of inner whitespace into a single space.
func Clean(text string) string {
	text = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, text)
	text = strings.TrimSpace(text)
	return whitespaceRegex.ReplaceAllString(text, " ")
}

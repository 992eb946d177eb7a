package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// extractPlain returns content as string, validating it is valid UTF-8.
// Invalid UTF-8 sequences are replaced with the replacement character.
func extractPlain(content []byte) (string, error) {
	if !utf8.Valid(content) {
		content = []byte(strings.ToValidUTF8(string(content), "�"))
	}
	return string(content), nil
}

// Normalize trims text and collapses runs of whitespace into single spaces.
func Normalize(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}

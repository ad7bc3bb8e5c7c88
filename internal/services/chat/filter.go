package chat

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var unsafePatterns = []*regexp.Regexp{
	regexp.MustCompile(`<[^>]*>`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)\bon[a-z]+\s*=`),
}

// sanitize trims text and rejects empty, oversized or markup-bearing messages
func sanitize(text string, maxLength int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > maxLength {
		return "", ErrMessageTooLong
	}
	for _, p := range unsafePatterns {
		if p.MatchString(text) {
			return "", ErrUnsafeContent
		}
	}
	return text, nil
}

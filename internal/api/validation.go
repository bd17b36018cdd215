package api

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	DEFAULT_MIN_TEXT_LENGTH = 50
	DEFAULT_MAX_TEXT_LENGTH = 5000
)

type textBounds struct {
	min int
	max int
}

func newTextBounds(min, max int) textBounds {
	if min <= 0 {
		min = DEFAULT_MIN_TEXT_LENGTH
	}
	if max < min {
		max = DEFAULT_MAX_TEXT_LENGTH
	}
	return textBounds{min: min, max: max}
}

// check trims text and enforces the inclusive length bounds, counted in
// runes. problem is the client-facing message when the text is rejected;
// an empty text is reported through required instead.
func (b textBounds) check(text string) (trimmed string, required bool, problem string) {
	trimmed = strings.TrimSpace(text)
	if trimmed == "" {
		return "", true, ""
	}
	n := utf8.RuneCountInString(trimmed)
	if n < b.min {
		return "", false, fmt.Sprintf("Please provide at least %d characters for accurate analysis", b.min)
	}
	if n > b.max {
		return "", false, fmt.Sprintf("Text exceeds maximum length of %d characters", b.max)
	}
	return trimmed, false, ""
}

package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxLabelSize bounds the text drawn on a canvas, in bytes.
const MaxLabelSize = 256

var (
	ErrLabelTooLarge = errors.New("label exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("label contains invalid UTF-8 sequences")
)

// SanitizeLabel cleans text that will be drawn on an image: it rejects
// oversized or malformed input, turns tabs and line breaks into spaces and
// drops every other control character.
func SanitizeLabel(s string) (string, error) {
	if len(s) > MaxLabelSize {
		// Rejected rather than truncated so that the cache key matches the drawing.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrLabelTooLarge, len(s), MaxLabelSize)
	}
	if !utf8.ValidString(s) {
		return "", ErrInvalidUTF8
	}

	// Fast path: if no control chars, return as is.
	clean := true
	for _, r := range s {
		if unicode.IsControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			b.WriteByte(' ')
		case !unicode.IsControl(r):
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

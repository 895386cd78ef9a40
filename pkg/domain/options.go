package domain

import (
	"fmt"
	"strings"
)

// DetailLevel controls how much structure the classic blueprint keeps.
type DetailLevel string

const (
	DetailHigh   DetailLevel = "high"
	DetailMedium DetailLevel = "medium"
	DetailLow    DetailLevel = "low"
)

// ParseDetailLevel validates s.
func ParseDetailLevel(s string) (DetailLevel, error) {
	switch d := DetailLevel(strings.ToLower(s)); d {
	case DetailHigh, DetailMedium, DetailLow:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDetail, s)
}

// Position is a canvas corner used to anchor an annotation label.
type Position string

const (
	TopLeft     Position = "top-left"
	TopRight    Position = "top-right"
	BottomLeft  Position = "bottom-left"
	BottomRight Position = "bottom-right"
)

// ParsePosition validates s.
func ParsePosition(s string) (Position, error) {
	switch p := Position(strings.ToLower(s)); p {
	case TopLeft, TopRight, BottomLeft, BottomRight:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPosition, s)
}

// Right reports whether the position is on the right edge.
func (p Position) Right() bool { return strings.HasSuffix(string(p), "right") }

// Bottom reports whether the position is on the bottom edge.
func (p Position) Bottom() bool { return strings.HasPrefix(string(p), "bottom") }

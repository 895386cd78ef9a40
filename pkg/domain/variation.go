package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// VariationType is the slot a variation occupies on a Mek.
type VariationType string

const (
	VariationHead  VariationType = "head"
	VariationBody  VariationType = "body"
	VariationTrait VariationType = "trait"
)

// ParseVariationType normalizes s into a VariationType.
func ParseVariationType(s string) (VariationType, error) {
	switch VariationType(strings.ToLower(strings.TrimSpace(s))) {
	case VariationHead:
		return VariationHead, nil
	case VariationBody:
		return VariationBody, nil
	case VariationTrait:
		return VariationTrait, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariationType, s)
}

// Variation is a single trait variation of the collection.
type Variation struct {
	ID        int           `json:"id" yaml:"id" mapstructure:"id"`
	Name      string        `json:"name" yaml:"name" mapstructure:"name"`
	Type      VariationType `json:"type" yaml:"type" mapstructure:"type"`
	Count     int           `json:"count" yaml:"count" mapstructure:"count"`
	SourceKey string        `json:"source_key" yaml:"source_key" mapstructure:"source_key"`
	Rank      int           `json:"rank,omitempty" yaml:"rank,omitempty" mapstructure:"rank"`
}

// IsSpecialSourceKey reports whether key is one of the reserved numeric keys
// such as 000H, 111B or 999T. Those belong to one-of-one variations and are
// never re-matched against frequency data.
func IsSpecialSourceKey(key string) bool {
	if len(key) < 2 {
		return false
	}
	switch key[len(key)-1] {
	case 'H', 'B', 'T':
	default:
		return false
	}
	for _, r := range key[:len(key)-1] {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// BaseSourceKey strips the trailing slot letters (H, B, T) from a source key.
func BaseSourceKey(key string) string {
	return strings.TrimRight(key, "HBT")
}

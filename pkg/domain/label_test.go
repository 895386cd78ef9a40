package domain_test

import (
	"strings"
	"testing"

	"github.com/mektycoon/mekforge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Plain", "Chrome Dome", "Chrome Dome"},
		{"Unicode", "Café ⚙", "Café ⚙"},
		{"Whitespace", "Mek\t#42\nRank\r1", "Mek #42 Rank 1"},
		{"ANSI", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null and bell", "a\x00b\x07c", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.SanitizeLabel(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeLabel_Rejects(t *testing.T) {
	_, err := domain.SanitizeLabel(strings.Repeat("x", domain.MaxLabelSize+1))
	assert.ErrorIs(t, err, domain.ErrLabelTooLarge)

	_, err = domain.SanitizeLabel("bad \xff byte")
	assert.ErrorIs(t, err, domain.ErrInvalidUTF8)
}

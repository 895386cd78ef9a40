package typeface_test

import (
	"testing"

	"github.com/mektycoon/mekforge/internal/typeface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
)

func TestFace(t *testing.T) {
	for _, fam := range []typeface.Family{typeface.Regular, typeface.MonoBold} {
		face, err := typeface.Face(fam, 20)
		require.NoError(t, err)
		w := font.MeasureString(face, "MEK")
		assert.Positive(t, w.Ceil())
		assert.NoError(t, face.Close())
	}

	_, err := typeface.Face(typeface.Family(42), 10)
	assert.Error(t, err)
}

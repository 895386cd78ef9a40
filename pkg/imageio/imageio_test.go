package imageio_test

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/mektycoon/mekforge/pkg/domain"
	"github.com/mektycoon/mekforge/pkg/imageio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 30), uint8(y * 40), 90, 255})
		}
	}
	return img
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, imageio.FormatWebP, imageio.FormatFor("a/b/Icon.WEBP"))
	assert.Equal(t, imageio.FormatPNG, imageio.FormatFor("out.png"))
	assert.Equal(t, imageio.FormatPNG, imageio.FormatFor("noext"))
	assert.Equal(t, ".webp", imageio.FormatWebP.Ext())
	assert.Equal(t, "image/png", imageio.FormatPNG.ContentType())
}

func TestParseFormat(t *testing.T) {
	f, err := imageio.ParseFormat(".PNG")
	require.NoError(t, err)
	assert.Equal(t, imageio.FormatPNG, f)

	_, err = imageio.ParseFormat("gif")
	assert.Error(t, err)
}

func TestPNGRoundTrip(t *testing.T) {
	src := sample()
	data, err := imageio.EncodeBytes(src, imageio.FormatPNG)
	require.NoError(t, err)

	img, err := imageio.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), img.Bounds())
	r, g, b, _ := img.At(3, 2).RGBA()
	assert.Equal(t, [3]uint32{90, 80, 90}, [3]uint32{r >> 8, g >> 8, b >> 8})
}

func TestWebPRoundTripIsLossless(t *testing.T) {
	src := sample()
	data, err := imageio.EncodeBytes(src, imageio.FormatWebP)
	require.NoError(t, err)

	img, err := imageio.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, src.Bounds(), img.Bounds())
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			r1, g1, b1, _ := src.At(x, y).RGBA()
			r2, g2, b2, _ := img.At(x, y).RGBA()
			assert.Equal(t, [3]uint32{r1, g1, b1}, [3]uint32{r2, g2, b2}, "pixel %d,%d", x, y)
		}
	}
}

func TestDecode_Garbage(t *testing.T) {
	_, err := imageio.Decode(bytes.NewReader([]byte("not an image")))
	assert.ErrorIs(t, err, domain.ErrUnreadableImage)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "mek.png")
	require.NoError(t, imageio.Save(path, sample()))

	img, err := imageio.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())

	_, err = imageio.Load(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

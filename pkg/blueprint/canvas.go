package blueprint

import (
	"image"
	"image/color"
	"math/rand/v2"
)

func fill(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// vline paints a vertical band [x, x+width) of the given colour.
func vline(img *image.NRGBA, x, width int, c color.NRGBA) {
	b := img.Rect
	for xx := max(x, b.Min.X); xx < min(x+width, b.Max.X); xx++ {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			img.SetNRGBA(xx, y, c)
		}
	}
}

// hline paints a horizontal band [y, y+width) of the given colour.
func hline(img *image.NRGBA, y, width int, c color.NRGBA) {
	b := img.Rect
	for yy := max(y, b.Min.Y); yy < min(y+width, b.Max.Y); yy++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetNRGBA(x, yy, c)
		}
	}
}

// drawGrid rules lines every step pixels starting at the origin.
func drawGrid(img *image.NRGBA, step, width int, c color.NRGBA) {
	if step <= 0 {
		return
	}
	b := img.Rect
	for x := 0; x < b.Dx(); x += step {
		vline(img, x, width, c)
	}
	for y := 0; y < b.Dy(); y += step {
		hline(img, y, width, c)
	}
}

// paintMask sets every pixel whose mask value exceeds threshold to c.
func paintMask(img *image.NRGBA, mask *image.Gray, threshold uint8, c color.NRGBA) {
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask.Pix[y*mask.Stride+x] > threshold {
				i := y*img.Stride + x*4
				img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
			}
		}
	}
}

// grain adds independent integer noise in [lo, hi) to each colour channel.
func grain(img *image.NRGBA, lo, hi int, rng *rand.Rand) {
	span := hi - lo
	if span <= 0 {
		return
	}
	for i := 0; i < len(img.Pix); i++ {
		if i%4 == 3 {
			continue
		}
		v := int(img.Pix[i]) + lo + rng.IntN(span)
		img.Pix[i] = uint8(min(max(v, 0), 255))
	}
}

// newRand returns a PCG stream for seed, or a randomly seeded one when seed
// is zero.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

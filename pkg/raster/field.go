package raster

import (
	"image"
	"math"
)

// Field is a dense float32 plane.
type Field struct {
	W, H int
	Pix  []float32
}

// NewField allocates a zeroed w x h field.
func NewField(w, h int) *Field {
	return &Field{W: w, H: h, Pix: make([]float32, w*h)}
}

// At returns the value at (x, y).
func (f *Field) At(x, y int) float32 { return f.Pix[y*f.W+x] }

// Set stores v at (x, y).
func (f *Field) Set(x, y int, v float32) { f.Pix[y*f.W+x] = v }

// Max returns the largest value in the field, or 0 for an empty field.
func (f *Field) Max() float32 {
	if len(f.Pix) == 0 {
		return 0
	}
	m := f.Pix[0]
	for _, v := range f.Pix[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Dilate3 returns the 3x3 running maximum of the field.
func (f *Field) Dilate3() *Field {
	out := NewField(f.W, f.H)
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			m := float32(math.Inf(-1))
			for dy := -1; dy <= 1; dy++ {
				yy := y + dy
				if yy < 0 || yy >= f.H {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					xx := x + dx
					if xx < 0 || xx >= f.W {
						continue
					}
					if v := f.Pix[yy*f.W+xx]; v > m {
						m = v
					}
				}
			}
			out.Pix[y*f.W+x] = m
		}
	}
	return out
}

// ToGray rounds and saturates the field into an 8-bit plane.
func (f *Field) ToGray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, f.W, f.H))
	for i, v := range f.Pix {
		g.Pix[i] = saturate(float64(v))
	}
	return g
}

// FieldFromGray widens an 8-bit plane.
func FieldFromGray(g *image.Gray) *Field {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	f := NewField(w, h)
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		for x, v := range row {
			f.Pix[y*w+x] = float32(v)
		}
	}
	return f
}

func saturate(v float64) uint8 {
	v = math.Round(v)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// reflect101 maps an out-of-range index back into [0, n) mirroring around
// the edge pixel: -1 -> 1, n -> n-2.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func newGray(w, h int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, w, h))
}

func dims(g *image.Gray) (int, int) {
	return g.Rect.Dx(), g.Rect.Dy()
}

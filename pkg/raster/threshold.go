package raster

import (
	"image"
	"math"
)

// AdaptiveThreshold binarizes g against a Gaussian-weighted local mean
// computed over blockSize x blockSize neighbourhoods, minus c.
//
// With inverse unset a pixel becomes maxValue when it is brighter than
// mean-c; with inverse set the comparison flips so dark strokes become
// foreground.
func AdaptiveThreshold(g *image.Gray, maxValue uint8, blockSize int, c float64, inverse bool) *image.Gray {
	w, h := dims(g)
	mean := GaussianBlur(g, blockSize, 0)
	out := newGray(w, h)
	var delta int
	if inverse {
		delta = int(math.Floor(c))
	} else {
		delta = int(math.Ceil(c))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			diff := int(g.Pix[y*g.Stride+x]) - int(mean.Pix[y*mean.Stride+x])
			fg := diff > -delta
			if inverse {
				fg = diff <= -delta
			}
			if fg {
				out.Pix[y*out.Stride+x] = maxValue
			}
		}
	}
	return out
}

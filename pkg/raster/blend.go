package raster

import (
	"image"
	"math/rand/v2"
)

// AddWeighted computes a*alpha + b*beta + gamma per pixel with saturation.
// Both planes must have the same size.
func AddWeighted(a *image.Gray, alpha float64, b *image.Gray, beta, gamma float64) *image.Gray {
	w, h := dims(a)
	out := newGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64(a.Pix[y*a.Stride+x])*alpha + float64(b.Pix[y*b.Stride+x])*beta + gamma
			out.Pix[y*out.Stride+x] = saturate(v)
		}
	}
	return out
}

// AddNoise adds uniform integer noise in [lo, hi) to every pixel.
func AddNoise(g *image.Gray, lo, hi int, rng *rand.Rand) *image.Gray {
	w, h := dims(g)
	out := newGray(w, h)
	span := hi - lo
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := int(g.Pix[y*g.Stride+x])
			if span > 0 {
				v += lo + rng.IntN(span)
			}
			out.Pix[y*out.Stride+x] = saturate(float64(v))
		}
	}
	return out
}

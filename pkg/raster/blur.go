package raster

import (
	"image"
	"math"
)

// GaussianKernel returns a normalized 1-D Gaussian kernel of odd size ksize.
// A non-positive sigma is derived from the size.
func GaussianKernel(ksize int, sigma float64) []float64 {
	if ksize < 1 {
		ksize = 1
	}
	if ksize%2 == 0 {
		ksize++
	}
	if sigma <= 0 {
		sigma = 0.3*(float64(ksize-1)*0.5-1) + 0.8
	}
	k := make([]float64, ksize)
	half := ksize / 2
	var sum float64
	for i := range k {
		d := float64(i - half)
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// GaussianBlur smooths g with a separable ksize x ksize Gaussian kernel.
func GaussianBlur(g *image.Gray, ksize int, sigma float64) *image.Gray {
	return GaussianBlurField(FieldFromGray(g), ksize, sigma).ToGray()
}

// GaussianBlurField is GaussianBlur on a float plane.
func GaussianBlurField(f *Field, ksize int, sigma float64) *Field {
	k := GaussianKernel(ksize, sigma)
	return convolveSeparable(f, k, k)
}

func convolveSeparable(f *Field, kx, ky []float64) *Field {
	w, h := f.W, f.H
	hx, hy := len(kx)/2, len(ky)/2
	tmp := NewField(w, h)
	for y := 0; y < h; y++ {
		row := f.Pix[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			var acc float64
			for i, kv := range kx {
				acc += kv * float64(row[reflect101(x+i-hx, w)])
			}
			tmp.Pix[y*w+x] = float32(acc)
		}
	}
	out := NewField(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for i, kv := range ky {
				acc += kv * float64(tmp.Pix[reflect101(y+i-hy, h)*w+x])
			}
			out.Pix[y*w+x] = float32(acc)
		}
	}
	return out
}

// Bilateral applies an edge-preserving bilateral filter with a circular
// window of diameter d.
func Bilateral(g *image.Gray, d int, sigmaColor, sigmaSpace float64) *image.Gray {
	w, h := dims(g)
	if sigmaColor <= 0 {
		sigmaColor = 1
	}
	if sigmaSpace <= 0 {
		sigmaSpace = 1
	}
	radius := d / 2
	if d <= 0 {
		radius = int(math.Round(sigmaSpace * 1.5))
	}
	if radius < 1 {
		radius = 1
	}

	type tap struct {
		dx, dy int
		w      float64
	}
	var taps []tap
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r := math.Sqrt(float64(dx*dx + dy*dy))
			if r > float64(radius) {
				continue
			}
			taps = append(taps, tap{dx, dy, math.Exp(-(r * r) / (2 * sigmaSpace * sigmaSpace))})
		}
	}
	var colorW [256]float64
	for i := range colorW {
		colorW[i] = math.Exp(-float64(i*i) / (2 * sigmaColor * sigmaColor))
	}

	out := newGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := int(g.Pix[y*g.Stride+x])
			var sum, norm float64
			for _, t := range taps {
				v := int(g.Pix[reflect101(y+t.dy, h)*g.Stride+reflect101(x+t.dx, w)])
				diff := v - c
				if diff < 0 {
					diff = -diff
				}
				wt := t.w * colorW[diff]
				sum += wt * float64(v)
				norm += wt
			}
			out.Pix[y*out.Stride+x] = saturate(sum / norm)
		}
	}
	return out
}

package raster

import (
	"image"
	"math"
)

// Kernel is a binary structuring element anchored at its centre.
type Kernel struct {
	W, H int
	On   []bool
}

// Ellipse builds an elliptical structuring element inscribed in w x h.
func Ellipse(w, h int) Kernel {
	k := Kernel{W: w, H: h, On: make([]bool, w*h)}
	r, c := h/2, w/2
	var invR2 float64
	if r > 0 {
		invR2 = 1 / float64(r*r)
	}
	for i := 0; i < h; i++ {
		dy := i - r
		if dy < -r || dy > r {
			continue
		}
		dx := int(math.Round(float64(c) * math.Sqrt(float64(r*r-dy*dy)*invR2)))
		j1, j2 := max(c-dx, 0), min(c+dx+1, w)
		for j := j1; j < j2; j++ {
			k.On[i*w+j] = true
		}
	}
	return k
}

// Dilate replaces each pixel with the maximum under the kernel.
func Dilate(g *image.Gray, k Kernel) *image.Gray {
	return morph(g, k, true)
}

// Erode replaces each pixel with the minimum under the kernel.
func Erode(g *image.Gray, k Kernel) *image.Gray {
	return morph(g, k, false)
}

// Close is a dilation followed by an erosion; it bridges small gaps.
func Close(g *image.Gray, k Kernel) *image.Gray {
	return Erode(Dilate(g, k), k)
}

func morph(g *image.Gray, k Kernel, dilate bool) *image.Gray {
	w, h := dims(g)
	ax, ay := k.W/2, k.H/2
	out := newGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc uint8
			if !dilate {
				acc = 255
			}
			for ky := 0; ky < k.H; ky++ {
				yy := y + ky - ay
				if yy < 0 || yy >= h {
					continue
				}
				for kx := 0; kx < k.W; kx++ {
					if !k.On[ky*k.W+kx] {
						continue
					}
					xx := x + kx - ax
					if xx < 0 || xx >= w {
						continue
					}
					v := g.Pix[yy*g.Stride+xx]
					if dilate && v > acc || !dilate && v < acc {
						acc = v
					}
				}
			}
			out.Pix[y*out.Stride+x] = acc
		}
	}
	return out
}

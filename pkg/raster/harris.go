package raster

import (
	"image"
	"sort"
)

// Harris computes the Harris corner response det(M) - k*trace(M)^2 where M is
// the structure tensor summed over blockSize x blockSize windows of 3x3
// Sobel derivatives.
func Harris(g *image.Gray, blockSize int, k float64) *Field {
	w, h := dims(g)
	if blockSize < 1 {
		blockSize = 1
	}
	dx, dy := Sobel(FieldFromGray(g))
	scale := 1 / (4 * float64(blockSize) * 255)

	xx, yy, xy := NewField(w, h), NewField(w, h), NewField(w, h)
	for i := range dx.Pix {
		a, b := float64(dx.Pix[i])*scale, float64(dy.Pix[i])*scale
		xx.Pix[i] = float32(a * a)
		yy.Pix[i] = float32(b * b)
		xy.Pix[i] = float32(a * b)
	}
	ones := make([]float64, blockSize)
	for i := range ones {
		ones[i] = 1
	}
	xx = convolveSeparable(xx, ones, ones)
	yy = convolveSeparable(yy, ones, ones)
	xy = convolveSeparable(xy, ones, ones)

	r := NewField(w, h)
	for i := range r.Pix {
		a, c, b := float64(xx.Pix[i]), float64(yy.Pix[i]), float64(xy.Pix[i])
		r.Pix[i] = float32(a*c - b*b - k*(a+c)*(a+c))
	}
	return r
}

// Corner is a point with its response strength.
type Corner struct {
	image.Point
	Strength float32
}

// StrongestCorners returns the points of response whose value exceeds
// ratio*max, strongest first, capped at limit (0 means no cap).
func StrongestCorners(response *Field, ratio float32, limit int) []Corner {
	peak := response.Max()
	if peak <= 0 {
		return nil
	}
	threshold := peak * ratio
	var out []Corner
	for y := 0; y < response.H; y++ {
		for x := 0; x < response.W; x++ {
			if v := response.Pix[y*response.W+x]; v > threshold {
				out = append(out, Corner{image.Pt(x, y), v})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Strength > out[j].Strength })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

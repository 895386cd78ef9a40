package raster

import (
	"image"
	"math"
)

// CLAHE performs contrast-limited adaptive histogram equalization over a
// tilesX x tilesY grid. clip is relative to a uniform histogram; tiles that
// overhang the image read reflected pixels.
func CLAHE(g *image.Gray, clip float64, tilesX, tilesY int) *image.Gray {
	w, h := dims(g)
	if tilesX < 1 {
		tilesX = 1
	}
	if tilesY < 1 {
		tilesY = 1
	}
	tw := (w + tilesX - 1) / tilesX
	th := (h + tilesY - 1) / tilesY
	area := tw * th
	limit := 0
	if clip > 0 {
		limit = max(int(clip*float64(area)/256), 1)
	}
	scale := 255.0 / float64(area)

	luts := make([][256]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			var hist [256]int
			for y := ty * th; y < (ty+1)*th; y++ {
				sy := reflect101(y, h)
				for x := tx * tw; x < (tx+1)*tw; x++ {
					hist[g.Pix[sy*g.Stride+reflect101(x, w)]]++
				}
			}
			if limit > 0 {
				clipHistogram(&hist, limit)
			}
			lut := &luts[ty*tilesX+tx]
			sum := 0
			for i := range hist {
				sum += hist[i]
				lut[i] = saturate(float64(sum) * scale)
			}
		}
	}

	out := newGray(w, h)
	for y := 0; y < h; y++ {
		tyf := float64(y)/float64(th) - 0.5
		ty1 := int(math.Floor(tyf))
		ya := tyf - float64(ty1)
		ty2 := min(ty1+1, tilesY-1)
		ty1 = max(ty1, 0)
		for x := 0; x < w; x++ {
			txf := float64(x)/float64(tw) - 0.5
			tx1 := int(math.Floor(txf))
			xa := txf - float64(tx1)
			tx2 := min(tx1+1, tilesX-1)
			tx1 = max(tx1, 0)

			v := g.Pix[y*g.Stride+x]
			top := float64(luts[ty1*tilesX+tx1][v])*(1-xa) + float64(luts[ty1*tilesX+tx2][v])*xa
			bot := float64(luts[ty2*tilesX+tx1][v])*(1-xa) + float64(luts[ty2*tilesX+tx2][v])*xa
			out.Pix[y*out.Stride+x] = saturate(top*(1-ya) + bot*ya)
		}
	}
	return out
}

func clipHistogram(hist *[256]int, limit int) {
	clipped := 0
	for i := range hist {
		if hist[i] > limit {
			clipped += hist[i] - limit
			hist[i] = limit
		}
	}
	batch := clipped / 256
	residual := clipped - batch*256
	for i := range hist {
		hist[i] += batch
	}
	if residual > 0 {
		step := max(256/residual, 1)
		for i := 0; i < 256 && residual > 0; i += step {
			hist[i]++
			residual--
		}
	}
}

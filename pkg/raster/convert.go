package raster

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Flatten composites img over a solid background, discarding transparency.
func Flatten(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// ToGray converts img to an origin-based 8-bit luma plane using the BT.601
// weights in 14-bit fixed point.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return clone(g)
	}
	src := imaging.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	g := newGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*src.Stride + x*4
			r, gg, b := uint32(src.Pix[i]), uint32(src.Pix[i+1]), uint32(src.Pix[i+2])
			g.Pix[y*g.Stride+x] = uint8((r*4899 + gg*9617 + b*1868 + 8192) >> 14)
		}
	}
	return g
}

// Resize resamples g to w x h with a Lanczos filter.
func Resize(g *image.Gray, w, h int) *image.Gray {
	gw, gh := dims(g)
	if gw == w && gh == h {
		return clone(g)
	}
	rgba := imaging.Resize(g, w, h, imaging.Lanczos)
	out := newGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[y*out.Stride+x] = rgba.Pix[y*rgba.Stride+x*4]
		}
	}
	return out
}

// Mask returns the pixels of g strictly above threshold as a 0/255 plane.
func Mask(g *image.Gray, threshold uint8) *image.Gray {
	w, h := dims(g)
	out := newGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if g.Pix[y*g.Stride+x] > threshold {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

func clone(g *image.Gray) *image.Gray {
	w, h := dims(g)
	out := newGray(w, h)
	for y := 0; y < h; y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+w], g.Pix[y*g.Stride:y*g.Stride+w])
	}
	return out
}

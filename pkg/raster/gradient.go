package raster

import "image"

// Sobel returns the horizontal and vertical 3x3 Sobel derivatives of f.
func Sobel(f *Field) (dx, dy *Field) {
	return convolveSeparable(f, []float64{-1, 0, 1}, []float64{1, 2, 1}),
		convolveSeparable(f, []float64{1, 2, 1}, []float64{-1, 0, 1})
}

// Canny detects edges with a 3x3 Sobel gradient, L1 magnitude, non-maximum
// suppression and hysteresis between low and high. Edge pixels are 255.
func Canny(g *image.Gray, low, high float64) *image.Gray {
	if low > high {
		low, high = high, low
	}
	w, h := dims(g)
	dx, dy := Sobel(FieldFromGray(g))
	mag := NewField(w, h)
	for i := range mag.Pix {
		mag.Pix[i] = abs32(dx.Pix[i]) + abs32(dy.Pix[i])
	}

	const (
		tan22 = 0.4142135623730951
		tan67 = 2.414213562373095
	)
	at := func(x, y int) float32 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag.Pix[y*w+x]
	}

	// 0 = suppressed, 1 = weak candidate, 2 = strong
	state := make([]uint8, w*h)
	stack := make([]int, 0, 1024)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag.Pix[i]
			if float64(m) <= low {
				continue
			}
			gx, gy := float64(abs32(dx.Pix[i])), float64(abs32(dy.Pix[i]))
			var keep bool
			switch {
			case gy < gx*tan22:
				keep = m > at(x-1, y) && m >= at(x+1, y)
			case gy > gx*tan67:
				keep = m > at(x, y-1) && m >= at(x, y+1)
			default:
				if (dx.Pix[i] < 0) != (dy.Pix[i] < 0) {
					keep = m > at(x+1, y-1) && m > at(x-1, y+1)
				} else {
					keep = m > at(x-1, y-1) && m > at(x+1, y+1)
				}
			}
			if !keep {
				continue
			}
			if float64(m) > high {
				state[i] = 2
				stack = append(stack, i)
			} else {
				state[i] = 1
			}
		}
	}

	out := newGray(w, h)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		out.Pix[y*out.Stride+x] = 255
		for ny := y - 1; ny <= y+1; ny++ {
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if state[j] == 1 {
					state[j] = 2
					stack = append(stack, j)
				}
			}
		}
	}
	return out
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

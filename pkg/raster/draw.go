package raster

import "image"

// DrawLine rasterizes a 1px line from a to b with Bresenham's algorithm,
// clipping anything outside g.
func DrawLine(g *image.Gray, a, b image.Point, v uint8) {
	w, h := dims(g)
	dx, dy := absInt(b.X-a.X), -absInt(b.Y-a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	x, y := a.X, a.Y
	for {
		if x >= 0 && y >= 0 && x < w && y < h {
			g.Pix[y*g.Stride+x] = v
		}
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// DrawPolyline draws consecutive segments of pts, closing the loop when
// closed is set.
func DrawPolyline(g *image.Gray, pts []image.Point, closed bool, v uint8) {
	if len(pts) == 1 {
		DrawLine(g, pts[0], pts[0], v)
		return
	}
	for i := 1; i < len(pts); i++ {
		DrawLine(g, pts[i-1], pts[i], v)
	}
	if closed && len(pts) > 2 {
		DrawLine(g, pts[len(pts)-1], pts[0], v)
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

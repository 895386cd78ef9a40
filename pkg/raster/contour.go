package raster

import (
	"image"
	"math"
)

// Contour is a closed border traced around a connected component.
type Contour []image.Point

// 8-neighbourhood in clockwise order on screen (y grows downwards),
// starting east.
var ring = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

func ringIndex(d image.Point) int {
	for i, r := range ring {
		if r == d {
			return i
		}
	}
	return 0
}

// FindContours traces every outer and hole border of the non-zero regions
// of bin using Suzuki-Abe border following. Straight horizontal, vertical
// and diagonal runs are compressed to their end points.
func FindContours(bin *image.Gray) []Contour {
	w, h := dims(bin)
	pw, ph := w+2, h+2
	f := make([]int32, pw*ph)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if bin.Pix[y*bin.Stride+x] != 0 {
				f[(y+1)*pw+x+1] = 1
			}
		}
	}
	at := func(p image.Point) int32 { return f[p.Y*pw+p.X] }
	set := func(p image.Point, v int32) { f[p.Y*pw+p.X] = v }

	var contours []Contour
	nbd := int32(1)
	for y := 1; y < ph-1; y++ {
		for x := 1; x < pw-1; x++ {
			v := f[y*pw+x]
			if v == 0 {
				continue
			}
			var from image.Point
			switch {
			case v == 1 && f[y*pw+x-1] == 0:
				from = image.Pt(x-1, y)
			case v >= 1 && f[y*pw+x+1] == 0:
				from = image.Pt(x+1, y)
			default:
				continue
			}
			nbd++
			start := image.Pt(x, y)
			c := follow(start, from, nbd, at, set)
			for i := range c {
				c[i] = c[i].Sub(image.Pt(1, 1))
			}
			contours = append(contours, compressChain(c))
		}
	}
	return contours
}

func follow(start, from image.Point, nbd int32, at func(image.Point) int32, set func(image.Point, int32)) Contour {
	// 3.1: clockwise search around start for the first non-zero neighbour.
	d0 := ringIndex(from.Sub(start))
	var first image.Point
	found := false
	for k := 0; k < 8; k++ {
		p := start.Add(ring[(d0+k)%8])
		if at(p) != 0 {
			first, found = p, true
			break
		}
	}
	if !found {
		set(start, -nbd)
		return Contour{start}
	}

	pts := Contour{}
	prev, cur := first, start
	for {
		// 3.3: counter-clockwise search starting after prev.
		d := ringIndex(prev.Sub(cur))
		var next image.Point
		eastZero := false
		for k := 1; k <= 8; k++ {
			idx := ((d-k)%8 + 8) % 8
			p := cur.Add(ring[idx])
			if at(p) != 0 {
				next = p
				break
			}
			if idx == 0 {
				eastZero = true
			}
		}
		// 3.4
		if eastZero {
			set(cur, -nbd)
		} else if at(cur) == 1 {
			set(cur, nbd)
		}
		pts = append(pts, cur)
		// 3.5
		if next == start && cur == first {
			break
		}
		prev, cur = cur, next
	}
	return pts
}

func compressChain(c Contour) Contour {
	n := len(c)
	if n < 3 {
		return c
	}
	out := make(Contour, 0, n)
	for i := 0; i < n; i++ {
		p, cur, nx := c[(i-1+n)%n], c[i], c[(i+1)%n]
		if cur.Sub(p) != nx.Sub(cur) {
			out = append(out, cur)
		}
	}
	if len(out) == 0 {
		out = append(out, c[0])
	}
	return out
}

// ContourArea returns the absolute polygon area enclosed by c.
func ContourArea(c Contour) float64 {
	if len(c) < 3 {
		return 0
	}
	var a float64
	for i := range c {
		p, q := c[i], c[(i+1)%len(c)]
		a += float64(p.X*q.Y - q.X*p.Y)
	}
	return math.Abs(a) / 2
}

// ArcLength returns the perimeter of c, closing it when closed is set.
func ArcLength(c Contour, closed bool) float64 {
	var l float64
	for i := 1; i < len(c); i++ {
		l += dist(c[i-1], c[i])
	}
	if closed && len(c) > 1 {
		l += dist(c[len(c)-1], c[0])
	}
	return l
}

// ApproxPoly simplifies a closed contour with the Douglas-Peucker algorithm
// so that no dropped point lies further than epsilon from the result.
func ApproxPoly(c Contour, epsilon float64) Contour {
	n := len(c)
	if n < 3 || epsilon <= 0 {
		return append(Contour(nil), c...)
	}
	far, best := 0, -1.0
	for i := 1; i < n; i++ {
		if d := dist(c[0], c[i]); d > best {
			far, best = i, d
		}
	}
	first := douglasPeucker(c[:far+1], epsilon)
	loop := append(append(Contour(nil), c[far:]...), c[0])
	second := douglasPeucker(loop, epsilon)

	out := append(Contour(nil), first[:len(first)-1]...)
	out = append(out, second[:len(second)-1]...)
	return out
}

func douglasPeucker(pts Contour, eps float64) Contour {
	if len(pts) < 3 {
		return append(Contour(nil), pts...)
	}
	keep := make([]bool, len(pts))
	keep[0], keep[len(pts)-1] = true, true
	type span struct{ a, b int }
	stack := []span{{0, len(pts) - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		idx, dmax := -1, eps
		for i := s.a + 1; i < s.b; i++ {
			if d := segmentDistance(pts[i], pts[s.a], pts[s.b]); d > dmax {
				idx, dmax = i, d
			}
		}
		if idx >= 0 {
			keep[idx] = true
			stack = append(stack, span{s.a, idx}, span{idx, s.b})
		}
	}
	out := make(Contour, 0, len(pts))
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

func segmentDistance(p, a, b image.Point) float64 {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	if dx == 0 && dy == 0 {
		return dist(p, a)
	}
	return math.Abs(dy*float64(p.X-a.X)-dx*float64(p.Y-a.Y)) / math.Hypot(dx, dy)
}

func dist(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

package raster_test

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/mektycoon/mekforge/pkg/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniform(w, h int, v uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = v
	}
	return g
}

// square returns a w x h plane of bg with r filled with fg.
func square(w, h int, r image.Rectangle, bg, fg uint8) *image.Gray {
	g := uniform(w, h, bg)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			g.SetGray(x, y, color.Gray{Y: fg})
		}
	}
	return g
}

func allEqual(t *testing.T, g *image.Gray) uint8 {
	t.Helper()
	first := g.Pix[0]
	for i, v := range g.Pix {
		if v != first {
			t.Fatalf("pixel %d = %d, want %d", i, v, first)
		}
	}
	return first
}

func TestToGray_Weights(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 13, 11))
	img.SetNRGBA(10, 10, color.NRGBA{255, 255, 255, 255})
	img.SetNRGBA(11, 10, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(12, 10, color.NRGBA{0, 0, 0, 255})

	g := raster.ToGray(img)
	require.Equal(t, image.Rect(0, 0, 3, 1), g.Rect)
	assert.Equal(t, []uint8{255, 76, 0}, g.Pix)
}

func TestToGray_IgnoresAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{200, 200, 200, 0})
	img.SetNRGBA(1, 0, color.NRGBA{200, 200, 200, 255})

	assert.Equal(t, []uint8{200, 200}, raster.ToGray(img).Pix)
}

func TestFlatten_TransparentBecomesBackground(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(1, 1, color.NRGBA{0, 0, 0, 255})

	flat := raster.Flatten(img, color.White)
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, flat.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, flat.NRGBAAt(1, 1))
}

func TestGaussianKernel_Normalized(t *testing.T) {
	k := raster.GaussianKernel(5, 0)
	require.Len(t, k, 5)
	var sum float64
	for _, v := range k {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, k[0], k[4])
	assert.Greater(t, k[2], k[1])

	assert.Len(t, raster.GaussianKernel(4, 1), 5, "even sizes round up")
}

func TestSmoothingKeepsUniformPlanes(t *testing.T) {
	g := uniform(16, 12, 130)
	assert.Equal(t, uint8(130), allEqual(t, raster.GaussianBlur(g, 5, 0)))
	assert.Equal(t, uint8(130), allEqual(t, raster.Bilateral(g, 9, 75, 75)))
	allEqual(t, raster.CLAHE(g, 2, 8, 8))
}

func TestBilateral_PreservesStepEdge(t *testing.T) {
	g := square(20, 20, image.Rect(10, 0, 20, 20), 0, 255)
	out := raster.Bilateral(g, 9, 10, 75)
	assert.Less(t, out.GrayAt(9, 10).Y, uint8(5))
	assert.Greater(t, out.GrayAt(10, 10).Y, uint8(250))
}

func TestAdaptiveThreshold(t *testing.T) {
	g := square(30, 30, image.Rect(10, 10, 20, 20), 255, 0)
	out := raster.AdaptiveThreshold(g, 255, 11, 2, true)

	assert.Equal(t, uint8(255), out.GrayAt(10, 15).Y, "dark edge is foreground")
	assert.Equal(t, uint8(0), out.GrayAt(2, 2).Y, "flat background is not")

	plain := raster.AdaptiveThreshold(g, 255, 11, 2, false)
	assert.Equal(t, uint8(0), plain.GrayAt(10, 15).Y)
	assert.Equal(t, uint8(255), plain.GrayAt(2, 2).Y)
}

func TestCanny_FindsSquareOutline(t *testing.T) {
	g := square(40, 40, image.Rect(10, 10, 30, 30), 0, 255)
	edges := raster.Canny(g, 50, 150)

	count := 0
	for _, v := range edges.Pix {
		if v == 255 {
			count++
		} else {
			assert.Equal(t, uint8(0), v)
		}
	}
	assert.Greater(t, count, 40)
	assert.Equal(t, uint8(0), edges.GrayAt(20, 20).Y, "interior is flat")
	assert.Equal(t, uint8(0), edges.GrayAt(2, 2).Y, "background is flat")

	near := false
	for x := 8; x <= 11; x++ {
		if edges.GrayAt(x, 20).Y == 255 {
			near = true
		}
	}
	assert.True(t, near, "left border produces an edge")
}

func TestEllipse(t *testing.T) {
	k := raster.Ellipse(3, 3)
	assert.Equal(t, []bool{
		false, true, false,
		true, true, true,
		false, true, false,
	}, k.On)

	small := raster.Ellipse(2, 2)
	assert.Equal(t, []bool{false, true, true, true}, small.On)
}

func TestMorphology(t *testing.T) {
	g := uniform(7, 7, 0)
	g.SetGray(3, 3, color.Gray{Y: 255})
	d := raster.Dilate(g, raster.Ellipse(3, 3))

	on := 0
	for _, v := range d.Pix {
		if v == 255 {
			on++
		}
	}
	assert.Equal(t, 5, on)
	assert.Equal(t, uint8(255), d.GrayAt(3, 2).Y)
	assert.Equal(t, uint8(0), d.GrayAt(2, 2).Y)

	e := raster.Erode(d, raster.Ellipse(3, 3))
	assert.Equal(t, uint8(255), e.GrayAt(3, 3).Y)
	assert.Equal(t, uint8(0), e.GrayAt(3, 2).Y)

	hole := uniform(9, 3, 255)
	hole.SetGray(4, 1, color.Gray{})
	closed := raster.Close(hole, raster.Ellipse(3, 3))
	assert.Equal(t, uint8(255), closed.GrayAt(4, 1).Y, "pinhole is filled")
}

func TestAddWeighted_Saturates(t *testing.T) {
	a, b := uniform(2, 2, 200), uniform(2, 2, 100)
	assert.Equal(t, uint8(255), raster.AddWeighted(a, 1, b, 1, 0).Pix[0])
	assert.Equal(t, uint8(180), raster.AddWeighted(a, 0.7, b, 0.4, 0).Pix[0])
}

func TestAddNoise_StaysInRange(t *testing.T) {
	g := uniform(10, 10, 100)
	out := raster.AddNoise(g, -3, 3, rand.New(rand.NewPCG(1, 2)))
	for _, v := range out.Pix {
		assert.GreaterOrEqual(t, v, uint8(97))
		assert.LessOrEqual(t, v, uint8(102))
	}
}

func TestFindContours_Rectangle(t *testing.T) {
	g := square(10, 10, image.Rect(2, 2, 7, 6), 0, 255)
	cs := raster.FindContours(g)
	require.Len(t, cs, 1)
	assert.ElementsMatch(t, []image.Point{{2, 2}, {6, 2}, {6, 5}, {2, 5}}, []image.Point(cs[0]))
	assert.Equal(t, 12.0, raster.ContourArea(cs[0]))
	assert.Equal(t, 14.0, raster.ArcLength(cs[0], true))
}

func TestFindContours_RingHasHole(t *testing.T) {
	g := square(12, 12, image.Rect(2, 2, 9, 9), 0, 255)
	for y := 4; y < 7; y++ {
		for x := 4; x < 7; x++ {
			g.SetGray(x, y, color.Gray{})
		}
	}
	assert.Len(t, raster.FindContours(g), 2)
}

func TestFindContours_SinglePixel(t *testing.T) {
	g := uniform(5, 5, 0)
	g.SetGray(2, 3, color.Gray{Y: 255})
	cs := raster.FindContours(g)
	require.Len(t, cs, 1)
	assert.Equal(t, raster.Contour{{2, 3}}, cs[0])
}

func TestApproxPoly(t *testing.T) {
	var c raster.Contour
	for x := 0; x <= 10; x++ {
		c = append(c, image.Pt(x, 0))
	}
	for y := 1; y <= 10; y++ {
		c = append(c, image.Pt(10, y))
	}
	for x := 9; x >= 0; x-- {
		c = append(c, image.Pt(x, 10))
	}
	for y := 9; y >= 1; y-- {
		c = append(c, image.Pt(0, y))
	}
	out := raster.ApproxPoly(c, 0.5)
	assert.ElementsMatch(t, []image.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, []image.Point(out))
}

func TestDrawLine(t *testing.T) {
	g := uniform(5, 5, 0)
	raster.DrawLine(g, image.Pt(0, 0), image.Pt(4, 4), 255)
	for i := 0; i < 5; i++ {
		assert.Equal(t, uint8(255), g.GrayAt(i, i).Y)
	}
	raster.DrawLine(g, image.Pt(-3, 2), image.Pt(8, 2), 9)
	assert.Equal(t, uint8(9), g.GrayAt(0, 2).Y)
	assert.Equal(t, uint8(9), g.GrayAt(4, 2).Y)
}

func TestHarris_PeaksAtCorners(t *testing.T) {
	g := square(40, 40, image.Rect(10, 10, 30, 30), 0, 255)
	corners := raster.StrongestCorners(raster.Harris(g, 2, 0.04), 0.01, 4)
	require.NotEmpty(t, corners)

	targets := []image.Point{{10, 10}, {29, 10}, {10, 29}, {29, 29}}
	best := corners[0].Point
	hit := false
	for _, tp := range targets {
		if abs(best.X-tp.X) <= 2 && abs(best.Y-tp.Y) <= 2 {
			hit = true
		}
	}
	assert.True(t, hit, "strongest response %v should sit on a corner", best)
}

func TestResize(t *testing.T) {
	g := uniform(8, 8, 90)
	out := raster.Resize(g, 4, 2)
	assert.Equal(t, image.Rect(0, 0, 4, 2), out.Rect)
	assert.Equal(t, uint8(90), allEqual(t, out))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ramp returns a w x 1 plane where pixel x holds f(x).
func ramp(w int, f func(x int) uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, 1))
	for x := 0; x < w; x++ {
		g.Pix[x] = f(x)
	}
	return g
}

func TestCLAHE_FullRampSingleTile(t *testing.T) {
	// Every level appears once, so the mapping is the scaled cumulative count.
	g := ramp(256, func(x int) uint8 { return uint8(x) })
	out := raster.CLAHE(g, 0, 1, 1)
	for x := 0; x < 256; x++ {
		want := uint8(math.Round(float64(x+1) * 255 / 256))
		require.Equal(t, want, out.Pix[x], "x=%d", x)
	}
	assert.Equal(t, uint8(1), out.Pix[0])
	assert.Equal(t, uint8(255), out.Pix[255])
}

func TestCLAHE_ClipLimitsStretch(t *testing.T) {
	// Sixteen levels 100..115, sixteen pixels each.
	g := ramp(256, func(x int) uint8 { return uint8(100 + x/16) })

	open := raster.CLAHE(g, 0, 1, 1)
	assert.Equal(t, uint8(16), open.Pix[0])
	assert.Equal(t, uint8(255), open.Pix[255])

	// Limit 2 per bin: 224 excess pixels spread one each over bins 0..223,
	// so level 100+k maps to (100 + 3(k+1)) * 255/256.
	clipped := raster.CLAHE(g, 2, 1, 1)
	assert.Equal(t, uint8(103), clipped.Pix[0])
	assert.Equal(t, uint8(147), clipped.Pix[255])
	for x := 1; x < 256; x++ {
		require.GreaterOrEqual(t, clipped.Pix[x], clipped.Pix[x-1], "x=%d", x)
	}
	assert.Less(t, int(clipped.Pix[255])-int(clipped.Pix[0]), int(open.Pix[255])-int(open.Pix[0]))
}

func TestCLAHE_BlendsBetweenTiles(t *testing.T) {
	g := ramp(256, func(x int) uint8 { return uint8(x) })
	out := raster.CLAHE(g, 0, 2, 1)

	// Tile centres use their own mapping.
	assert.Equal(t, uint8(129), out.Pix[64])
	assert.Equal(t, uint8(129), out.Pix[192])
	// Edges clamp to the nearest tile.
	assert.Equal(t, uint8(2), out.Pix[0])
	assert.Equal(t, uint8(255), out.Pix[255])
	// Halfway between centres: (255 + 2) / 2.
	assert.Equal(t, uint8(129), out.Pix[128])
}

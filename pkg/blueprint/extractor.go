package blueprint

import (
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/mektycoon/mekforge/pkg/domain"
	"github.com/mektycoon/mekforge/pkg/raster"
)

// EdgeExtractor turns a grayscale image into a line plane (white strokes on
// black) for the classic renderer.
type EdgeExtractor interface {
	Extract(gray *image.Gray, detail domain.DetailLevel) (*image.Gray, error)
}

type detailParams struct {
	epsilon   float64
	cannyLow  float64
	cannyHigh float64
}

var detailTable = map[domain.DetailLevel]detailParams{
	domain.DetailHigh:   {epsilon: 0.002, cannyLow: 20, cannyHigh: 80},
	domain.DetailMedium: {epsilon: 0.003, cannyLow: 30, cannyHigh: 100},
	domain.DetailLow:    {epsilon: 0.005, cannyLow: 40, cannyHigh: 120},
}

func paramsFor(d domain.DetailLevel) detailParams {
	if p, ok := detailTable[d]; ok {
		return p
	}
	return detailTable[domain.DetailMedium]
}

const minContourArea = 5

// ContourEdges is the pure Go extractor: bilateral smoothing, an inverted
// adaptive threshold traced into simplified contours, Canny detail blended
// on top and a light closing.
type ContourEdges struct{}

func (ContourEdges) Extract(gray *image.Gray, detail domain.DetailLevel) (*image.Gray, error) {
	p := paramsFor(detail)
	smooth := raster.Bilateral(gray, 9, 75, 75)
	binary := raster.AdaptiveThreshold(smooth, 255, 11, 2, true)

	b := gray.Rect
	outline := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for _, c := range raster.FindContours(binary) {
		if raster.ContourArea(c) < minContourArea {
			continue
		}
		approx := raster.ApproxPoly(c, p.epsilon*raster.ArcLength(c, true))
		raster.DrawPolyline(outline, approx, true, 255)
	}

	edges := raster.Canny(smooth, p.cannyLow, p.cannyHigh)
	blended := raster.AddWeighted(outline, 0.7, edges, 0.4, 0)
	return raster.Close(blended, raster.Ellipse(2, 2)), nil
}

var (
	extractorsMu sync.RWMutex
	extractors   = map[string]EdgeExtractor{"go": ContourEdges{}}
)

// RegisterExtractor makes an extractor selectable by name.
func RegisterExtractor(name string, e EdgeExtractor) {
	extractorsMu.Lock()
	defer extractorsMu.Unlock()
	extractors[name] = e
}

// Extractor returns the extractor registered under name. The empty name
// selects the pure Go one.
func Extractor(name string) (EdgeExtractor, error) {
	if name == "" {
		name = "go"
	}
	extractorsMu.RLock()
	defer extractorsMu.RUnlock()
	e, ok := extractors[name]
	if !ok {
		return nil, fmt.Errorf("unknown edge engine %q (available: %v)", name, extractorNames())
	}
	return e, nil
}

func extractorNames() []string {
	names := make([]string, 0, len(extractors))
	for n := range extractors {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

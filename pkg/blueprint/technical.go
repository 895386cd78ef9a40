package blueprint

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"

	"github.com/fogleman/gg"
	"github.com/mektycoon/mekforge/pkg/domain"
	"github.com/mektycoon/mekforge/pkg/raster"
)

// Gold is the stroke colour of technical drawings (#fab617).
var Gold = color.NRGBA{250, 182, 23, 255}

// Leader line styles.
const (
	LeaderAngled   = "angled"
	LeaderStraight = "straight"
)

// Upper bounds of TechnicalOptions. The renderer works at twice the output
// size, so the largest working plane is 8192 px square.
const (
	MaxOutputSize  = 4096
	MaxFontSize    = 256
	MaxLabelMargin = 1024
)

const (
	gridSpacing    = 50
	edgeThreshold  = 30
	maxCorners     = 100
	cornerRatio    = 0.01
	harrisBlock    = 2
	harrisK        = 0.04
	claheTiles     = 8
	defaultMekRank = "1"
)

// TechnicalOptions configure the gold-on-black renderer. Field names follow
// the form parameters of the HTTP API.
type TechnicalOptions struct {
	CannyLow      int `json:"canny_low" yaml:"canny_low" mapstructure:"canny_low"`
	CannyMid      int `json:"canny_mid" yaml:"canny_mid" mapstructure:"canny_mid"`
	CannyHigh     int `json:"canny_high" yaml:"canny_high" mapstructure:"canny_high"`
	OutputSize    int `json:"output_size" yaml:"output_size" mapstructure:"output_size"`
	LineThickness int `json:"line_thickness" yaml:"line_thickness" mapstructure:"line_thickness"`
	Overshoot     int `json:"overshoot" yaml:"overshoot" mapstructure:"overshoot"`
	GridOpacity   int `json:"grid_opacity" yaml:"grid_opacity" mapstructure:"grid_opacity"`
	Smoothness    int `json:"smoothness" yaml:"smoothness" mapstructure:"smoothness"`
	Curviness     int `json:"curviness" yaml:"curviness" mapstructure:"curviness"`
	Sketchiness   int `json:"sketchiness" yaml:"sketchiness" mapstructure:"sketchiness"`
	DetailDensity int `json:"detail_density" yaml:"detail_density" mapstructure:"detail_density"`

	Annotations     bool   `json:"enable_annotations" yaml:"enable_annotations" mapstructure:"enable_annotations"`
	AnnotationStyle string `json:"annotation_style" yaml:"annotation_style" mapstructure:"annotation_style"`
	FontSize        int    `json:"annotation_font_size" yaml:"annotation_font_size" mapstructure:"annotation_font_size"`
	LabelMargin     int    `json:"label_margin" yaml:"label_margin" mapstructure:"label_margin"`

	MekCode  string `json:"mek_code" yaml:"mek_code" mapstructure:"mek_code"`
	HeadName string `json:"head_name" yaml:"head_name" mapstructure:"head_name"`
	BodyName string `json:"body_name" yaml:"body_name" mapstructure:"body_name"`
	ItemName string `json:"item_name" yaml:"item_name" mapstructure:"item_name"`
	MekRank  string `json:"mek_rank" yaml:"mek_rank" mapstructure:"mek_rank"`

	HeadPosition domain.Position `json:"head_position" yaml:"head_position" mapstructure:"head_position"`
	BodyPosition domain.Position `json:"body_position" yaml:"body_position" mapstructure:"body_position"`
	ItemPosition domain.Position `json:"item_position" yaml:"item_position" mapstructure:"item_position"`
	RankPosition domain.Position `json:"rank_position" yaml:"rank_position" mapstructure:"rank_position"`
	MekPosition  domain.Position `json:"mek_number_position" yaml:"mek_number_position" mapstructure:"mek_number_position"`

	// Seed fixes sketch noise and overshoot lengths. Zero draws a fresh
	// seed per render.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty" mapstructure:"seed"`
}

// DefaultTechnicalOptions returns the defaults of the web converter.
func DefaultTechnicalOptions() TechnicalOptions {
	return TechnicalOptions{
		CannyLow:        20,
		CannyMid:        40,
		CannyHigh:       60,
		OutputSize:      2000,
		LineThickness:   1,
		Overshoot:       8,
		GridOpacity:     15,
		Smoothness:      3,
		Curviness:       5,
		Sketchiness:     0,
		DetailDensity:   50,
		Annotations:     true,
		AnnotationStyle: LeaderAngled,
		FontSize:        24,
		LabelMargin:     150,
		MekRank:         defaultMekRank,
		HeadPosition:    domain.TopRight,
		BodyPosition:    domain.BottomLeft,
		ItemPosition:    domain.BottomRight,
		RankPosition:    domain.TopLeft,
		MekPosition:     domain.BottomLeft,
	}
}

// Validate rejects sizes and names the renderer cannot honour.
func (o TechnicalOptions) Validate() error {
	if o.OutputSize <= 0 || o.OutputSize > MaxOutputSize {
		return fmt.Errorf("output size must be within 1..%d, got %d", MaxOutputSize, o.OutputSize)
	}
	for _, r := range []struct {
		name     string
		v, limit int
	}{
		{"grid opacity", o.GridOpacity, 255},
		{"line thickness", o.LineThickness, 64},
		{"overshoot", o.Overshoot, 512},
		{"smoothness", o.Smoothness, 50},
		{"curviness", o.Curviness, 100},
		{"sketchiness", o.Sketchiness, 100},
		{"detail density", o.DetailDensity, 100},
	} {
		if r.v < 0 || r.v > r.limit {
			return fmt.Errorf("%s must be within 0..%d, got %d", r.name, r.limit, r.v)
		}
	}
	if !o.Annotations {
		return nil
	}
	switch o.AnnotationStyle {
	case LeaderAngled, LeaderStraight:
	default:
		return fmt.Errorf("%w: annotation style %q", domain.ErrUnknownStyle, o.AnnotationStyle)
	}
	for _, p := range []domain.Position{o.HeadPosition, o.BodyPosition, o.ItemPosition, o.RankPosition, o.MekPosition} {
		if _, err := domain.ParsePosition(string(p)); err != nil {
			return err
		}
	}
	if o.FontSize <= 0 || o.FontSize > MaxFontSize {
		return fmt.Errorf("annotation font size must be within 1..%d, got %d", MaxFontSize, o.FontSize)
	}
	if o.LabelMargin < 0 || o.LabelMargin > MaxLabelMargin {
		return fmt.Errorf("label margin must be within 0..%d, got %d", MaxLabelMargin, o.LabelMargin)
	}
	return nil
}

// Technical renders the gold-on-black drawing.
type Technical struct {
	opts TechnicalOptions
}

// NewTechnical validates opts.
func NewTechnical(opts TechnicalOptions) (*Technical, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Technical{opts: opts}, nil
}

// Options returns the settings the renderer was built with.
func (t *Technical) Options() TechnicalOptions { return t.opts }

// Render produces a square OutputSize image from img.
func (t *Technical) Render(ctx context.Context, img image.Image) (image.Image, error) {
	o := t.opts
	rng := newRand(o.Seed)

	edges := t.edges(ctx, raster.ToGray(img), rng)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	size := o.OutputSize
	sheet := fill(size, size, color.NRGBA{0, 0, 0, 255})
	if o.GridOpacity > 0 {
		v := uint8(o.GridOpacity)
		drawGrid(sheet, gridSpacing, 1, color.NRGBA{v, v, v, 255})
	}
	paintMask(sheet, edges, edgeThreshold, Gold)

	dc := gg.NewContextForImage(sheet)
	dc.SetColor(Gold)
	if o.Overshoot > 0 {
		drawOvershoot(dc, edges, o.Overshoot, rng)
	}
	if o.Annotations {
		if err := annotate(dc, edges, o); err != nil {
			return nil, err
		}
	}
	return dc.Image(), nil
}

// edges runs the multi-threshold edge pipeline at twice the output size and
// returns the downsampled line plane.
func (t *Technical) edges(ctx context.Context, gray *image.Gray, rng *rand.Rand) *image.Gray {
	o := t.opts
	work := raster.Resize(gray, o.OutputSize*2, o.OutputSize*2)

	d := min(max(9+(o.Smoothness-3), 5), 15)
	sigma := 75 + float64(o.Smoothness)*10
	g := raster.Bilateral(work, d, sigma, sigma)
	if ctx.Err() != nil {
		return g
	}
	g = raster.CLAHE(g, 1+float64(o.DetailDensity)/50, claheTiles, claheTiles)
	if o.Curviness > 5 {
		k := min(15, 1+o.Curviness)
		if k%2 == 0 {
			k++
		}
		g = raster.GaussianBlur(g, k, float64(o.Curviness)/3)
	}

	low, mid, high := float64(o.CannyLow), float64(o.CannyMid), float64(o.CannyHigh)
	e1 := raster.Canny(g, low, low*3)
	e2 := raster.Canny(g, mid, mid*2.5)
	e3 := raster.Canny(g, high, high*2)
	combined := raster.AddWeighted(raster.AddWeighted(e1, 0.4, e2, 0.4, 0), 1.0, e3, 0.2, 0)

	k := max(3, 3+o.Curviness/5)
	clean := raster.Close(combined, raster.Ellipse(k, k))
	if o.Sketchiness > 0 {
		clean = raster.AddNoise(clean, -o.Sketchiness*5, o.Sketchiness*5, rng)
	}
	if o.LineThickness > 1 {
		clean = raster.Dilate(clean, raster.Ellipse(o.LineThickness, o.LineThickness))
	}

	bk := max(3, o.Smoothness)
	if bk%2 == 0 {
		bk++
	}
	smooth := raster.GaussianBlur(clean, bk, float64(o.Smoothness)/3)
	return raster.Resize(smooth, o.OutputSize, o.OutputSize)
}

// drawOvershoot marks the strongest Harris corners of the line plane with
// small crosses.
func drawOvershoot(dc *gg.Context, edges *image.Gray, overshoot int, rng *rand.Rand) {
	resp := raster.Harris(edges, harrisBlock, harrisK).Dilate3()
	corners := raster.StrongestCorners(resp, cornerRatio, maxCorners)
	dc.SetLineWidth(1)
	lo := overshoot / 2
	for _, c := range corners {
		n := float64(lo + rng.IntN(overshoot-lo))
		x, y := float64(c.X)+0.5, float64(c.Y)+0.5
		dc.DrawLine(x-n, y, x+n, y)
		dc.DrawLine(x, y-n, x, y+n)
	}
	dc.Stroke()
}

// SanitizeLabels cleans the annotation texts in place.
func (o *TechnicalOptions) SanitizeLabels() error {
	for _, label := range []*string{&o.MekCode, &o.HeadName, &o.BodyName, &o.ItemName, &o.MekRank} {
		clean, err := domain.SanitizeLabel(*label)
		if err != nil {
			return err
		}
		*label = clean
	}
	return nil
}

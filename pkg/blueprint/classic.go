package blueprint

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/mektycoon/mekforge/pkg/domain"
	"github.com/mektycoon/mekforge/pkg/raster"
)

// ClassicOptions configure the white-on-blue renderer.
type ClassicOptions struct {
	Style    string             `json:"style" yaml:"style" mapstructure:"style"`
	Grid     bool               `json:"grid" yaml:"grid" mapstructure:"grid"`
	GridSize int                `json:"grid_size" yaml:"grid_size" mapstructure:"grid_size"`
	Detail   domain.DetailLevel `json:"detail" yaml:"detail" mapstructure:"detail"`
	// Engine names the EdgeExtractor; empty selects the pure Go one.
	Engine string `json:"engine,omitempty" yaml:"engine,omitempty" mapstructure:"engine"`
	// Seed fixes the paper grain. Zero draws a fresh seed per render.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty" mapstructure:"seed"`
}

// DefaultClassicOptions returns the production settings.
func DefaultClassicOptions() ClassicOptions {
	return ClassicOptions{
		Style:    "blue",
		Grid:     true,
		GridSize: 30,
		Detail:   domain.DetailHigh,
	}
}

// Validate checks the style and detail names.
func (o ClassicOptions) Validate() error {
	if _, err := LookupScheme(o.Style); err != nil {
		return err
	}
	if _, err := domain.ParseDetailLevel(string(o.Detail)); err != nil {
		return err
	}
	if o.Grid && o.GridSize <= 0 {
		return fmt.Errorf("grid size must be positive, got %d", o.GridSize)
	}
	return nil
}

// Classic renders the catalogue blueprint.
type Classic struct {
	opts   ClassicOptions
	scheme Scheme
	edges  EdgeExtractor
}

// NewClassic validates opts and resolves the edge engine.
func NewClassic(opts ClassicOptions) (*Classic, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	scheme, _ := LookupScheme(opts.Style)
	edges, err := Extractor(opts.Engine)
	if err != nil {
		return nil, err
	}
	return &Classic{opts: opts, scheme: scheme, edges: edges}, nil
}

// Options returns the settings the renderer was built with.
func (c *Classic) Options() ClassicOptions { return c.opts }

// Render converts img. Transparent areas are treated as white paper.
func (c *Classic) Render(ctx context.Context, img image.Image) (image.Image, error) {
	gray := raster.ToGray(raster.Flatten(img, color.White))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	edges, err := c.edges.Extract(gray, c.opts.Detail)
	if err != nil {
		return nil, fmt.Errorf("extract edges: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	sheet := fill(w, h, c.scheme.Background)
	if c.opts.Grid {
		drawGrid(sheet, c.opts.GridSize, 1, c.scheme.Grid)
		drawGrid(sheet, c.opts.GridSize*5, 2, major(c.scheme.Grid))
	}
	paintMask(sheet, edges, 127, c.scheme.Lines)

	out := imaging.Blur(sheet, 0.5)
	grain(out, -3, 3, newRand(c.opts.Seed))
	return out, nil
}

package essence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mektycoon/mekforge/pkg/domain"
	"github.com/mektycoon/mekforge/pkg/imageio"
)

// ProgressEvery is how many icons are written between progress callbacks.
const ProgressEvery = 50

// Result records the icons written by GenerateAll.
type Result struct {
	Dir   string
	Files []string
}

// Option configures GenerateAll.
type Option func(*config)

type config struct {
	format   imageio.Format
	size     int
	progress func(done, total int)
}

// WithFormat selects the output encoding (WebP by default).
func WithFormat(f imageio.Format) Option {
	return func(c *config) { c.format = f }
}

// WithSize sets the icon edge length.
func WithSize(px int) Option {
	return func(c *config) { c.size = px }
}

// WithProgress registers a callback invoked every ProgressEvery icons.
func WithProgress(fn func(done, total int)) Option {
	return func(c *config) { c.progress = fn }
}

// GenerateAll writes one icon per variation into dir. It stops at the first
// failure or when ctx is cancelled.
func GenerateAll(ctx context.Context, vars []domain.Variation, dir string, opts ...Option) (*Result, error) {
	cfg := config{format: imageio.FormatWebP, size: DefaultSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	gen := NewGenerator(cfg.size)
	stems := FileStems(vars)
	res := &Result{Dir: dir, Files: make([]string, 0, len(vars))}
	for i, v := range vars {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		img, err := gen.Render(v.Name, v.Type)
		if err != nil {
			return res, fmt.Errorf("render %q: %w", v.Name, err)
		}
		path := filepath.Join(dir, stems[i]+cfg.format.Ext())
		f, err := os.Create(path)
		if err != nil {
			return res, err
		}
		err = imageio.Encode(f, img, cfg.format)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return res, fmt.Errorf("write %s: %w", path, err)
		}
		res.Files = append(res.Files, path)
		if cfg.progress != nil && (i+1)%ProgressEvery == 0 {
			cfg.progress(i+1, len(vars))
		}
	}
	return res, nil
}

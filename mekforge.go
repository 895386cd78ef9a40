package mekforge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mektycoon/mekforge/internal/batch"
	"github.com/mektycoon/mekforge/internal/catalog"
	"github.com/mektycoon/mekforge/internal/logging"
	"github.com/mektycoon/mekforge/pkg/audit"
	"github.com/mektycoon/mekforge/pkg/blueprint"
	"github.com/mektycoon/mekforge/pkg/domain"
	"github.com/mektycoon/mekforge/pkg/essence"
	"github.com/mektycoon/mekforge/pkg/imageio"
)

// Mode selects a blueprint renderer.
type Mode string

const (
	ModeClassic   Mode = "classic"
	ModeTechnical Mode = "technical"
)

// ParseMode validates a renderer name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeClassic, ModeTechnical:
		return m, nil
	case "":
		return ModeClassic, nil
	}
	return "", fmt.Errorf("%w: mode %q", domain.ErrUnknownStyle, s)
}

// BatchSummary aggregates a directory conversion.
type BatchSummary = batch.Summary

// BatchResult is the outcome of one file of a batch.
type BatchResult = batch.Result

// Toolkit is the high-level entry point for the library.
type Toolkit struct {
	logger     *slog.Logger
	workers    int
	metrics    *batch.Metrics
	progress   batch.ProgressFunc
	classic    blueprint.ClassicOptions
	technical  blueprint.TechnicalOptions
	suffix     string
	variations []domain.Variation
	iconSize   int
	iconFormat imageio.Format
}

// Option defines a functional option for configuring the Toolkit.
type Option func(*Toolkit)

func WithLogger(l *slog.Logger) Option {
	return func(t *Toolkit) {
		t.logger = l
	}
}

// WithWorkers sets the batch concurrency.
func WithWorkers(n int) Option {
	return func(t *Toolkit) {
		t.workers = n
	}
}

// WithMetrics records batch items on m.
func WithMetrics(m *batch.Metrics) Option {
	return func(t *Toolkit) {
		t.metrics = m
	}
}

// WithProgress is called after each batch item.
func WithProgress(fn func(done, total int, r BatchResult)) Option {
	return func(t *Toolkit) {
		t.progress = fn
	}
}

func WithClassicOptions(o blueprint.ClassicOptions) Option {
	return func(t *Toolkit) {
		t.classic = o
	}
}

func WithTechnicalOptions(o blueprint.TechnicalOptions) Option {
	return func(t *Toolkit) {
		t.technical = o
	}
}

// WithOutputSuffix changes the "-blueprint" suffix of batch outputs.
func WithOutputSuffix(s string) Option {
	return func(t *Toolkit) {
		t.suffix = s
	}
}

// WithVariations replaces the embedded variation catalog.
func WithVariations(vars []domain.Variation) Option {
	return func(t *Toolkit) {
		t.variations = vars
	}
}

// WithEssenceIcons sets the icon size and encoding.
func WithEssenceIcons(size int, format imageio.Format) Option {
	return func(t *Toolkit) {
		t.iconSize = size
		t.iconFormat = format
	}
}

// New creates a Toolkit. Renderer options are validated eagerly.
func New(opts ...Option) (*Toolkit, error) {
	t := &Toolkit{
		logger:     logging.NewNop(),
		workers:    batch.DefaultWorkers,
		classic:    blueprint.DefaultClassicOptions(),
		technical:  blueprint.DefaultTechnicalOptions(),
		suffix:     domain.BlueprintSuffix,
		iconSize:   essence.DefaultSize,
		iconFormat: imageio.FormatWebP,
	}
	for _, opt := range opts {
		opt(t)
	}

	if err := t.classic.Validate(); err != nil {
		return nil, fmt.Errorf("classic options: %w", err)
	}
	if err := t.technical.Validate(); err != nil {
		return nil, fmt.Errorf("technical options: %w", err)
	}
	if t.variations == nil {
		vars, err := catalog.Default()
		if err != nil {
			return nil, err
		}
		t.variations = vars
	}
	return t, nil
}

// Variations returns the catalog in use.
func (t *Toolkit) Variations() []domain.Variation { return t.variations }

// Renderer builds the renderer for mode from the configured options.
func (t *Toolkit) Renderer(mode Mode) (blueprint.Renderer, error) {
	switch mode {
	case ModeClassic, "":
		return blueprint.NewClassic(t.classic)
	case ModeTechnical:
		return blueprint.NewTechnical(t.technical)
	}
	return nil, fmt.Errorf("%w: mode %q", domain.ErrUnknownStyle, mode)
}

// ConvertFile renders a single image. A missing input aborts with an error
// wrapping os.ErrNotExist.
func (t *Toolkit) ConvertFile(ctx context.Context, mode Mode, in, out string) error {
	r, err := t.Renderer(mode)
	if err != nil {
		return err
	}
	if err := blueprint.ConvertFile(ctx, in, out, r); err != nil {
		return err
	}
	t.logger.Info("blueprint written", "mode", mode, "input", in, "output", out)
	return nil
}

// ConvertDir renders every file of inDir matching pattern into outDir.
// Per-file failures are reported in the summary, not as an error.
func (t *Toolkit) ConvertDir(ctx context.Context, mode Mode, inDir, outDir, pattern string) (*BatchSummary, error) {
	r, err := t.Renderer(mode)
	if err != nil {
		return nil, err
	}
	files, err := batch.Collect(inDir, pattern)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", outDir, err)
	}

	jobs := make([]batch.Job, len(files))
	for i, f := range files {
		jobs[i] = batch.Job{
			Name:   filepath.Base(f),
			Input:  f,
			Output: blueprint.OutputPathSuffix(outDir, f, t.suffix),
		}
	}

	pool := batch.New(t.workers,
		batch.WithLogger(t.logger),
		batch.WithMetrics(t.metrics),
		batch.WithProgress(t.progress),
		batch.WithKind(string(mode)),
	)
	sum, err := pool.Run(ctx, jobs, func(ctx context.Context, j batch.Job) error {
		return blueprint.ConvertFile(ctx, j.Input, j.Output, r)
	})
	if sum != nil {
		t.logger.Info("batch complete", "mode", mode, "ok", sum.OK, "failed", sum.Failed, "elapsed", sum.Elapsed)
	}
	return sum, err
}

// GenerateEssences writes one icon per catalog variation into dir.
func (t *Toolkit) GenerateEssences(ctx context.Context, dir string, progress func(done, total int)) (*essence.Result, error) {
	opts := []essence.Option{
		essence.WithSize(t.iconSize),
		essence.WithFormat(t.iconFormat),
	}
	if progress != nil {
		opts = append(opts, essence.WithProgress(progress))
	}
	res, err := essence.GenerateAll(ctx, t.variations, dir, opts...)
	if err != nil {
		return res, err
	}
	t.logger.Info("essences written", "dir", dir, "count", len(res.Files))
	return res, nil
}

// AnalyzeSourceKeys audits the catalog's source keys against the frequency
// table at freqPath.
func (t *Toolkit) AnalyzeSourceKeys(freqPath string) (*audit.KeyAnalysis, error) {
	freq, err := audit.LoadFrequencies(freqPath)
	if err != nil {
		return nil, err
	}
	return audit.AnalyzeSourceKeys(t.variations, freq), nil
}

// Package batch applies one stateless transform to many files with a bounded
// number of workers.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mektycoon/mekforge/internal/logging"
	"github.com/mektycoon/mekforge/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers matches the thread count of the original batch tools.
const DefaultWorkers = 4

// Job is one unit of work.
type Job struct {
	Name   string
	Input  string
	Output string
}

// Func processes a job. Returned errors are recorded, not propagated.
type Func func(ctx context.Context, job Job) error

// Result is the outcome of one job.
type Result struct {
	Job      Job
	Err      error
	Duration time.Duration
}

// OK reports whether the job succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Summary aggregates a run. Results are in completion order.
type Summary struct {
	RunID      string
	Total      int
	OK         int
	Failed     int
	Elapsed    time.Duration
	AvgPerItem time.Duration
	Results    []Result
}

// Failures returns the failed results.
func (s *Summary) Failures() []Result {
	var out []Result
	for _, r := range s.Results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// ProgressFunc is called after each job with its 1-based completion index.
type ProgressFunc func(done, total int, r Result)

// FormatProgress renders the per-item progress line.
func FormatProgress(done, total int, r Result) string {
	status := "OK"
	if !r.OK() {
		status = "FAIL"
	}
	return fmt.Sprintf("[%4d/%d] %s %s", done, total, status, r.Job.Name)
}

// Pool runs jobs concurrently.
type Pool struct {
	workers  int
	kind     string
	logger   *slog.Logger
	metrics  *Metrics
	progress ProgressFunc
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used for per-item failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// WithMetrics records every item in m.
func WithMetrics(m *Metrics) Option {
	return func(p *Pool) { p.metrics = m }
}

// WithProgress registers a progress callback. Calls are serialised.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pool) { p.progress = fn }
}

// WithKind labels the metrics of this pool ("blueprint", "essence").
func WithKind(kind string) Option {
	return func(p *Pool) { p.kind = kind }
}

// New returns a pool of the given size. Non-positive sizes use
// DefaultWorkers.
func New(workers int, opts ...Option) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	p := &Pool{workers: workers, kind: "job", logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Workers returns the pool size.
func (p *Pool) Workers() int { return p.workers }

// Run applies fn to every job. Per-job errors are logged and counted; Run
// itself only fails when jobs is empty or ctx is cancelled, in which case
// no further jobs are started and the partial summary is returned. Jobs
// that stop with the context's error after cancellation are left out of
// the summary.
func (p *Pool) Run(ctx context.Context, jobs []Job, fn Func) (*Summary, error) {
	if len(jobs) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	sum := &Summary{RunID: uuid.NewString(), Total: len(jobs), Results: make([]Result, 0, len(jobs))}
	log := p.logger.With("run", sum.RunID, "kind", p.kind)
	log.Debug("batch started", "jobs", len(jobs), "workers", p.workers)

	var mu sync.Mutex
	record := func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		sum.Results = append(sum.Results, r)
		if r.OK() {
			sum.OK++
		} else {
			sum.Failed++
			log.Warn("item failed", "file", r.Job.Input, "err", r.Err)
		}
		p.metrics.observe(p.kind, r.Err, r.Duration)
		if p.progress != nil {
			p.progress(len(sum.Results), sum.Total, r)
		}
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			t := time.Now()
			err := fn(gctx, job)
			if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				log.Debug("item cancelled", "file", job.Input)
				return nil
			}
			record(Result{Job: job, Err: err, Duration: time.Since(t)})
			return nil
		})
	}
	_ = g.Wait()

	sum.Elapsed = time.Since(start)
	if n := len(sum.Results); n > 0 {
		sum.AvgPerItem = sum.Elapsed / time.Duration(n)
	}
	log.Debug("batch finished", "ok", sum.OK, "failed", sum.Failed, "elapsed", sum.Elapsed)
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}

// Collect returns the files in dir whose base name matches pattern, sorted.
func Collect(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = domain.DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(out)
	return out, nil
}

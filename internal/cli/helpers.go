// Package cli holds the command runners behind cmd/mekforge.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mektycoon/mekforge/internal/config"
	"github.com/mektycoon/mekforge/internal/logging"
	"github.com/mektycoon/mekforge/internal/presentation/tui"
)

// Env carries what every runner needs.
type Env struct {
	Config  *config.Config
	Logger  *slog.Logger
	Printer *tui.Printer
	Quiet   bool
}

// NewEnv builds an Env writing reports to out. Debug overrides the
// configured log level.
func NewEnv(cfg *config.Config, out io.Writer, debug, quiet bool) *Env {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Env{
		Config:  cfg,
		Logger:  createLogger(cfg.LogLevel, debug),
		Printer: tui.NewPrinter(out),
		Quiet:   quiet,
	}
}

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger.
// It writes to Stderr (to separate from Stdout reports).
func createLogger(level string, debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return logging.New(lvl)
}

// printSystemMessage prints a standardized system message.
func (e *Env) printSystemMessage(format string, args ...any) {
	if e.Quiet {
		return
	}
	e.Printer.Printf(">>> "+format+"\n", args...)
}

// HandleExecutionError drops interruptions so that Ctrl-C exits with status 0.
func HandleExecutionError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mektycoon/mekforge/pkg/domain"
)

// DefaultDebounce is how long a file must stay quiet before it is handled.
// Image exporters tend to write in several chunks.
const DefaultDebounce = 500 * time.Millisecond

// WatchDir calls fn for every file in dir matching pattern that is created
// or rewritten, once writes have settled for debounce. It returns when ctx
// is done.
func WatchDir(ctx context.Context, dir, pattern string, debounce time.Duration, logger *slog.Logger, fn func(ctx context.Context, path string)) error {
	if pattern == "" {
		pattern = domain.DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logger.Info("Starting Watcher", "path", dir, "pattern", pattern)

	pending := make(map[string]time.Time)
	tick := debounce / 5
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if match, _ := filepath.Match(pattern, filepath.Base(event.Name)); !match {
				continue
			}
			logger.Debug("Change detected", "file", event.Name, "op", event.Op.String())
			pending[event.Name] = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "err", err)

		case <-ticker.C:
			now := time.Now()
			for path, seen := range pending {
				if now.Sub(seen) < debounce {
					continue
				}
				delete(pending, path)
				fn(ctx, path)
			}
		}
	}
}

package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is used when no interval is configured.
const DefaultPollInterval = 5 * time.Second

// Poll calls check every interval until ctx is cancelled.
// Returns ctx.Err() once cancelled.
func Poll(ctx context.Context, interval time.Duration, check func()) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			check()
		}
	}
}

// File signals onChange whenever path may have changed, until ctx is
// cancelled. Native notifications are used when a watcher can be created on
// the file's directory, and the file is also polled every interval since
// network and shared filesystems often deliver no events at all. Without a
// watcher it only polls. Signals can be spurious: callers compare
// modification times themselves.
func File(ctx context.Context, path string, interval time.Duration, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return Poll(ctx, interval, onChange)
	}
	defer watcher.Close()

	// Watch the directory: editors and atomic writers replace the file, which
	// drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return Poll(ctx, interval, onChange)
	}

	return watchEvents(ctx, watcher.Events, watcher.Errors, filepath.Clean(path), interval, onChange)
}

func watchEvents(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, name string, interval time.Duration, onChange func()) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			onChange()

		case event, ok := <-events:
			if !ok {
				return Poll(ctx, interval, onChange)
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			onChange()

		case _, ok := <-errs:
			if !ok {
				return Poll(ctx, interval, onChange)
			}
			// Overflow or similar: the file may have changed without an event
			onChange()
		}
	}
}

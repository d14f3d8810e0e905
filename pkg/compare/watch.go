package compare

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/teslashibe/focuson/internal/log"
	"github.com/teslashibe/focuson/pkg/session"
)

// Watch re-runs the comparison each time a session record lands under dir
// and calls fn with the result. It runs until ctx is cancelled. fn is also
// called once at start. Comparison failures (too few sessions) are passed
// through so the caller can show them.
func Watch(ctx context.Context, dir string, fn func(Summary, error)) error {
	logger := log.Component("compare.watch")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	// Existing session folders, in case a writer is mid-flight.
	if entries, err := os.ReadDir(dir); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				addWatch(watcher, filepath.Join(dir, e.Name()), logger)
			}
		}
	}

	logger.Info("watching sessions", "dir", dir)
	fn(Load(dir))

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

			// A new session folder: watch it for its record, which may
			// already be there.
			if filepath.Dir(event.Name) == filepath.Clean(dir) {
				fi, err := os.Stat(event.Name)
				if err != nil || !fi.IsDir() {
					continue
				}
				addWatch(watcher, event.Name, logger)
				if _, err := os.Stat(filepath.Join(event.Name, session.DataFile)); err != nil {
					continue
				}
			} else if filepath.Base(event.Name) != session.DataFile {
				continue
			}

			s, err := Load(dir)
			if err != nil && !errors.Is(err, ErrTooFewSessions) {
				logger.Warn("reload failed", "error", err)
			}
			fn(s, err)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

// adder is the part of *fsnotify.Watcher that registers paths.
type adder interface {
	Add(name string) error
}

// addWatch registers a session folder and logs a failure at Warn. The
// folder is still picked up by the next reload of dir.
func addWatch(w adder, path string, logger *slog.Logger) bool {
	if err := w.Add(path); err != nil {
		logger.Warn("cannot watch session folder", "path", path, "error", err)
		return false
	}
	return true
}

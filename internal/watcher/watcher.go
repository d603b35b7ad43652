// Package watcher monitors a drop directory for collection CSV exports
// and hands each new or updated file to an import handler.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// quietPeriod is how long a file must be unmodified before it is
// considered fully written and handed off.
const quietPeriod = 1 * time.Second

// Handler receives the path of a CSV file ready to import.
type Handler func(path string)

// Watcher watches one directory for CSV files.
type Watcher struct {
	dir          string
	pollInterval time.Duration
	handler      Handler
	logger       *zap.Logger

	// handled maps a path to the modification time last handed off, so
	// re-exports of the same file trigger a fresh import.
	handled map[string]time.Time
}

// New creates a watcher over dir. pollInterval drives the backup scan
// that catches events the file system fails to deliver.
func New(dir string, pollInterval time.Duration, handler Handler, logger *zap.Logger) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch path %s is not a directory", dir)
	}

	return &Watcher{
		dir:          dir,
		pollInterval: pollInterval,
		handler:      handler,
		logger:       logger,
		handled:      make(map[string]time.Time),
	}, nil
}

// Run watches until the context is cancelled. File system events are
// the primary signal; a polling ticker is kept as backup in case events
// are delayed or missed.
func (w *Watcher) Run(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = fsWatcher.Close() }()

	if err := fsWatcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	w.logger.Info("watching for collection exports", zap.String("dir", w.dir))

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-fsWatcher.Events:
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.scan()
			}
		case err := <-fsWatcher.Errors:
			w.logger.Warn("file watcher error", zap.Error(err))
		case <-ticker.C:
			w.scan()
		}
	}
}

// scan hands off every CSV file in the directory that has settled and
// has not been handled at its current modification time.
func (w *Watcher) scan() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("failed to read watch directory", zap.Error(err))
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		// Skip files still being written.
		if time.Since(info.ModTime()) < quietPeriod {
			continue
		}

		path := filepath.Join(w.dir, entry.Name())
		if last, ok := w.handled[path]; ok && !info.ModTime().After(last) {
			continue
		}

		w.handled[path] = info.ModTime()
		w.logger.Info("collection export detected", zap.String("path", path))
		w.handler(path)
	}
}

// Package watch imports files dropped into a watched directory.
// Each created or modified file is imported through the retrieval
// service under its content-addressed id, so repeated writes of the
// same bytes are harmless.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Watcher observes one directory and imports changed files.
type Watcher struct {
	retrieval driving.RetrievalService
	dir       string
}

// New creates a watcher over dir backed by retrieval.
func New(retrieval driving.RetrievalService, dir string) (*Watcher, error) {
	if dir == "" {
		return nil, fmt.Errorf("watch directory cannot be empty")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	return &Watcher{retrieval: retrieval, dir: dir}, nil
}

// Run watches until the context is cancelled. Import failures are
// logged and watching continues; only watcher-level failures stop it.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	logger.Info("Watching %s for imports", w.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if skip(event.Name) {
				continue
			}

			logger.Debug("Change detected: %s", event.Name)
			if _, _, err := w.retrieval.ImportFile(ctx, event.Name); err != nil {
				logger.Warn("Import of %s failed: %v", event.Name, err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// skip filters hidden files, temp files and directories.
func skip(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return true
	}
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return info.IsDir()
}

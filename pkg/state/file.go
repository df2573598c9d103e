package state

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"llmhub/gateway/pkg/config"
)

// FileSource loads configuration from a YAML file and reloads it on change.
type FileSource struct {
	path   string
	store  *Store
	logger *slog.Logger
}

// NewFileSource builds a source for the given path.
func NewFileSource(path string, store *Store, logger *slog.Logger) *FileSource {
	return &FileSource{path: path, store: store, logger: logger}
}

// Load reads, parses, and installs the file's configuration.
func (f *FileSource) Load(ctx context.Context) error {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", f.path, err)
	}
	cfg, err := config.Parse(raw)
	if err != nil {
		return err
	}
	return f.store.Apply(ctx, raw, cfg)
}

// Watch reloads the file whenever it changes, until the context ends. The
// watch is on the parent directory so editors that replace the file
// (rename-over-write) keep triggering events. A failed reload is logged and
// the live snapshot stays in place.
func (f *FileSource) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting config watcher: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(f.path)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := f.Load(ctx); err != nil {
					f.logger.Error("config reload failed, keeping live snapshot",
						"path", f.path, "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.logger.Error("config watcher error", "error", err)
			}
		}
	}()
	return nil
}

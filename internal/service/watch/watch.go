// Package watch announces new overlay images to live viewers as soon as they
// land on disk, whoever wrote them.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"beecam/internal/dto"
	"beecam/internal/logger"
	"beecam/internal/service/query"
)

// Publisher accepts live events.
type Publisher interface {
	Publish(event dto.LiveEvent)
}

// Watcher maps filesystem events below an artifact root onto the virtual
// paths served by /sd.
type Watcher struct {
	root   string
	hub    Publisher
	logger *logger.Logger
}

// New creates a Watcher for the artifact root directory on the host.
func New(root string, hub Publisher, logger *logger.Logger) *Watcher {
	return &Watcher{root: filepath.Clean(root), hub: hub, logger: logger}
}

// Run watches the given virtual directories until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, dirs ...string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range dirs {
		if err := watcher.Add(w.hostPath(dir)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	w.logger.Info("Watching %d overlay directories", len(dirs))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Rename) == 0 || !query.IsImage(ev.Name) {
				continue
			}
			if p, ok := w.virtualPath(ev.Name); ok {
				w.hub.Publish(dto.LiveEvent{Type: dto.EventFile, Path: p})
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warning("Overlay watcher error: %v", err)
		}
	}
}

func (w *Watcher) hostPath(virtual string) string {
	return filepath.Join(w.root, filepath.FromSlash(strings.TrimPrefix(virtual, "/")))
}

func (w *Watcher) virtualPath(host string) (string, bool) {
	rel, err := filepath.Rel(w.root, host)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return "/" + filepath.ToSlash(rel), true
}

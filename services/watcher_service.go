package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// UploadsWatcher keeps the index consistent when files disappear from the
// uploads directory outside the API, e.g. a manual rm. It reacts only to
// Remove and Rename events; uploads through the API index their own files,
// so Create and Write events are ignored.
type UploadsWatcher struct {
	lifecycle *LifecycleManager
	logger    *zap.Logger
}

// NewUploadsWatcher creates a watcher over the manager's uploads directory.
func NewUploadsWatcher(lifecycle *LifecycleManager, logger *zap.Logger) *UploadsWatcher {
	return &UploadsWatcher{
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// Watch blocks until the context is cancelled, purging index records for
// files removed from the uploads directory.
func (w *UploadsWatcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	dir := w.lifecycle.UploadsDir()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info("watching uploads directory", zap.String("dir", dir))

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(event.Name)
			if !IsSupportedFile(name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				// API uploads index their own files; a create without one is
				// drift that stays un-indexed until re-uploaded.
				w.logger.Debug("file appeared in uploads directory", zap.String("name", name))
				continue
			}
			// Rename is usually reported instead of Remove when a file is
			// moved away.
			if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			deleted, err := w.lifecycle.RemoveVectors(ctx, name)
			if err != nil {
				w.logger.Warn("failed to purge chunks for removed file",
					zap.String("name", name),
					zap.Error(err),
				)
				continue
			}
			w.logger.Info("purged chunks for externally removed file",
				zap.String("name", name),
				zap.Int("chunks_deleted", deleted),
			)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))

		case <-ctx.Done():
			return nil
		}
	}
}

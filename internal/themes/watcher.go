package themes

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// EventCallback is called after a watcher-driven cache invalidation.
// kind is one of "created", "updated", "deleted"; id is the theme id.
type EventCallback func(kind, id string)

// Watch starts an fsnotify watcher on the themes directory and drops the
// store's listing cache whenever a .css file changes, until ctx is
// cancelled. It calls cb (if non-nil) after each invalidation so an open
// UI can refresh its theme list.
func Watch(ctx context.Context, store *Store, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(store.Dir()); err != nil {
		return err
	}
	logger.Info("themes watcher: started", slog.String("dir", store.Dir()))

	for {
		select {
		case <-ctx.Done():
			logger.Info("themes watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if !strings.EqualFold(filepath.Ext(name), ".css") {
				continue
			}
			store.Invalidate()

			kind := "updated"
			switch {
			case ev.Op&fsnotify.Create != 0:
				kind = "created"
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				kind = "deleted"
			}
			id := strings.TrimSuffix(name, filepath.Ext(name))
			logger.Debug("themes watcher: change",
				slog.String("id", id), slog.String("op", kind))
			if cb != nil {
				cb(kind, id)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("themes watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

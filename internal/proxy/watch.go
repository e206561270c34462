package proxy

import (
	"context"
	"path/filepath"
	"time"

	"ytcollector-go/internal/constants"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// WatchFile forces a pool refresh whenever path changes. The parent directory
// is watched so editors that replace the file atomically are picked up.
// It returns once the watcher is installed; watching stops with ctx.
func WatchFile(ctx context.Context, pool *Pool, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	clean := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(clean)); err != nil {
		_ = watcher.Close()
		return err
	}
	log.WithField("path", clean).Info("proxy pool: watching file for changes")

	go func() {
		defer watcher.Close()
		var debounce *time.Timer
		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
		}()
		for {
			select {
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != clean {
					continue
				}
				if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(constants.ProxyWatchDebounce, func() {
					if err := pool.Refresh(ctx, true); err != nil {
						log.WithError(err).Warn("proxy pool: reload after file change failed")
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("proxy file watcher error")
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

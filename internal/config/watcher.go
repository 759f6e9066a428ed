package config

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the configuration file and calls cb with the freshly
// loaded configuration after each change, until ctx is cancelled. The
// parent directory is watched so editors that replace the file atomically
// are still seen. Reloads are debounced; a reload that fails validation is
// logged and dropped, keeping the previous configuration in effect.
func Watch(ctx context.Context, path string, logger *log.Logger, cb func(Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Printf("Watching configuration file %s", path)

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time
	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			return nil

		case <-reloadCh:
			cfg, err := Load(path)
			if err != nil {
				logger.Printf("Ignoring configuration change: %v", err)
				continue
			}
			cb(cfg)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Printf("Configuration watcher error: %v", err)
		}
	}
}

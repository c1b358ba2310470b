package hotword

import (
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow is the default reload delay for the hotword table
// lifecycle: the file watcher waits this long after the last write event
// before reloading, so an editor that writes a file in several chunks
// doesn't trigger a reload per chunk.
const debounceWindow = 5 * time.Second

// WatchFiles watches zh/en/rule files (any may be empty) and reloads the
// engine after debounceWindow of quiet following a write. The reload
// goroutine runs until the returned watcher is closed; WatchFiles returns an
// error only if the fsnotify watcher fails to start, and never returns one
// for a missing file: fsnotify cannot watch a path that does not exist yet,
// so operators must pre-create an empty file if they want hot-word support
// before their first edit.
func WatchFiles(engine *Engine, log *slog.Logger, zhPath, enPath, rulePath string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	paths := []string{zhPath, enPath, rulePath}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := w.Add(p); err != nil {
			log.Warn("hotword: cannot watch file", "path", p, "err", err)
		}
	}

	go func() {
		var timer *time.Timer
		reload := func() {
			if err := engine.LoadFiles(zhPath, enPath, rulePath); err != nil {
				log.Warn("hotword: reload failed", "err", err)
				return
			}
			log.Info("hotword: tables reloaded")
		}
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounceWindow, reload)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("hotword: watch error", "err", err)
			}
		}
	}()

	return w, nil
}

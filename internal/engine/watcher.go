package engine

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// watcher observes the save root for payload files touched outside the
// engine (external tools, manual edits, copied-in saves) so the
// metadata cache never serves stale sidecars for them.
type watcher struct {
	fs   *fsnotify.Watcher
	done chan struct{}
	once sync.Once
}

// StartWatcher begins watching the storage root. It is optional; call
// StopWatcher or Close to stop it.
func (e *Engine) StartWatcher() error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fs.Add(e.store.Root()); err != nil {
		fs.Close()
		return err
	}
	e.watcher = &watcher{fs: fs, done: make(chan struct{})}
	go e.watchLoop(e.watcher)
	e.log.WithField("dir", e.store.Root()).Info("watching save directory")
	return nil
}

// StopWatcher stops the directory watcher if one is running.
func (e *Engine) StopWatcher() {
	if e.watcher == nil {
		return
	}
	e.watcher.once.Do(func() {
		close(e.watcher.done)
		e.watcher.fs.Close()
	})
}

func (e *Engine) watchLoop(w *watcher) {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			e.handleWatchEvent(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			e.log.WithError(err).Warn("save directory watcher error")
		}
	}
}

func (e *Engine) handleWatchEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if !strings.HasSuffix(name, ".sav") {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	slot := strings.TrimSuffix(name, ".sav")
	e.store.InvalidateMetadata(slot)

	// The engine's own writes also land here; only flag the rest.
	if e.recentlyWritten(slot) {
		e.log.WithField("slot", slot).Debug("save file event from engine write")
		return
	}
	e.log.WithFields(logrus.Fields{
		"slot": slot,
		"op":   event.Op.String(),
	}).Warn("save file changed outside the engine")
}

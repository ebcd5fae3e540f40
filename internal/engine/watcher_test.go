package engine

import (
	"testing"

	"github.com/fsnotify/fsnotify"
)

// TestWatcherLifecycle verifies start and (repeated) stop are clean
func TestWatcherLifecycle(t *testing.T) {
	eng := newTestEngine(t, newFakeProvider())

	if err := eng.StartWatcher(); err != nil {
		t.Fatalf("StartWatcher failed: %v", err)
	}
	eng.StopWatcher()
	eng.StopWatcher() // must be safe to call twice
}

// TestHandleWatchEventFiltering verifies only payload files are considered
func TestHandleWatchEventFiltering(t *testing.T) {
	eng := newTestEngine(t, newFakeProvider())

	// None of these should panic or misfire; non-payload files and
	// chmod-only events are ignored.
	eng.handleWatchEvent(fsnotify.Event{Name: "/saves/readme.txt", Op: fsnotify.Write})
	eng.handleWatchEvent(fsnotify.Event{Name: "/saves/slot1.sav", Op: fsnotify.Chmod})
	eng.handleWatchEvent(fsnotify.Event{Name: "/saves/slot1.sav", Op: fsnotify.Write})
	eng.handleWatchEvent(fsnotify.Event{Name: "/saves/slot1.sav.tmp", Op: fsnotify.Write})
}

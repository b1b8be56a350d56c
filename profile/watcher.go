package profile

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/t4euyoon/interceptor/hotkey"
	"github.com/t4euyoon/interceptor/internal/workerutil"
)

// reloadDebounce coalesces the bursts of write events editors emit while
// saving a file.
const reloadDebounce = 200 * time.Millisecond

// Watcher hot-reloads a profile file. On every change the file is reloaded
// and re-applied: old handles are unregistered, new ones registered. A
// malformed edit keeps the previous bindings active and logs the error.
//
// Thread-safety: Close may be called from any goroutine; reloads run on the
// watcher's own goroutine.
type Watcher struct {
	path    string
	reg     Registrar
	actions map[string]hotkey.Callback

	fw   *fsnotify.Watcher
	done <-chan struct{}

	mu      sync.Mutex
	handles []hotkey.Handle

	closeOnce sync.Once
}

// Watch loads and applies the profile at path, then keeps it in sync with
// edits until Close. The initial load must succeed; later failures only
// log.
func Watch(path string, reg Registrar, actions map[string]hotkey.Callback) (*Watcher, error) {
	p, err := Load(path)
	if err != nil {
		return nil, err
	}
	handles, err := p.Apply(reg, actions)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		rollbackHandles(reg, handles)
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory, not the file: editors replace files on save and
	// a file watch dies with the old inode.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		rollbackHandles(reg, handles)
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{path: path, reg: reg, actions: actions, fw: fw, handles: handles}
	w.done = workerutil.Go("profile-watcher", w.loop)
	return w, nil
}

// Handles returns the currently registered handles.
func (w *Watcher) Handles() []hotkey.Handle {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]hotkey.Handle, len(w.handles))
	copy(out, w.handles)
	return out
}

// Close stops watching and unregisters the active bindings. Idempotent.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.fw.Close()
		<-w.done
		w.mu.Lock()
		handles := w.handles
		w.handles = nil
		w.mu.Unlock()
		rollbackHandles(w.reg, handles)
	})
	return err
}

func (w *Watcher) loop() {
	var pending <-chan time.Time
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(reloadDebounce)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			slog.Warn("[profile] watcher error", "error", err)
		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

// reload swaps the active bindings for the file's current content. The old
// bindings stay registered until the new profile both parses and applies,
// so a broken edit never leaves the program without its hotkeys.
func (w *Watcher) reload() {
	p, err := Load(w.path)
	if err != nil {
		slog.Warn("[profile] reload failed, keeping previous bindings",
			"path", w.path, "error", err)
		return
	}
	handles, err := p.Apply(w.reg, w.actions)
	if err != nil {
		slog.Warn("[profile] apply failed, keeping previous bindings",
			"path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	old := w.handles
	w.handles = handles
	w.mu.Unlock()
	rollbackHandles(w.reg, old)

	slog.Info("[profile] reloaded", "path", w.path, "bindings", len(handles))
}

func rollbackHandles(reg Registrar, handles []hotkey.Handle) {
	for _, h := range handles {
		reg.Unregister(h)
	}
}

package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce batches rapid rewrites of the data file.
const watchDebounce = 500 * time.Millisecond

// Watcher signals when the flat-file store changes on disk, so a long-running
// process can reload state written by another one. Signals are debounced and
// deduplicated by content hash; a rewrite with identical bytes stays silent.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	events  chan struct{}
	done    chan struct{}

	mu      sync.Mutex
	lastSum string
	timer   *time.Timer
	stopped bool
}

// NewWatcher starts watching the store file at path.
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	// Watch the directory: saves replace the file by rename, which would
	// drop a watch installed on the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch store directory: %w", err)
	}

	w := &Watcher{
		path:    path,
		watcher: fw,
		events:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	if sum, err := fileChecksum(path); err == nil {
		w.lastSum = sum
	}

	go w.loop()
	return w, nil
}

// Events delivers one signal per detected external change. The channel never
// blocks the watcher; pending signals coalesce.
func (w *Watcher) Events() <-chan struct{} { return w.events }

// MarkSeen records the file's current content hash without signalling, so a
// save made by this process is not reported back as an external change.
func (w *Watcher) MarkSeen() {
	sum, err := fileChecksum(w.path)
	if err != nil {
		return
	}
	w.mu.Lock()
	w.lastSum = sum
	w.mu.Unlock()
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("store watch error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(watchDebounce, w.emit)
}

// emit signals only when the content actually changed since last seen.
func (w *Watcher) emit() {
	sum, err := fileChecksum(w.path)
	if err != nil {
		return
	}

	w.mu.Lock()
	if w.stopped || sum == w.lastSum {
		w.mu.Unlock()
		return
	}
	w.lastSum = sum
	w.mu.Unlock()

	select {
	case w.events <- struct{}{}:
	default:
	}
}

func fileChecksum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return checksum(data), nil
}

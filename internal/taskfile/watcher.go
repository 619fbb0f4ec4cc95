package taskfile

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codetrek/workforce/internal/logging"
	"github.com/codetrek/workforce/internal/task"
)

// debounceWindow coalesces the burst of events editors emit for one save.
const debounceWindow = 50 * time.Millisecond

// Watcher re-reads a tasks file on change and submits entries appended
// since the last read. Entries are identified by position: the file is
// append-only from the watcher's point of view, and edits above the
// high-water mark are ignored.
type Watcher struct {
	path    string
	submit  func([]task.Spec) error
	logger  *logging.Logger
	watcher *fsnotify.Watcher

	mu        sync.Mutex
	submitted int // entries already handed to submit

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Watch starts watching the tasks file. submitted is the number of entries
// the caller already submitted from the initial read.
func Watch(path string, submitted int, submit func([]task.Spec) error, logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: editors replace files on save,
	// which drops a direct file watch.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:      path,
		submit:    submit,
		logger:    logger,
		watcher:   fw,
		submitted: submitted,
		stopCh:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Stop stops watching. Idempotent.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
	})
}

func (w *Watcher) loop() {
	debounce := time.NewTimer(0)
	<-debounce.C

	dirty := false

	for {
		select {
		case <-w.stopCh:
			return

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
			dirty = true
			debounce.Reset(debounceWindow)

		case <-debounce.C:
			if !dirty {
				continue
			}
			dirty = false
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("tasks file watch error", "path", w.path, "error", err)
		}
	}
}

// reload re-reads the file and submits entries past the high-water mark.
func (w *Watcher) reload() {
	f, err := Load(w.path)
	if err != nil {
		w.logger.Warn("tasks file reload failed", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	specs := f.Specs()
	if len(specs) <= w.submitted {
		return
	}
	fresh := specs[w.submitted:]

	if err := w.submit(fresh); err != nil {
		w.logger.Warn("appended tasks rejected", "path", w.path, "count", len(fresh), "error", err)
		return
	}
	w.submitted = len(specs)
	w.logger.Info("appended tasks submitted", "path", w.path, "count", len(fresh))
}

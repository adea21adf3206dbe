package source

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is used when a watcher is created with no delay.
const DefaultDebounce = 100 * time.Millisecond

// Watcher signals when a single file changes.
//
// The parent directory is watched rather than the file, so generators that
// replace the file by renaming a temporary file over it are still seen.
// Bursts of events within the debounce delay produce one signal.
type Watcher struct {
	path   string
	delay  time.Duration
	logger *zap.Logger

	watcher *fsnotify.Watcher
	changes chan struct{}
	errors  chan error

	mu       sync.Mutex
	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// NewWatcher starts watching path.
func NewWatcher(path string, delay time.Duration, logger *zap.Logger) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    absPath,
		delay:   delay,
		logger:  logger.Named("watcher"),
		watcher: fsw,
		changes: make(chan struct{}, 1),
		errors:  make(chan error, 10),
		closeCh: make(chan struct{}),
	}

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Changes receives one value per debounced burst of changes. Pending
// signals are coalesced, so a slow reader never sees a backlog.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Errors returns the error channel.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops the watcher. Both channels are closed afterwards.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.closedWg.Wait()

	close(w.changes)
	close(w.errors)

	return w.watcher.Close()
}

// processLoop filters fsnotify events for the file and debounces them.
func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("file event", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case w.changes <- struct{}{}:
			default:
				// A signal is already pending.
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Debug("watch error", zap.Error(err))
			select {
			case w.errors <- err:
			default:
				// Channel full, drop error
			}
		}
	}
}

// relevant reports whether ev changes the watched file's content.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) ||
		ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename)
}

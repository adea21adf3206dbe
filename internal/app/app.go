// Package app runs the candleterm viewer: it polls a chart source, renders
// the text into the terminal, and reacts to keys, resizes and file changes.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/candleterm/internal/config"
	"github.com/dshills/candleterm/internal/renderer"
	"github.com/dshills/candleterm/internal/renderer/backend"
	"github.com/dshills/candleterm/internal/renderer/statusline"
	"github.com/dshills/candleterm/internal/source"
)

// Application is the viewer. All drawing happens on the goroutine that
// calls Run.
type Application struct {
	mu sync.Mutex

	cfg      *config.Config
	src      source.Source
	logger   *zap.Logger
	renderer *renderer.EscapeRenderer
	status   *statusline.StatusLine
	backend  *backend.BufferedBackend
	now      func() time.Time

	// Frame state, owned by the Run goroutine.
	text       string
	haveText   bool
	lastUpdate time.Time
	lastErr    error
	stale      bool

	running   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// New creates an application that renders text from src.
// cfg should already be validated.
func New(cfg *config.Config, src source.Source, logger *zap.Logger) *Application {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Application{
		cfg:      cfg,
		src:      src,
		logger:   logger.Named("app"),
		renderer: renderer.NewEscapeRenderer(),
		status:   statusline.New(src.Name(), cfg.StatusStyle(), cfg.ErrorStyle()),
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// SetBackend sets the terminal backend.
// Must be called before Run().
func (app *Application) SetBackend(b backend.Backend) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.running.Load() {
		return ErrAlreadyRunning
	}

	app.backend = backend.NewBufferedBackend(b)
	return nil
}

// Run starts the main loop and blocks until the user quits, ctx is done,
// or Shutdown is called. A normal exit returns nil.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	app.mu.Lock()
	b := app.backend
	app.mu.Unlock()
	if b == nil {
		return &InitError{Component: "backend", Err: ErrNoBackend}
	}

	if err := b.Init(); err != nil {
		return &InitError{Component: "backend", Err: err}
	}

	events := make(chan backend.Event, 16)
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go app.pollEvents(b, events, stop, &wg)
	defer func() {
		close(stop)
		b.Shutdown()
		wg.Wait()
	}()

	changes := app.startWatcher()
	if changes.watcher != nil {
		defer changes.watcher.Close()
	}

	ticker := time.NewTicker(app.cfg.Refresh.Interval.Std())
	defer ticker.Stop()

	app.logger.Info("started",
		zap.String("source", app.src.Name()),
		zap.Duration("interval", app.cfg.Refresh.Interval.Std()),
		zap.Bool("truecolor", b.HasTrueColor()))

	app.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-app.done:
			return nil

		case <-ticker.C:
			app.refresh(ctx)

		case _, ok := <-changes.ch:
			if !ok {
				changes.ch = nil
				continue
			}
			app.logger.Debug("source changed")
			app.refresh(ctx)
			ticker.Reset(app.cfg.Refresh.Interval.Std())

		case err, ok := <-changes.errs:
			if !ok {
				changes.errs = nil
				continue
			}
			app.handleWatchError(ctx, err)

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := app.handleEvent(ctx, ev); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				return err
			}
		}
	}
}

// watch holds the optional file watcher and its channels.
type watch struct {
	watcher *source.Watcher
	ch      <-chan struct{}
	errs    <-chan error
}

// startWatcher watches a file source when configured. Failure to watch is
// logged and polling continues.
func (app *Application) startWatcher() watch {
	if !app.cfg.Source.Watch {
		return watch{}
	}
	fs, ok := app.src.(*source.FileSource)
	if !ok {
		return watch{}
	}
	w, err := source.NewWatcher(fs.Path(), app.cfg.Source.Debounce.Std(), app.logger)
	if err != nil {
		app.logger.Warn("file watch disabled", zap.String("path", fs.Path()), zap.Error(err))
		return watch{}
	}
	return watch{watcher: w, ch: w.Changes(), errs: w.Errors()}
}

// pollEvents forwards backend events until the backend shuts down.
// Events the viewer does not handle are dropped here.
func (app *Application) pollEvents(b backend.Backend, events chan<- backend.Event, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	defer close(events)

	for {
		ev := b.PollEvent()
		switch ev.Type {
		case backend.EventNone:
			return
		case backend.EventUnknown:
			continue
		}
		select {
		case events <- ev:
		case <-stop:
			return
		}
	}
}

// Shutdown stops a running application. It is safe to call more than once
// and from any goroutine.
func (app *Application) Shutdown() {
	app.closeOnce.Do(func() {
		close(app.done)
	})

	app.mu.Lock()
	b := app.backend
	app.mu.Unlock()
	if b != nil && app.running.Load() {
		b.PostEvent(backend.Event{Type: backend.EventInterrupt})
	}
}

// IsRunning returns true if the application is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

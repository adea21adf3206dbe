package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/dshills/candleterm/internal/renderer/backend"
)

// handleEvent processes a backend event.
// Returns ErrQuit if the application should exit.
func (app *Application) handleEvent(ctx context.Context, ev backend.Event) error {
	switch ev.Type {
	case backend.EventKey:
		return app.handleKey(ctx, ev)
	case backend.EventResize:
		app.handleResize(ev)
	}
	return nil
}

// handleKey maps keys to actions: q, Esc and Ctrl-C quit; r refreshes and
// Ctrl-L refreshes with a full repaint.
func (app *Application) handleKey(ctx context.Context, ev backend.Event) error {
	switch ev.Key {
	case backend.KeyEscape, backend.KeyCtrlC:
		return ErrQuit
	case backend.KeyCtrlL:
		app.backend.MarkFullRedraw()
		app.refresh(ctx)
	case backend.KeyRune:
		switch ev.Rune {
		case 'q', 'Q':
			return ErrQuit
		case 'r', 'R':
			app.refresh(ctx)
		}
	}
	return nil
}

// handleWatchError logs a file watch failure and refreshes, since a
// change may have been lost with it.
func (app *Application) handleWatchError(ctx context.Context, err error) {
	app.logger.Warn("watch error", zap.Error(err))
	app.refresh(ctx)
}

// handleResize redraws the cached text at the new size.
func (app *Application) handleResize(ev backend.Event) {
	app.logger.Debug("resize", zap.Int("width", ev.Width), zap.Int("height", ev.Height))
	app.backend.Resize(ev.Width, ev.Height)
	buf := app.backend.Buffer()
	buf.Clear()
	buf.MarkFullRedraw()
	app.redraw(app.logger)
}

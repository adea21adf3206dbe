package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/candleterm/internal/ansi"
	"github.com/dshills/candleterm/internal/config"
	"github.com/dshills/candleterm/internal/renderer/backend"
	"github.com/dshills/candleterm/internal/renderer/core"
	"github.com/dshills/candleterm/internal/renderer/statusline"
)

// refresh fetches new text and redraws the screen.
func (app *Application) refresh(ctx context.Context) {
	frame := uuid.NewString()
	log := app.logger.With(zap.String("frame", frame))

	fctx, cancel := context.WithTimeout(ctx, app.cfg.Refresh.Timeout.Std())
	text, err := app.src.Fetch(fctx)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn("fetch failed", zap.Error(err))
		app.lastErr = err
		app.stale = app.haveText
		if app.cfg.Render.OnError == config.OnErrorShow {
			app.drawError(err)
		}
		app.drawStatus()
		app.backend.Show()
		return
	}

	app.text = text
	app.haveText = true
	app.lastUpdate = app.now()
	app.lastErr = nil
	app.stale = false

	log.Debug("fetched", zap.Int("bytes", len(text)))
	app.redraw(log)
}

// redraw renders the cached text into the chart area and shows it.
func (app *Application) redraw(log *zap.Logger) {
	if app.haveText {
		if err := app.drawChart(app.text); err != nil {
			log.Warn("render failed", zap.Error(err), zap.String("policy", app.cfg.Render.OnError))
			app.lastErr = err
			app.applyPolicy(err)
		}
	}
	app.drawStatus()
	app.backend.Show()
}

// applyPolicy handles a render failure according to render.on_error.
func (app *Application) applyPolicy(err error) {
	switch app.cfg.Render.OnError {
	case config.OnErrorPlain:
		if perr := app.drawChart(ansi.Strip(app.text)); perr != nil {
			app.stale = true
		}
	case config.OnErrorShow:
		app.drawError(err)
	default:
		app.stale = true
	}
}

// chartArea returns the margin-inset area of a width x height screen.
func (app *Application) chartArea(width, height int) core.ScreenRect {
	return core.RectFromSize(0, 0, height, width).
		Margin(app.cfg.Layout.MarginVertical, app.cfg.Layout.MarginHorizontal)
}

// drawChart renders text into a scratch frame and copies it to the back
// buffer only when rendering succeeded, so a failure leaves the previous
// frame in place. Columns right of the area are copied up to the screen
// edge because text is clipped at the screen width.
func (app *Application) drawChart(text string) error {
	buf := app.backend.Buffer()
	width, height := buf.Size()
	area := app.chartArea(width, height)

	frame := backend.NewScreenBuffer(width, height)
	if err := app.renderer.Render(text, frame, area); err != nil {
		return err
	}

	for y := area.Top; y < area.Bottom; y++ {
		for x := area.Left; x < width; x++ {
			buf.SetCell(x, y, frame.GetCell(x, y))
		}
	}
	return nil
}

// drawError replaces the chart area with the error message.
func (app *Application) drawError(err error) {
	buf := app.backend.Buffer()
	width, height := buf.Size()
	area := app.chartArea(width, height)

	buf.ClearRegion(core.NewScreenRect(area.Top, area.Left, area.Bottom, width))
	style := app.cfg.ErrorStyle()
	for i, line := range strings.Split(err.Error(), "\n") {
		if area.Top+i >= area.Bottom {
			break
		}
		buf.SetString(area.Left, area.Top+i, line, style)
	}
}

// drawStatus writes the status line into the top margin row.
func (app *Application) drawStatus() {
	if !app.cfg.Render.StatusLine || app.cfg.Layout.MarginVertical < 1 {
		return
	}
	if app.haveText {
		app.status.SetUpdated(app.lastUpdate)
	}
	app.status.SetStale(app.stale)
	if app.lastErr != nil {
		app.status.SetMessage(app.lastErr.Error(), statusline.MessageError)
	} else {
		app.status.ClearMessage()
	}
	app.status.Render(app.backend.Buffer(), 0, app.cfg.Layout.MarginHorizontal)
}

// RenderOnce fetches the source once and renders it into a new screen
// buffer of the given size with no margins or status line. With the plain
// policy a render failure falls back to the stripped text; otherwise the
// error is returned.
func (app *Application) RenderOnce(ctx context.Context, width, height int) (*backend.ScreenBuffer, error) {
	fctx, cancel := context.WithTimeout(ctx, app.cfg.Refresh.Timeout.Std())
	defer cancel()

	text, err := app.src.Fetch(fctx)
	if err != nil {
		return nil, err
	}

	buf := backend.NewScreenBuffer(width, height)
	area := core.RectFromSize(0, 0, height, width)
	if err := app.renderer.Render(text, buf, area); err != nil {
		if app.cfg.Render.OnError != config.OnErrorPlain {
			return nil, fmt.Errorf("render %s: %w", app.src.Name(), err)
		}
		app.logger.Warn("render failed, showing plain text", zap.Error(err))
		if err := app.renderer.Render(ansi.Strip(text), buf, area); err != nil {
			return nil, fmt.Errorf("render %s: %w", app.src.Name(), err)
		}
	}
	return buf, nil
}

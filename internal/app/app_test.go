package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dshills/candleterm/internal/config"
	"github.com/dshills/candleterm/internal/renderer"
	"github.com/dshills/candleterm/internal/renderer/backend"
	"github.com/dshills/candleterm/internal/renderer/core"
	"github.com/dshills/candleterm/internal/renderer/statusline"
	"github.com/dshills/candleterm/internal/source"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// scriptSource returns its responses in order and then repeats the last one.
type scriptSource struct {
	mu    sync.Mutex
	texts []string
	errs  []error
	calls int
}

func (s *scriptSource) Name() string { return "script" }

func (s *scriptSource) Fetch(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := min(s.calls, len(s.texts)-1)
	s.calls++
	if s.errs != nil && s.errs[i] != nil {
		return "", &source.FetchError{Source: "script", Err: s.errs[i]}
	}
	return s.texts[i], nil
}

func (s *scriptSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Source.Path = "chart.txt"
	cfg.Refresh.Interval = config.Duration(time.Hour)
	cfg.Refresh.Timeout = config.Duration(time.Second)
	return cfg
}

// rowText reads row y of the null backend.
func rowText(b *backend.NullBackend, y int) string {
	w, _ := b.Size()
	var sb strings.Builder
	for x := 0; x < w; x++ {
		sb.WriteString(b.GetCell(x, y).Text())
	}
	return strings.TrimRight(sb.String(), " ")
}

// startApp runs app in the background and returns a function that waits
// for Run to return.
func startApp(t *testing.T, app *Application) func() error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- app.Run(context.Background()) }()

	require.Eventually(t, app.IsRunning, waitFor, tick)
	t.Cleanup(app.Shutdown)

	return func() error {
		select {
		case err := <-errCh:
			return err
		case <-time.After(waitFor):
			t.Fatal("Run did not return")
			return nil
		}
	}
}

func TestRunRendersInsideMargins(t *testing.T) {
	src := &scriptSource{texts: []string{"\x1b[1mBULL\x1b[0m up\nline two"}}
	null := backend.NewNullBackend(40, 10)

	app := New(testConfig(), src, zap.NewNop())
	require.NoError(t, app.SetBackend(null))
	wait := startApp(t, app)

	require.Eventually(t, func() bool { return rowText(null, 1) == "  BULL up" }, waitFor, tick)
	assert.Equal(t, "  line two", rowText(null, 2))
	assert.True(t, null.GetCell(2, 1).Style.Attributes.Has(core.AttrBold))
	assert.False(t, null.GetCell(6, 1).Style.Attributes.Has(core.AttrBold))

	status := rowText(null, 0)
	assert.Contains(t, status, "script")
	assert.Contains(t, status, "updated")

	null.PostEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: 'q'})
	assert.NoError(t, wait())
	assert.False(t, app.IsRunning())
}

func TestRunQuitKeys(t *testing.T) {
	keys := []backend.Event{
		{Type: backend.EventKey, Key: backend.KeyEscape},
		{Type: backend.EventKey, Key: backend.KeyCtrlC},
		{Type: backend.EventKey, Key: backend.KeyRune, Rune: 'Q'},
	}

	for _, ev := range keys {
		null := backend.NewNullBackend(20, 5)
		app := New(testConfig(), &scriptSource{texts: []string{"x"}}, nil)
		require.NoError(t, app.SetBackend(null))
		wait := startApp(t, app)

		null.PostEvent(ev)
		assert.NoError(t, wait())
	}
}

func TestRunContextCancel(t *testing.T) {
	null := backend.NewNullBackend(20, 5)
	app := New(testConfig(), &scriptSource{texts: []string{"x"}}, nil)
	require.NoError(t, app.SetBackend(null))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- app.Run(ctx) }()
	require.Eventually(t, app.IsRunning, waitFor, tick)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Run did not return after cancel")
	}
}

func TestShutdown(t *testing.T) {
	null := backend.NewNullBackend(20, 5)
	app := New(testConfig(), &scriptSource{texts: []string{"x"}}, nil)
	require.NoError(t, app.SetBackend(null))
	wait := startApp(t, app)

	app.Shutdown()
	app.Shutdown()
	assert.NoError(t, wait())
}

func TestRunErrors(t *testing.T) {
	app := New(testConfig(), &scriptSource{texts: []string{"x"}}, nil)
	err := app.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoBackend)

	var ie *InitError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "backend", ie.Component)
}

func TestSetBackendWhileRunning(t *testing.T) {
	null := backend.NewNullBackend(20, 5)
	app := New(testConfig(), &scriptSource{texts: []string{"x"}}, nil)
	require.NoError(t, app.SetBackend(null))
	wait := startApp(t, app)

	assert.ErrorIs(t, app.SetBackend(backend.NewNullBackend(1, 1)), ErrAlreadyRunning)
	assert.ErrorIs(t, app.Run(context.Background()), ErrAlreadyRunning)

	app.Shutdown()
	assert.NoError(t, wait())
}

func TestRunIgnoresUnknownEvents(t *testing.T) {
	src := &scriptSource{texts: []string{"one", "two"}}
	null := backend.NewNullBackend(20, 5)
	app := New(testConfig(), src, nil)
	require.NoError(t, app.SetBackend(null))
	wait := startApp(t, app)

	require.Eventually(t, func() bool { return rowText(null, 1) == "  one" }, waitFor, tick)

	null.PostEvent(backend.Event{Type: backend.EventUnknown})
	null.PostEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: 'r'})
	require.Eventually(t, func() bool { return rowText(null, 1) == "  two" }, waitFor, tick)
	assert.True(t, app.IsRunning())

	null.PostEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: 'q'})
	assert.NoError(t, wait())
}

func TestRefreshKeys(t *testing.T) {
	src := &scriptSource{texts: []string{"one", "two", "three"}}
	null := backend.NewNullBackend(20, 5)
	app := New(testConfig(), src, nil)
	require.NoError(t, app.SetBackend(null))
	startApp(t, app)

	require.Eventually(t, func() bool { return rowText(null, 1) == "  one" }, waitFor, tick)

	null.PostEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: 'r'})
	require.Eventually(t, func() bool { return rowText(null, 1) == "  two" }, waitFor, tick)

	null.PostEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyCtrlL})
	require.Eventually(t, func() bool { return rowText(null, 1) == "  three" }, waitFor, tick)
	assert.Equal(t, 3, src.Calls())
}

func TestRefreshOnTick(t *testing.T) {
	src := &scriptSource{texts: []string{"a", "b"}}
	cfg := testConfig()
	cfg.Refresh.Interval = config.Duration(20 * time.Millisecond)

	null := backend.NewNullBackend(20, 5)
	app := New(cfg, src, nil)
	require.NoError(t, app.SetBackend(null))
	startApp(t, app)

	require.Eventually(t, func() bool { return rowText(null, 1) == "  b" }, waitFor, tick)
}

func TestResizeRedraws(t *testing.T) {
	src := &scriptSource{texts: []string{"resize me"}}
	null := backend.NewNullBackend(20, 5)
	app := New(testConfig(), src, nil)
	require.NoError(t, app.SetBackend(null))
	startApp(t, app)

	require.Eventually(t, func() bool { return rowText(null, 1) == "  resize me" }, waitFor, tick)
	shows := null.ShowCount()

	null.Resize(30, 8)
	require.Eventually(t, func() bool {
		return null.ShowCount() > shows && rowText(null, 1) == "  resize me"
	}, waitFor, tick)
	assert.Equal(t, 1, src.Calls(), "resize re-renders from the cached text")
}

func TestRenderFailurePolicies(t *testing.T) {
	good := "\x1b[1mgood"
	bad := "\x1b[99mbad"

	tests := []struct {
		policy string
		check  func(t *testing.T, null *backend.NullBackend)
	}{
		{config.OnErrorKeep, func(t *testing.T, null *backend.NullBackend) {
			assert.Equal(t, "  good", rowText(null, 1))
			assert.Contains(t, rowText(null, 0), "stale")
		}},
		{config.OnErrorPlain, func(t *testing.T, null *backend.NullBackend) {
			assert.Equal(t, "  bad", rowText(null, 1))
			assert.True(t, null.GetCell(2, 1).Style.IsDefault())
		}},
		{config.OnErrorShow, func(t *testing.T, null *backend.NullBackend) {
			assert.Contains(t, rowText(null, 1), "unsupported graphics attribute")
			assert.True(t, null.GetCell(2, 1).Style.Attributes.Has(core.AttrBold))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			cfg := testConfig()
			cfg.Render.OnError = tt.policy

			src := &scriptSource{texts: []string{good, bad}}
			null := backend.NewNullBackend(120, 5)
			app := New(cfg, src, nil)
			require.NoError(t, app.SetBackend(null))
			startApp(t, app)

			require.Eventually(t, func() bool { return rowText(null, 1) == "  good" }, waitFor, tick)
			shows := null.ShowCount()

			null.PostEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: 'r'})
			require.Eventually(t, func() bool { return null.ShowCount() > shows }, waitFor, tick)

			assert.Contains(t, rowText(null, 0), "unsupported graphics attribute")
			tt.check(t, null)
		})
	}
}

func TestFetchFailure(t *testing.T) {
	boom := errors.New("exchange offline")

	for _, policy := range []string{config.OnErrorKeep, config.OnErrorShow} {
		t.Run(policy, func(t *testing.T) {
			cfg := testConfig()
			cfg.Render.OnError = policy

			src := &scriptSource{texts: []string{"price 1", ""}, errs: []error{nil, boom}}
			null := backend.NewNullBackend(120, 5)
			app := New(cfg, src, nil)
			require.NoError(t, app.SetBackend(null))
			startApp(t, app)

			require.Eventually(t, func() bool { return rowText(null, 1) == "  price 1" }, waitFor, tick)
			shows := null.ShowCount()

			null.PostEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: 'r'})
			require.Eventually(t, func() bool { return null.ShowCount() > shows }, waitFor, tick)

			assert.Contains(t, rowText(null, 0), "exchange offline")
			if policy == config.OnErrorKeep {
				assert.Equal(t, "  price 1", rowText(null, 1))
				assert.Contains(t, rowText(null, 0), "stale")
			} else {
				assert.Contains(t, rowText(null, 1), "exchange offline")
			}
		})
	}
}

func TestStatusLineDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Render.StatusLine = false

	null := backend.NewNullBackend(20, 5)
	app := New(cfg, &scriptSource{texts: []string{"x"}}, nil)
	require.NoError(t, app.SetBackend(null))
	startApp(t, app)

	require.Eventually(t, func() bool { return rowText(null, 1) == "  x" }, waitFor, tick)
	assert.Empty(t, rowText(null, 0))
}

func TestWatchTriggersRefresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.txt")
	require.NoError(t, os.WriteFile(path, []byte("before"), 0o644))

	cfg := testConfig()
	cfg.Source.Path = path
	cfg.Source.Watch = true
	cfg.Source.Debounce = config.Duration(20 * time.Millisecond)

	null := backend.NewNullBackend(30, 5)
	app := New(cfg, source.NewFileSource(path), nil)
	require.NoError(t, app.SetBackend(null))
	startApp(t, app)

	require.Eventually(t, func() bool { return rowText(null, 1) == "  before" }, waitFor, tick)

	require.NoError(t, os.WriteFile(path, []byte("after"), 0o644))
	require.Eventually(t, func() bool { return rowText(null, 1) == "  after" }, waitFor, tick)
}

func TestWatchErrorRefreshes(t *testing.T) {
	src := &scriptSource{texts: []string{"before", "after"}}
	null := backend.NewNullBackend(30, 5)
	app := New(testConfig(), src, nil)
	require.NoError(t, app.SetBackend(null))
	require.NoError(t, app.backend.Init())

	app.refresh(context.Background())
	assert.Equal(t, "  before", rowText(null, 1))

	app.handleWatchError(context.Background(), errors.New("event queue overflow"))
	assert.Equal(t, 2, src.Calls())
	assert.Equal(t, "  after", rowText(null, 1))
}

func TestRenderOnce(t *testing.T) {
	src := &scriptSource{texts: []string{"\x1b[38;5;196mX\x1b[0m and\n世界"}}
	app := New(testConfig(), src, nil)

	buf, err := app.RenderOnce(context.Background(), 20, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"X and", "世界", ""}, buf.Lines())
	assert.Equal(t, core.ColorFromIndex(196), buf.GetCell(0, 0).Style.Foreground)
}

func TestRenderOnceErrors(t *testing.T) {
	src := &scriptSource{texts: []string{"ok \x1b[2Jthere"}}

	app := New(testConfig(), src, nil)
	_, err := app.RenderOnce(context.Background(), 20, 3)
	assert.ErrorIs(t, err, renderer.ErrUnsupportedEscapeSequence)

	cfg := testConfig()
	cfg.Render.OnError = config.OnErrorPlain
	buf, err := New(cfg, src, nil).RenderOnce(context.Background(), 20, 3)
	require.NoError(t, err)
	assert.Equal(t, "ok there", buf.Lines()[0])

	failing := &scriptSource{texts: []string{""}, errs: []error{errors.New("down")}}
	_, err = New(testConfig(), failing, nil).RenderOnce(context.Background(), 20, 3)
	var fe *source.FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestStatusLineAfterFetch(t *testing.T) {
	null := backend.NewNullBackend(80, 5)
	app := New(testConfig(), &scriptSource{texts: []string{"x"}}, nil)
	app.now = func() time.Time { return time.Date(2026, 1, 2, 9, 30, 5, 0, time.Local) }
	require.NoError(t, app.SetBackend(null))
	startApp(t, app)

	require.Eventually(t, func() bool {
		return strings.HasPrefix(rowText(null, 0), "  script · updated 09:30:05")
	}, waitFor, tick)
	assert.Contains(t, rowText(null, 0), statusline.DefaultHint)
}

func TestInitErrorMessage(t *testing.T) {
	err := &InitError{Component: "backend", Err: errors.New("no tty")}
	assert.Equal(t, "initialize backend: no tty", err.Error())
	assert.Equal(t, "no tty", errors.Unwrap(err).Error())
}

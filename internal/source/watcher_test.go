package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDebounce = 30 * time.Millisecond

func newTestWatcher(t *testing.T) (*Watcher, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "chart.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	w, err := NewWatcher(path, testDebounce, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w, path
}

func waitChange(t *testing.T, w *Watcher, timeout time.Duration) bool {
	t.Helper()
	select {
	case _, ok := <-w.Changes():
		return ok
	case <-time.After(timeout):
		return false
	}
}

func TestWatcherWrite(t *testing.T) {
	w, path := newTestWatcher(t)
	assert.Equal(t, path, w.Path())

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	assert.True(t, waitChange(t, w, 2*time.Second), "expected a change signal")
}

func TestWatcherCoalescesBurst(t *testing.T) {
	w, path := newTestWatcher(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0o644))
	}

	assert.True(t, waitChange(t, w, 2*time.Second))
	assert.False(t, waitChange(t, w, 10*testDebounce), "burst should produce one signal")
}

func TestWatcherRenameOver(t *testing.T) {
	w, path := newTestWatcher(t)

	tmp := filepath.Join(filepath.Dir(path), ".chart.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("v2"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	assert.True(t, waitChange(t, w, 2*time.Second))
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	w, path := newTestWatcher(t)

	other := filepath.Join(filepath.Dir(path), "other.txt")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))

	assert.False(t, waitChange(t, w, 10*testDebounce))
}

func TestWatcherClose(t *testing.T) {
	w, _ := newTestWatcher(t)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, ok := <-w.Changes()
	assert.False(t, ok, "changes channel closed")
}

func TestNewWatcherMissingDir(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "nope", "chart.txt"), 0, nil)
	assert.Error(t, err)
}

package statusline

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/candleterm/internal/renderer/backend"
	"github.com/dshills/candleterm/internal/renderer/core"
)

var (
	plain  = core.DefaultStyle()
	errSty = core.DefaultStyle().WithForeground(core.ColorFromRGB(0xEF, 0x53, 0x50)).Bold()
)

func TestText(t *testing.T) {
	updated := time.Date(2026, 1, 2, 9, 30, 5, 0, time.UTC)

	tests := []struct {
		name  string
		setup func(s *StatusLine)
		want  string
	}{
		{"waiting", func(s *StatusLine) {}, "btc.txt · waiting for data"},
		{"updated", func(s *StatusLine) { s.SetUpdated(updated) }, "btc.txt · updated 09:30:05"},
		{"stale", func(s *StatusLine) {
			s.SetUpdated(updated)
			s.SetStale(true)
		}, "btc.txt · updated 09:30:05 · stale"},
		{"message not in text", func(s *StatusLine) { s.SetMessage("boom", MessageError) }, "btc.txt · waiting for data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("btc.txt", plain, errSty)
			tt.setup(s)
			assert.Equal(t, tt.want, s.Text())
		})
	}
}

func TestRender(t *testing.T) {
	buf := backend.NewScreenBuffer(80, 2)
	buf.SetString(0, 0, "old status text that should go away", plain)

	s := New("btc.txt", plain, errSty)
	s.SetMessage("fetch failed\nsecond line", MessageError)
	s.Render(buf, 0, 2)

	row := buf.Row(0)
	assert.True(t, len(row) > 2 && row[:2] == "  ")
	assert.Contains(t, row, "btc.txt · waiting for data · fetch failed")
	assert.NotContains(t, row, "second line")
	assert.NotContains(t, row, "old status")
	assert.Contains(t, row, DefaultHint)

	msgX := 2 + core.StringWidth("btc.txt · waiting for data · ")
	assert.Equal(t, errSty, buf.GetCell(msgX, 0).Style)
	assert.Equal(t, plain, buf.GetCell(2, 0).Style)
}

func TestRenderTruncatesMessage(t *testing.T) {
	buf := backend.NewScreenBuffer(40, 1)
	s := New("btc.txt", plain, errSty)
	s.SetMessage("exchange offline, retrying in 15s", MessageError)
	s.Render(buf, 0, 2)

	row := buf.Lines()[0]
	assert.Equal(t, "  btc.txt · waiting for data · exchan…", row)
	assert.Equal(t, 38, core.StringWidth(row))
	assert.NotContains(t, row, "q quit")
}

func TestRenderHintNeedsSeparatorGap(t *testing.T) {
	// The hint fits only with a full separator's display width before it.
	text := "src · waiting for data"
	hintWidth := core.StringWidth(DefaultHint)
	sepWidth := core.StringWidth(Separator)

	tests := []struct {
		width    int
		wantHint bool
	}{
		{core.StringWidth(text) + sepWidth + hintWidth + 1, true},
		{core.StringWidth(text) + sepWidth + hintWidth, false},
	}

	for _, tt := range tests {
		buf := backend.NewScreenBuffer(tt.width, 1)
		New("src", plain, errSty).Render(buf, 0, 0)
		assert.Equal(t, tt.wantHint, strings.Contains(buf.Lines()[0], DefaultHint), "width %d", tt.width)
	}
}

func TestRenderHintPlacement(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		hint     string
		wantHint bool
	}{
		{"fits", 60, DefaultHint, true},
		{"too narrow", 30, DefaultHint, false},
		{"hidden", 60, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := backend.NewScreenBuffer(tt.width, 1)
			s := New("btc.txt", plain, errSty)
			s.SetHint(tt.hint)
			s.Render(buf, 0, 1)

			row := buf.Lines()[0]
			if tt.wantHint {
				assert.Equal(t, tt.width-1, core.StringWidth(row))
				assert.Contains(t, row, tt.hint)
			} else {
				assert.NotContains(t, row, "q quit")
			}
		})
	}
}

func TestClearMessage(t *testing.T) {
	buf := backend.NewScreenBuffer(40, 1)
	s := New("src", plain, errSty)
	s.SetHint("")
	s.SetMessage("info", MessageInfo)
	s.Render(buf, 0, 0)
	assert.Equal(t, "src · waiting for data · info", buf.Lines()[0])

	s.ClearMessage()
	s.Render(buf, 0, 0)
	assert.Equal(t, "src · waiting for data", buf.Lines()[0])
}

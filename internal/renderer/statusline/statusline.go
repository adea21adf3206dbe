// Package statusline renders the one-row status bar above the chart.
package statusline

import (
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/dshills/candleterm/internal/renderer/backend"
	"github.com/dshills/candleterm/internal/renderer/core"
)

// Separator separates status bar fields.
const Separator = " · "

const ellipsis = "…"

// DefaultHint is the key help shown at the right edge.
const DefaultHint = "r refresh · q quit"

// MessageType indicates the type of status message.
type MessageType int

const (
	MessageNone MessageType = iota
	MessageInfo
	MessageError
)

// StatusLine holds the state shown in the status bar.
type StatusLine struct {
	source    string
	updated   time.Time
	hasUpdate bool
	stale     bool

	message     string
	messageType MessageType

	hint       string
	style      core.Style
	errorStyle core.Style
}

// New creates a status line for the named source.
func New(source string, style, errorStyle core.Style) *StatusLine {
	return &StatusLine{
		source:     source,
		hint:       DefaultHint,
		style:      style,
		errorStyle: errorStyle,
	}
}

// SetUpdated records the time of the last successful fetch.
func (s *StatusLine) SetUpdated(t time.Time) {
	s.updated = t
	s.hasUpdate = true
}

// SetStale marks the displayed frame as older than the last attempt.
func (s *StatusLine) SetStale(stale bool) {
	s.stale = stale
}

// SetHint replaces the right-aligned key help. Empty hides it.
func (s *StatusLine) SetHint(hint string) {
	s.hint = hint
}

// SetMessage displays a message after the status fields. Only the first
// line of msg is shown.
func (s *StatusLine) SetMessage(msg string, msgType MessageType) {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	s.message = msg
	s.messageType = msgType
}

// ClearMessage clears the status message.
func (s *StatusLine) ClearMessage() {
	s.message = ""
	s.messageType = MessageNone
}

// Text returns the status fields without the message.
func (s *StatusLine) Text() string {
	parts := []string{s.source}
	if s.hasUpdate {
		parts = append(parts, "updated "+s.updated.Format("15:04:05"))
	} else {
		parts = append(parts, "waiting for data")
	}
	if s.stale {
		parts = append(parts, "stale")
	}
	return strings.Join(parts, Separator)
}

// Render clears row and draws the status bar starting at column left,
// keeping the same margin on the right. The hint is drawn only when the
// whole bar fits; otherwise the message is truncated at the margin.
func (s *StatusLine) Render(buf *backend.ScreenBuffer, row, left int) {
	width, _ := buf.Size()
	buf.ClearRegion(core.NewScreenRect(row, 0, row+1, width))

	text := s.Text()
	buf.SetString(left, row, text, s.style)
	col := left + core.StringWidth(text)
	end := width - left

	var msg string
	if s.message != "" {
		msg = Separator + s.message
	}
	msgWidth := core.StringWidth(msg)

	hintWidth := core.StringWidth(s.hint)
	showHint := s.hint != "" && end-hintWidth > col+msgWidth+core.StringWidth(Separator)

	if msg != "" && end > col {
		buf.SetString(col, row, runewidth.Truncate(msg, end-col, ellipsis), s.messageStyle())
	}
	if showHint {
		buf.SetString(end-hintWidth, row, s.hint, s.style)
	}
}

func (s *StatusLine) messageStyle() core.Style {
	if s.messageType == MessageError {
		return s.errorStyle
	}
	return s.style
}

package backend

import (
	"slices"
	"strings"

	"github.com/dshills/candleterm/internal/renderer/core"
)

// ScreenBuffer provides double-buffered rendering with change tracking.
// It maintains two buffers: front (displayed) and back (drawing).
// On sync, it computes the diff and only updates changed cells.
type ScreenBuffer struct {
	width, height int
	front         [][]core.Cell
	back          [][]core.Cell
	dirty         [][]bool
	fullRedraw    bool
}

// NewScreenBuffer creates a screen buffer with the given dimensions.
func NewScreenBuffer(width, height int) *ScreenBuffer {
	sb := &ScreenBuffer{
		width:      max(width, 0),
		height:     max(height, 0),
		fullRedraw: true,
	}
	sb.allocate()
	return sb
}

// allocate creates the internal buffers.
func (sb *ScreenBuffer) allocate() {
	sb.front = newCells(sb.width, sb.height)
	sb.back = newCells(sb.width, sb.height)
	sb.dirty = make([][]bool, sb.height)
	for y := range sb.dirty {
		sb.dirty[y] = make([]bool, sb.width)
	}
}

// Resize resizes the buffer, preserving content where possible.
func (sb *ScreenBuffer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	if width == sb.width && height == sb.height {
		return
	}

	oldBack := sb.back
	copyHeight := min(sb.height, height)
	copyWidth := min(sb.width, width)

	sb.width = width
	sb.height = height
	sb.allocate()

	for y := 0; y < copyHeight; y++ {
		copy(sb.back[y][:copyWidth], oldBack[y][:copyWidth])
	}

	sb.fullRedraw = true
}

// Size returns the buffer dimensions.
func (sb *ScreenBuffer) Size() (width, height int) {
	return sb.width, sb.height
}

// SetCell sets a cell in the back buffer.
func (sb *ScreenBuffer) SetCell(x, y int, cell core.Cell) {
	if x < 0 || x >= sb.width || y < 0 || y >= sb.height {
		return
	}
	sb.back[y][x] = cell
	sb.dirty[y][x] = true
}

// GetCell returns a cell from the back buffer.
func (sb *ScreenBuffer) GetCell(x, y int) core.Cell {
	if x < 0 || x >= sb.width || y < 0 || y >= sb.height {
		return core.EmptyCell()
	}
	return sb.back[y][x]
}

// Fill fills a rectangle with the given cell.
func (sb *ScreenBuffer) Fill(rect core.ScreenRect, cell core.Cell) {
	for y := max(rect.Top, 0); y < rect.Bottom && y < sb.height; y++ {
		for x := max(rect.Left, 0); x < rect.Right && x < sb.width; x++ {
			sb.back[y][x] = cell
			sb.dirty[y][x] = true
		}
	}
}

// Clear clears the back buffer with empty cells.
func (sb *ScreenBuffer) Clear() {
	sb.Fill(core.RectFromSize(0, 0, sb.height, sb.width), core.EmptyCell())
}

// ClearRegion clears a rectangular region.
func (sb *ScreenBuffer) ClearRegion(rect core.ScreenRect) {
	sb.Fill(rect, core.EmptyCell())
}

// SetString writes a string with the given style starting at the position.
// Text is placed one grapheme cluster per cell; wide clusters are followed
// by a continuation cell. Writing stops at the right edge, and a wide
// cluster that does not fit is not drawn.
func (sb *ScreenBuffer) SetString(x, y int, s string, style core.Style) {
	if y < 0 || y >= sb.height {
		return
	}
	col := x
	for _, g := range core.Graphemes(s) {
		if col >= sb.width {
			break
		}
		if g.Width == 0 {
			continue
		}
		if col < 0 {
			col += g.Width
			continue
		}
		if col+g.Width > sb.width {
			break
		}

		var comb []rune
		if len(g.Runes) > 1 {
			comb = slices.Clone(g.Runes[1:])
		}
		sb.back[y][col] = core.Cell{
			Rune:  g.Runes[0],
			Comb:  comb,
			Width: g.Width,
			Style: style,
		}
		sb.dirty[y][col] = true
		col++

		for i := 1; i < g.Width; i++ {
			sb.back[y][col] = core.ContinuationCell()
			sb.dirty[y][col] = true
			col++
		}
	}
}

// Row returns the text of row y in the back buffer, skipping continuation
// cells. Rows outside the buffer are empty.
func (sb *ScreenBuffer) Row(y int) string {
	if y < 0 || y >= sb.height {
		return ""
	}
	var b strings.Builder
	for _, c := range sb.back[y] {
		b.WriteString(c.Text())
	}
	return b.String()
}

// Lines returns every row of the back buffer with trailing blanks removed.
func (sb *ScreenBuffer) Lines() []string {
	lines := make([]string, sb.height)
	for y := range lines {
		lines[y] = strings.TrimRight(sb.Row(y), " ")
	}
	return lines
}

// DiffChange represents a cell change for synchronization.
type DiffChange struct {
	X, Y int
	Cell core.Cell
}

// ComputeDiff returns the changes needed to update the display.
// Returns nil if no changes are needed.
func (sb *ScreenBuffer) ComputeDiff() []DiffChange {
	var changes []DiffChange

	for y := 0; y < sb.height; y++ {
		for x := 0; x < sb.width; x++ {
			if sb.fullRedraw || sb.dirty[y][x] {
				if sb.fullRedraw || !sb.back[y][x].Equals(sb.front[y][x]) {
					changes = append(changes, DiffChange{
						X:    x,
						Y:    y,
						Cell: sb.back[y][x],
					})
				}
			}
		}
	}

	return changes
}

// Sync copies the back buffer to the front buffer and clears dirty flags.
// Call this after applying changes to the backend.
func (sb *ScreenBuffer) Sync() {
	for y := 0; y < sb.height; y++ {
		copy(sb.front[y], sb.back[y])
		clear(sb.dirty[y])
	}
	sb.fullRedraw = false
}

// MarkFullRedraw forces a complete redraw on next sync.
func (sb *ScreenBuffer) MarkFullRedraw() {
	sb.fullRedraw = true
}

// IsDirty returns true if there are pending changes.
func (sb *ScreenBuffer) IsDirty() bool {
	if sb.fullRedraw {
		return true
	}
	for y := 0; y < sb.height; y++ {
		if slices.Contains(sb.dirty[y], true) {
			return true
		}
	}
	return false
}

// BufferedBackend wraps a Backend with double-buffered rendering.
type BufferedBackend struct {
	backend Backend
	buffer  *ScreenBuffer
}

// NewBufferedBackend creates a buffered wrapper around a backend.
func NewBufferedBackend(backend Backend) *BufferedBackend {
	width, height := backend.Size()
	return &BufferedBackend{
		backend: backend,
		buffer:  NewScreenBuffer(width, height),
	}
}

func (b *BufferedBackend) Init() error {
	if err := b.backend.Init(); err != nil {
		return err
	}
	width, height := b.backend.Size()
	b.buffer.Resize(width, height)
	return nil
}

// Resize resizes the back buffer. Callers that draw from a single goroutine
// call it there when they see an EventResize.
func (b *BufferedBackend) Resize(width, height int) {
	b.buffer.Resize(width, height)
}

func (b *BufferedBackend) Shutdown() {
	b.backend.Shutdown()
}

func (b *BufferedBackend) Size() (int, int) {
	return b.buffer.Size()
}

// OnResize registers callback and resizes the back buffer before it runs.
// The callback runs on the backend's event goroutine.
func (b *BufferedBackend) OnResize(callback func(width, height int)) {
	b.backend.OnResize(func(w, h int) {
		b.buffer.Resize(w, h)
		callback(w, h)
	})
}

func (b *BufferedBackend) SetCell(x, y int, cell core.Cell) {
	b.buffer.SetCell(x, y, cell)
}

func (b *BufferedBackend) GetCell(x, y int) core.Cell {
	return b.buffer.GetCell(x, y)
}

func (b *BufferedBackend) Fill(rect core.ScreenRect, cell core.Cell) {
	b.buffer.Fill(rect, cell)
}

func (b *BufferedBackend) Clear() {
	b.buffer.Clear()
}

// Show computes the diff and applies only changed cells to the backend.
func (b *BufferedBackend) Show() {
	changes := b.buffer.ComputeDiff()
	for _, ch := range changes {
		b.backend.SetCell(ch.X, ch.Y, ch.Cell)
	}
	b.buffer.Sync()
	b.backend.Show()
}

func (b *BufferedBackend) PollEvent() Event {
	return b.backend.PollEvent()
}

func (b *BufferedBackend) PostEvent(event Event) {
	b.backend.PostEvent(event)
}

func (b *BufferedBackend) HasTrueColor() bool {
	return b.backend.HasTrueColor()
}

// Buffer returns the underlying screen buffer for direct access.
func (b *BufferedBackend) Buffer() *ScreenBuffer {
	return b.buffer
}

// SetString is a convenience method to write a string.
func (b *BufferedBackend) SetString(x, y int, s string, style core.Style) {
	b.buffer.SetString(x, y, s, style)
}

// MarkFullRedraw forces a complete redraw.
func (b *BufferedBackend) MarkFullRedraw() {
	b.buffer.MarkFullRedraw()
}

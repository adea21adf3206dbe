package renderer

import "github.com/dshills/candleterm/internal/renderer/core"

// Re-exported from core so callers only need this package.
type (
	Color      = core.Color
	Style      = core.Style
	Attribute  = core.Attribute
	Cell       = core.Cell
	ScreenRect = core.ScreenRect
)

// ColorDefault represents the terminal's default color.
var ColorDefault = core.ColorDefault

// DefaultStyle returns the default terminal style.
func DefaultStyle() Style {
	return core.DefaultStyle()
}

// ColorFromRGB creates a true color from RGB components.
func ColorFromRGB(r, g, b uint8) Color {
	return core.ColorFromRGB(r, g, b)
}

// ColorFromIndex creates an indexed palette color.
func ColorFromIndex(index uint8) Color {
	return core.ColorFromIndex(index)
}

// NewScreenRect creates a screen rectangle.
func NewScreenRect(top, left, bottom, right int) ScreenRect {
	return core.NewScreenRect(top, left, bottom, right)
}

// RectFromSize creates a rectangle from position and size.
func RectFromSize(top, left, height, width int) ScreenRect {
	return core.RectFromSize(top, left, height, width)
}

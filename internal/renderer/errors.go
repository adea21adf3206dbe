package renderer

import (
	"errors"
	"fmt"

	"github.com/dshills/candleterm/internal/ansi"
)

// Render errors. Match with errors.Is; a *RenderError carries the position.
var (
	// ErrUnsupportedColorMode is a 38/48 sequence whose mode is not 2 or 5.
	ErrUnsupportedColorMode = errors.New("unsupported color mode")

	// ErrUnsupportedAttribute is a graphics sequence whose leading
	// parameter is not 0, 1, 2, 38 or 48.
	ErrUnsupportedAttribute = errors.New("unsupported graphics attribute")

	// ErrUnsupportedEscapeSequence is any escape other than graphics or reset mode.
	ErrUnsupportedEscapeSequence = errors.New("unsupported escape sequence")

	// ErrMalformedInput is invalid UTF-8, a truncated escape, or a color
	// sequence with missing or out of range components.
	ErrMalformedInput = ansi.ErrMalformedInput
)

// RenderError reports where in the source a render failed.
type RenderError struct {
	Line     int    // Zero-based source line
	Offset   int    // Byte offset within the line
	Sequence string // Offending escape sequence, if any
	Err      error
}

func (e *RenderError) Error() string {
	if e.Sequence != "" {
		return fmt.Sprintf("line %d, byte %d: %v: %q", e.Line+1, e.Offset, e.Err, e.Sequence)
	}
	return fmt.Sprintf("line %d, byte %d: %v", e.Line+1, e.Offset, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

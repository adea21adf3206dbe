package renderer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/candleterm/internal/ansi"
	"github.com/dshills/candleterm/internal/renderer/core"
)

// Grid is a destination surface of styled cells.
// backend.ScreenBuffer and backend.BufferedBackend satisfy it.
type Grid interface {
	// SetString writes s starting at column x of row y.
	SetString(x, y int, s string, style core.Style)

	// Size returns the grid dimensions.
	Size() (width, height int)
}

// TokenizeFunc splits one line into text and escape tokens.
type TokenizeFunc func(line string) ([]ansi.Token, error)

// WidthFunc returns the display width of a text run.
type WidthFunc func(s string) int

// Span is one styled text write produced by planning a render.
type Span struct {
	X, Y  int
	Text  string
	Style core.Style
}

// EscapeRenderer draws text containing SGR escape sequences into a Grid.
//
// Rendering is two-phase: the whole source is decoded into spans first and
// the grid is only written when decoding succeeded, so a failed render
// leaves the grid untouched.
type EscapeRenderer struct {
	tokenize TokenizeFunc
	width    WidthFunc
}

// Option configures an EscapeRenderer.
type Option func(*EscapeRenderer)

// WithTokenizer replaces the escape tokenizer.
func WithTokenizer(f TokenizeFunc) Option {
	return func(r *EscapeRenderer) {
		r.tokenize = f
	}
}

// WithWidthFunc replaces the display width measurement.
func WithWidthFunc(f WidthFunc) Option {
	return func(r *EscapeRenderer) {
		r.width = f
	}
}

// NewEscapeRenderer creates a renderer using ansi.Tokenize and core.StringWidth
// unless overridden.
func NewEscapeRenderer(opts ...Option) *EscapeRenderer {
	r := &EscapeRenderer{
		tokenize: ansi.Tokenize,
		width:    core.StringWidth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultEscapeRenderer = NewEscapeRenderer()

// Render draws source into grid inside rect with the default renderer.
func Render(source string, grid Grid, rect core.ScreenRect) error {
	return defaultEscapeRenderer.Render(source, grid, rect)
}

// Render draws source into grid. Line i goes to row rect.Top+i starting at
// column rect.Left; lines past the bottom of rect are skipped. A text run that
// starts at or beyond the grid width is dropped whole.
//
// On error nothing is written and the error is a *RenderError.
func (r *EscapeRenderer) Render(source string, grid Grid, rect core.ScreenRect) error {
	gridWidth, _ := grid.Size()
	spans, err := r.Plan(source, rect, gridWidth)
	if err != nil {
		return err
	}
	for _, sp := range spans {
		grid.SetString(sp.X, sp.Y, sp.Text, sp.Style)
	}
	return nil
}

// Plan decodes source into the spans Render would write, without touching
// any grid. The running style starts at the default and carries across
// lines until a reset.
func (r *EscapeRenderer) Plan(source string, rect core.ScreenRect, gridWidth int) ([]Span, error) {
	var spans []Span
	style := core.DefaultStyle()

	for i, line := range SplitLines(source) {
		row := rect.Top + i
		if row >= rect.Bottom {
			break
		}

		tokens, err := r.tokenize(line)
		if err != nil {
			re := &RenderError{Line: i, Err: err}
			var se *ansi.SyntaxError
			if errors.As(err, &se) {
				re.Offset = se.Offset
			}
			return nil, re
		}

		col := rect.Left
		for _, tok := range tokens {
			switch tok.Kind {
			case ansi.KindText:
				if col < gridWidth {
					spans = append(spans, Span{X: col, Y: row, Text: tok.Text, Style: style})
					col += r.width(tok.Text)
				}
			case ansi.KindEscape:
				style, err = applyEscape(style, tok.Seq)
				if err != nil {
					return nil, &RenderError{Line: i, Offset: tok.Offset, Sequence: tok.Seq.Raw, Err: err}
				}
			}
		}
	}
	return spans, nil
}

// SplitLines splits source on line feeds. A carriage return before the
// line feed is dropped, and a trailing line feed does not start a new line.
func SplitLines(source string) []string {
	if source == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(source, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// applyEscape returns the style in effect after seq.
func applyEscape(style core.Style, seq ansi.Sequence) (core.Style, error) {
	switch seq.Kind {
	case ansi.SeqGraphics:
		return applyGraphics(style, seq.Params)
	case ansi.SeqResetMode:
		return core.DefaultStyle(), nil
	default:
		return style, ErrUnsupportedEscapeSequence
	}
}

// applyGraphics interprets a graphics sequence. Only the leading parameter
// selects the action.
func applyGraphics(style core.Style, params []int) (core.Style, error) {
	if len(params) == 0 {
		return core.DefaultStyle(), nil
	}

	switch params[0] {
	case 0:
		return core.DefaultStyle(), nil
	case 1:
		return style.Bold(), nil
	case 2:
		return style.NoBold(), nil
	case 38:
		c, err := decodeColor(params)
		if err != nil {
			return style, err
		}
		return style.WithForeground(c), nil
	case 48:
		c, err := decodeColor(params)
		if err != nil {
			return style, err
		}
		return style.WithBackground(c), nil
	default:
		return style, fmt.Errorf("%w: %d", ErrUnsupportedAttribute, params[0])
	}
}

// decodeColor reads an extended color from params[1:]:
// 2;r;g;b is true color and 5;n is a palette index.
func decodeColor(params []int) (core.Color, error) {
	if len(params) < 2 {
		return core.Color{}, fmt.Errorf("%w: missing color mode", ErrMalformedInput)
	}

	switch mode := params[1]; mode {
	case 2:
		if len(params) < 5 {
			return core.Color{}, fmt.Errorf("%w: true color needs 3 components", ErrMalformedInput)
		}
		r, g, b := params[2], params[3], params[4]
		if !isByte(r) || !isByte(g) || !isByte(b) {
			return core.Color{}, fmt.Errorf("%w: color component out of range", ErrMalformedInput)
		}
		return core.ColorFromRGB(uint8(r), uint8(g), uint8(b)), nil
	case 5:
		if len(params) < 3 {
			return core.Color{}, fmt.Errorf("%w: palette color needs an index", ErrMalformedInput)
		}
		if !isByte(params[2]) {
			return core.Color{}, fmt.Errorf("%w: palette index out of range", ErrMalformedInput)
		}
		return core.ColorFromIndex(uint8(params[2])), nil
	default:
		return core.Color{}, fmt.Errorf("%w: %d", ErrUnsupportedColorMode, mode)
	}
}

func isByte(v int) bool {
	return v >= 0 && v <= 255
}

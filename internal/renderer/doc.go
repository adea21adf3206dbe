// Package renderer draws escape-laden chart text onto a grid of styled cells.
//
// The renderer is responsible for:
//   - Splitting the source into lines and placing them inside a region
//   - Tracking the running SGR style across text runs and lines
//   - Advancing the cursor by grapheme display width
//   - Reporting unsupported or malformed escapes as errors
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│      EscapeRenderer (Plan, Render)      │
//	├─────────────────────────────────────────┤
//	│  ansi.Tokenize  │  core.StringWidth     │
//	├─────────────────────────────────────────┤
//	│     Grid (backend.ScreenBuffer, ...)    │
//	├─────────────────────────────────────────┤
//	│  Terminal (tcell) │ NullBackend         │
//	└─────────────────────────────────────────┘
//
// Usage:
//
//	buf := backend.NewScreenBuffer(80, 24)
//	area := renderer.RectFromSize(0, 0, 24, 80).Margin(1, 2)
//	if err := renderer.Render(chart, buf, area); err != nil {
//		// keep the previous frame
//	}
package renderer

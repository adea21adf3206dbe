package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/candleterm/internal/logging"
	"github.com/dshills/candleterm/internal/renderer/core"
)

// Source kinds.
const (
	SourceFile    = "file"
	SourceCommand = "command"
)

// Render failure policies.
const (
	// OnErrorKeep leaves the previous frame on screen.
	OnErrorKeep = "keep"
	// OnErrorPlain redraws the text with escapes stripped.
	OnErrorPlain = "plain"
	// OnErrorShow replaces the frame with the error message.
	OnErrorShow = "error"
)

// Config is the complete candleterm configuration.
type Config struct {
	Refresh RefreshConfig  `toml:"refresh" yaml:"refresh"`
	Layout  LayoutConfig   `toml:"layout" yaml:"layout"`
	Source  SourceConfig   `toml:"source" yaml:"source"`
	Render  RenderConfig   `toml:"render" yaml:"render"`
	Theme   ThemeConfig    `toml:"theme" yaml:"theme"`
	Log     logging.Config `toml:"log" yaml:"log"`
}

// RefreshConfig controls the redraw cycle.
type RefreshConfig struct {
	// Interval is the time between fetches.
	Interval Duration `toml:"interval" yaml:"interval"`
	// Timeout bounds a single fetch.
	Timeout Duration `toml:"timeout" yaml:"timeout"`
}

// LayoutConfig controls placement of the chart on screen.
type LayoutConfig struct {
	MarginVertical   int `toml:"margin_vertical" yaml:"margin_vertical"`
	MarginHorizontal int `toml:"margin_horizontal" yaml:"margin_horizontal"`
}

// SourceConfig selects where chart text comes from.
type SourceConfig struct {
	Kind    string   `toml:"kind" yaml:"kind"`
	Path    string   `toml:"path" yaml:"path"`
	Command string   `toml:"command" yaml:"command"`
	Args    []string `toml:"args" yaml:"args"`

	// Watch redraws as soon as the file changes.
	Watch    bool     `toml:"watch" yaml:"watch"`
	Debounce Duration `toml:"debounce" yaml:"debounce"`
}

// RenderConfig controls failure handling and decorations.
type RenderConfig struct {
	OnError    string `toml:"on_error" yaml:"on_error"`
	StatusLine bool   `toml:"status_line" yaml:"status_line"`
}

// ThemeConfig holds hex colors for the shell's own text.
type ThemeConfig struct {
	StatusFG string `toml:"status_fg" yaml:"status_fg"`
	ErrorFG  string `toml:"error_fg" yaml:"error_fg"`
}

// Duration is a time.Duration written as a Go duration string ("15s").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Refresh: RefreshConfig{
			Interval: Duration(15 * time.Second),
			Timeout:  Duration(10 * time.Second),
		},
		Layout: LayoutConfig{
			MarginVertical:   1,
			MarginHorizontal: 2,
		},
		Source: SourceConfig{
			Kind:     SourceFile,
			Debounce: Duration(100 * time.Millisecond),
		},
		Render: RenderConfig{
			OnError:    OnErrorKeep,
			StatusLine: true,
		},
		Theme: ThemeConfig{
			StatusFG: "#8A8A8A",
			ErrorFG:  "#EF5350",
		},
		Log: logging.DefaultConfig(),
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "candleterm", "config.toml")
}

// Load reads the config file at path on top of the defaults. The decoder is
// chosen by extension. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := decode(path, data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode parses data into cfg, rejecting unknown keys.
func decode(path string, data []byte, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			pe := &ParseError{Path: path, Message: err.Error(), Err: err}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				pe.Line, pe.Column = derr.Position()
			}
			return pe
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document decodes to io.EOF; keep the defaults.
		if err := dec.Decode(cfg); err != nil && len(bytes.TrimSpace(data)) > 0 {
			return &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return nil
}

// Validate checks the configuration for values the application cannot use.
func (c *Config) Validate() error {
	if c.Refresh.Interval <= 0 {
		return &ValidationError{Path: "refresh.interval", Message: "must be positive", Value: c.Refresh.Interval}
	}
	if c.Refresh.Timeout <= 0 {
		return &ValidationError{Path: "refresh.timeout", Message: "must be positive", Value: c.Refresh.Timeout}
	}
	if c.Layout.MarginVertical < 0 {
		return &ValidationError{Path: "layout.margin_vertical", Message: "must not be negative", Value: c.Layout.MarginVertical}
	}
	if c.Layout.MarginHorizontal < 0 {
		return &ValidationError{Path: "layout.margin_horizontal", Message: "must not be negative", Value: c.Layout.MarginHorizontal}
	}

	switch c.Source.Kind {
	case SourceFile:
		if c.Source.Path == "" {
			return &ValidationError{Path: "source.path", Message: "required for file sources", Value: c.Source.Path}
		}
	case SourceCommand:
		if c.Source.Command == "" {
			return &ValidationError{Path: "source.command", Message: "required for command sources", Value: c.Source.Command}
		}
		if c.Source.Watch {
			return &ValidationError{Path: "source.watch", Message: "only file sources can be watched", Value: c.Source.Watch}
		}
	default:
		return &ValidationError{Path: "source.kind", Message: "must be file or command", Value: c.Source.Kind}
	}
	if c.Source.Debounce < 0 {
		return &ValidationError{Path: "source.debounce", Message: "must not be negative", Value: c.Source.Debounce}
	}

	if !slices.Contains([]string{OnErrorKeep, OnErrorPlain, OnErrorShow}, c.Render.OnError) {
		return &ValidationError{Path: "render.on_error", Message: "must be keep, plain or error", Value: c.Render.OnError}
	}

	if _, err := core.ColorFromHex(c.Theme.StatusFG); err != nil {
		return &ValidationError{Path: "theme.status_fg", Message: err.Error(), Value: c.Theme.StatusFG}
	}
	if _, err := core.ColorFromHex(c.Theme.ErrorFG); err != nil {
		return &ValidationError{Path: "theme.error_fg", Message: err.Error(), Value: c.Theme.ErrorFG}
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return &ValidationError{Path: "log.level", Message: "must be debug, info, warn or error", Value: c.Log.Level}
	}
	return nil
}

// StatusStyle returns the style for the status line. Call after Validate.
func (c *Config) StatusStyle() core.Style {
	return themeStyle(c.Theme.StatusFG)
}

// ErrorStyle returns the style for error frames. Call after Validate.
func (c *Config) ErrorStyle() core.Style {
	return themeStyle(c.Theme.ErrorFG).Bold()
}

func themeStyle(hex string) core.Style {
	fg, err := core.ColorFromHex(hex)
	if err != nil {
		return core.DefaultStyle()
	}
	return core.NewStyle(fg)
}

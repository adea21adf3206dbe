package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/candleterm/internal/app"
	"github.com/dshills/candleterm/internal/config"
	"github.com/dshills/candleterm/internal/source"
)

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name  string
		opts  options
		watch bool
		check func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "no flags keeps config",
			opts: options{},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.Default(), cfg)
			},
		},
		{
			name: "file",
			opts: options{file: "btc.txt"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.SourceFile, cfg.Source.Kind)
				assert.Equal(t, "btc.txt", cfg.Source.Path)
			},
		},
		{
			name: "command with args",
			opts: options{command: "  btc-chart  --interval 1h "},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.SourceCommand, cfg.Source.Kind)
				assert.Equal(t, "btc-chart", cfg.Source.Command)
				assert.Equal(t, []string{"--interval", "1h"}, cfg.Source.Args)
				assert.False(t, cfg.Source.Watch)
			},
		},
		{
			name:  "stdin disables watch",
			opts:  options{file: "-"},
			watch: true,
			check: func(t *testing.T, cfg *config.Config) {
				assert.False(t, cfg.Source.Watch)
			},
		},
		{
			name: "interval and log level",
			opts: options{interval: 3 * time.Second, logLevel: "debug"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 3*time.Second, cfg.Refresh.Interval.Std())
				assert.Equal(t, "debug", cfg.Log.Level)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Source.Watch = tt.watch
			require.NoError(t, applyFlags(cfg, tt.opts))
			tt.check(t, cfg)
		})
	}
}

func TestApplyFlagsBlankCommand(t *testing.T) {
	for _, cmd := range []string{" ", "   ", "\t\n"} {
		cfg := config.Default()
		err := applyFlags(cfg, options{command: cmd})
		assert.ErrorIs(t, err, errEmptyCommand, "command %q", cmd)
		assert.Equal(t, config.SourceFile, cfg.Source.Kind)
	}
}

func TestRenderOnceOutput(t *testing.T) {
	cfg := config.Default()
	cfg.Source.Path = "stdin"
	application := app.New(cfg, source.NewStaticSource("stdin", "\x1b[1mBTC\x1b[0m 42\n\n"), nil)

	var out strings.Builder
	code := renderOnce(context.Background(), application, options{width: 10, height: 4}, &out)
	assert.Equal(t, 0, code)
	assert.Equal(t, "BTC 42\n", out.String())
}

// Package logging builds the structured logger shared by candleterm components.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config configures log output.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`

	// File is the log file path. Empty disables file output.
	File string `toml:"file" yaml:"file"`

	// MaxSizeMB is the size in megabytes at which the file is rotated.
	MaxSizeMB  int  `toml:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int  `toml:"max_backups" yaml:"max_backups"`
	MaxAgeDays int  `toml:"max_age_days" yaml:"max_age_days"`
	Compress   bool `toml:"compress" yaml:"compress"`

	// Console also writes human-readable logs to stderr. It must stay off
	// while the terminal UI owns the screen.
	Console bool `toml:"console" yaml:"console"`
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
		Compress:   true,
	}
}

// ParseLevel reports whether s names a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	return zapcore.ParseLevel(s)
}

// New creates a logger from cfg. With neither a file nor console output the
// logger discards everything.
func New(cfg Config) (*zap.Logger, error) {
	return newWithConsole(cfg, os.Stderr)
}

func newWithConsole(cfg Config, console io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core

	if cfg.File != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		})
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			fileWriter,
			level,
		))
	}

	if cfg.Console {
		consoleConfig := encoderConfig
		consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleConfig),
			zapcore.AddSync(console),
			level,
		))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	return zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}

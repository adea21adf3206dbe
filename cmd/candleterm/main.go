// Package main is the entry point for the candleterm chart viewer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dshills/candleterm/internal/app"
	"github.com/dshills/candleterm/internal/config"
	"github.com/dshills/candleterm/internal/logging"
	"github.com/dshills/candleterm/internal/renderer/backend"
	"github.com/dshills/candleterm/internal/source"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// options holds command line flags. Empty values leave the config alone.
type options struct {
	configPath string
	file       string
	command    string
	interval   time.Duration
	logLevel   string
	once       bool
	width      int
	height     int
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	path := opts.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := applyFlags(cfg, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	once := opts.once || !term.IsTerminal(int(os.Stdout.Fd()))

	// The terminal UI owns the screen.
	if !once {
		cfg.Log.Console = false
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	src, err := newSource(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg, src, logger)

	if once {
		return renderOnce(ctx, application, opts, os.Stdout)
	}

	screen, err := backend.NewTerminal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := application.SetBackend(screen); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to set backend: %v\n", err)
		return 1
	}

	if err := application.Run(ctx); err != nil {
		if errors.Is(err, app.ErrQuit) {
			return 0
		}
		logger.Error("run failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// renderOnce prints a single frame as plain text rows.
func renderOnce(ctx context.Context, application *app.Application, opts options, w io.Writer) int {
	buf, err := application.RenderOnce(ctx, opts.width, opts.height)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	lines := buf.Lines()
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return 0
}

// errEmptyCommand is returned when -cmd holds only whitespace.
var errEmptyCommand = errors.New("-cmd: empty command")

// applyFlags overrides config values with the flags that were set.
func applyFlags(cfg *config.Config, opts options) error {
	if opts.file != "" {
		cfg.Source.Kind = config.SourceFile
		cfg.Source.Path = opts.file
	}
	if opts.command != "" {
		fields := strings.Fields(opts.command)
		if len(fields) == 0 {
			return errEmptyCommand
		}
		cfg.Source.Kind = config.SourceCommand
		cfg.Source.Command = fields[0]
		cfg.Source.Args = fields[1:]
		cfg.Source.Watch = false
	}
	if cfg.Source.Kind == config.SourceFile && cfg.Source.Path == "-" {
		cfg.Source.Watch = false
	}
	if opts.interval > 0 {
		cfg.Refresh.Interval = config.Duration(opts.interval)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	return nil
}

// newSource builds the chart source named by cfg. A file path of "-" reads
// standard input once.
func newSource(cfg *config.Config) (source.Source, error) {
	switch cfg.Source.Kind {
	case config.SourceCommand:
		return source.NewCommandSource(cfg.Source.Command, cfg.Source.Args...), nil
	default:
		if cfg.Source.Path != "-" {
			return source.NewFileSource(cfg.Source.Path), nil
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return source.NewStaticSource("stdin", string(data)), nil
	}
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file (.toml, .yaml)")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.file, "file", "", "Chart file to display (- for stdin)")
	flag.StringVar(&opts.file, "f", "", "Chart file to display (shorthand)")
	flag.StringVar(&opts.command, "cmd", "", "Command whose output is the chart")
	flag.DurationVar(&opts.interval, "interval", 0, "Refresh interval (e.g. 15s)")
	flag.DurationVar(&opts.interval, "i", 0, "Refresh interval (shorthand)")
	flag.BoolVar(&opts.once, "once", false, "Render one frame to stdout and exit")
	flag.IntVar(&opts.width, "width", 80, "Frame width for -once")
	flag.IntVar(&opts.height, "height", 24, "Frame height for -once")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "candleterm - terminal chart viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: candleterm [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  candleterm -f chart.txt           Watch a chart file\n")
		fmt.Fprintf(os.Stderr, "  candleterm -cmd 'btc-chart 1h'    Re-run a chart generator\n")
		fmt.Fprintf(os.Stderr, "  some-gen | candleterm -f -        Render stdin once\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("candleterm %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.width < 1 || opts.height < 1 {
		fmt.Fprintf(os.Stderr, "Error: -width and -height must be positive\n")
		os.Exit(1)
	}

	return opts
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ligustah/saturator/internal/config"
	sathttp "github.com/ligustah/saturator/internal/http"
	"github.com/ligustah/saturator/internal/progress"
	"github.com/ligustah/saturator/internal/saturator"
	"github.com/ligustah/saturator/internal/shutdown"
)

// Exit codes
const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitInvalidArgs   = 2
	ExitInvalidConfig = 3
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, config.SplitList(v)...)
	return nil
}

// run parses args, starts the saturation run and blocks until it has shut
// down. Cancelling ctx has the same effect as an interrupt.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, code, err := loadConfig(args, stderr)
	if err != nil {
		return code
	}

	srcs, err := saturator.ParseSources(cfg.Sources, int(cfg.ChunkSize))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidConfig
	}

	logger, err := newLogger(cfg.LogLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidConfig
	}
	defer logger.Sync()

	coord := shutdown.NewCoordinator(shutdown.NewFlag(), shutdown.Options{
		GracePeriod: cfg.GracePeriod,
		Output:      stdout,
		Logger:      logger,
	})
	coord.Notify()
	defer coord.Stop()

	printBanner(coord.Output(), cfg, len(srcs))

	err = saturator.Run(ctx, runOptions(cfg, srcs, coord, logger))
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, saturator.ErrGracePeriodExceeded):
		// Stragglers are abandoned; exit proceeds regardless.
		return ExitSuccess
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
}

// loadConfig builds the validated config from defaults, the optional file,
// the environment and args. On failure it returns the exit code to use;
// for -h that is ExitSuccess with flag.ErrHelp.
func loadConfig(args []string, stderr io.Writer) (config.Config, int, error) {
	fs := flag.NewFlagSet("saturator", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var sources stringList
	configPath := fs.String("config", "", "YAML config file")
	fs.Var(&sources, "source", "Source URL to download from (repeatable, or comma separated)")
	workers := fs.Int("workers", 0, "Concurrent workers per source (default 50)")
	chunkSize := fs.String("chunk-size", "", "Read chunk size, e.g. 2MB (default 2MB)")
	interval := fs.String("interval", "", "Report interval in seconds, e.g. 0.5 (default 1)")
	timeout := fs.Duration("timeout", 0, "Per-attempt timeout (default 10s)")
	pause := fs.Duration("pause", 0, "Pause between attempts, 0 for none (default 100ms)")
	grace := fs.Duration("grace", 0, "Shutdown grace period, at least -timeout (default 10s)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error (default warn)")
	http2 := fs.Bool("http2", false, "Enable HTTP/2")
	forceClose := fs.Bool("force-close", true, "Open a new connection for every request")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: saturator [options]

Saturate the network link by downloading from HTTP sources with many
parallel streams. Downloaded data is discarded. Press Ctrl+C to stop.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return config.Config{}, ExitSuccess, err
		}
		return config.Config{}, ExitInvalidArgs, err
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unexpected arguments: %v", fs.Args())
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fs.Usage()
		return config.Config{}, ExitInvalidArgs, err
	}

	cfg := config.Default()
	if *configPath != "" {
		c, err := config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return config.Config{}, ExitInvalidConfig, err
		}
		cfg = c
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return config.Config{}, ExitInvalidConfig, err
	}

	override := config.Config{
		Sources:          sources,
		WorkersPerSource: *workers,
		Timeout:          *timeout,
		GracePeriod:      *grace,
		LogLevel:         *logLevel,
	}
	if *chunkSize != "" {
		size, err := progress.ParseBytes(*chunkSize)
		if err != nil {
			fmt.Fprintf(stderr, "Invalid chunk size: %v\n", err)
			return config.Config{}, ExitInvalidArgs, err
		}
		override.ChunkSize = size
	}
	if *interval != "" {
		d, err := config.ParseInterval(*interval)
		if err != nil {
			fmt.Fprintf(stderr, "Invalid interval: %v\n", err)
			return config.Config{}, ExitInvalidArgs, err
		}
		override.ReportInterval = d
	}
	cfg = cfg.Merge(override)

	// Merge skips zero values, so flags whose zero value means something
	// are applied only when given.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pause":
			cfg.RetryPause = *pause
		case "http2":
			cfg.HTTP2 = *http2
		case "force-close":
			cfg.ForceClose = *forceClose
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return config.Config{}, ExitInvalidConfig, err
	}
	return cfg, ExitSuccess, nil
}

// runOptions maps cfg onto the saturation run.
func runOptions(cfg config.Config, srcs []saturator.Source, coord *shutdown.Coordinator, logger *zap.SugaredLogger) saturator.Options {
	// A zero pause in config means no pause; the pool reads zero as default.
	pause := cfg.RetryPause
	if pause == 0 {
		pause = saturator.NoPause
	}

	return saturator.Options{
		Sources:          srcs,
		WorkersPerSource: cfg.WorkersPerSource,
		HTTPOptions: sathttp.Options{
			MaxIdleConnsPerHost: cfg.WorkersPerSource,
			Timeout:             cfg.Timeout,
			HTTP2:               cfg.HTTP2,
			ForceClose:          cfg.ForceClose,
			UserAgent:           "saturator",
		},
		RetryPause:     pause,
		ReportInterval: cfg.ReportInterval,
		Coordinator:    coord,
		Logger:         logger,
	}
}

func newLogger(level string, w io.Writer) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()

	lvl, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	cfg.Level = lvl

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg.EncoderConfig),
		zapcore.Lock(zapcore.AddSync(w)),
		cfg.Level,
	)
	return zap.New(core).Sugar(), nil
}

func printBanner(w io.Writer, cfg config.Config, sources int) {
	line := strings.Repeat("=", 70)
	fmt.Fprintf(w, "\033[1;91m%s\n", line)
	fmt.Fprintln(w, "   SATURATOR - Network Bandwidth Saturation")
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "\033[1;93m   SOURCES: %d\n", sources)
	fmt.Fprintf(w, "   WORKERS PER SOURCE: %d\n", cfg.WorkersPerSource)
	fmt.Fprintf(w, "   TOTAL PARALLEL CONNECTIONS: %d\n", sources*cfg.WorkersPerSource)
	fmt.Fprintf(w, "   CHUNK SIZE: %s\n", progress.FormatBytes(cfg.ChunkSize))
	fmt.Fprintln(w, "   DISK USAGE: 0 BYTES")
	fmt.Fprintln(w, "   PRESS CTRL+C TO STOP")
	fmt.Fprintf(w, "\033[1;91m%s\033[0m\n\n", line)
}

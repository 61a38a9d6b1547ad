package saturator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	sathttp "github.com/ligustah/saturator/internal/http"
	"github.com/ligustah/saturator/internal/progress"
	"github.com/ligustah/saturator/internal/shutdown"
)

// ErrNoCoordinator is returned by Run when no shutdown coordinator is given.
var ErrNoCoordinator = errors.New("saturator: coordinator is required")

// Options configures a saturation run.
type Options struct {
	// Sources to download from. Required.
	Sources []Source

	// WorkersPerSource is the number of concurrent streams per source.
	WorkersPerSource int

	// HTTPOptions configures the HTTP client. Ignored when Client is set.
	HTTPOptions sathttp.Options

	// Client overrides the HTTP client, mainly for tests.
	Client Getter

	// RetryPause is the fixed pause between attempts. NoPause disables it.
	// Default: 100ms
	RetryPause time.Duration

	// ReportInterval is how often the status line is refreshed.
	// Default: 1s
	ReportInterval time.Duration

	// Coordinator drives shutdown. Its flag stops the workers. Required.
	Coordinator *shutdown.Coordinator

	// Stats receives the counters. Default: a fresh Stats.
	Stats *progress.Stats

	// Output receives the status line. Give it the coordinator's writer, or
	// leave it nil to get that by default, so the stop message and the final
	// summary share one lock.
	// Default: Coordinator.Output()
	Output io.Writer

	// Logger for diagnostics. Default: no-op.
	Logger *zap.SugaredLogger
}

// Run starts the pool and the reporter, then blocks until the coordinator
// observes shutdown and the workers have drained or the grace period ends.
func Run(ctx context.Context, opts Options) error {
	if opts.Coordinator == nil {
		return ErrNoCoordinator
	}
	if opts.Stats == nil {
		opts.Stats = &progress.Stats{}
	}
	if opts.Output == nil {
		opts.Output = opts.Coordinator.Output()
	}
	opts.Output = progress.NewSyncWriter(opts.Output)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	client := opts.Client
	if client == nil {
		c, err := sathttp.NewClient(opts.HTTPOptions)
		if err != nil {
			return fmt.Errorf("create http client: %w", err)
		}
		defer c.CloseIdleConnections()
		client = c
	}

	flag := opts.Coordinator.Flag()
	pool, err := NewPool(PoolOptions{
		Sources:          opts.Sources,
		WorkersPerSource: opts.WorkersPerSource,
		Client:           client,
		Stats:            opts.Stats,
		Flag:             flag,
		RetryPause:       opts.RetryPause,
		Logger:           opts.Logger,
	})
	if err != nil {
		return err
	}

	// No Done channel: the final line comes from Stop in the drain, after
	// the coordinator's stop message.
	reporter := progress.NewReporter(progress.Options{
		Stats:          opts.Stats,
		Output:         opts.Output,
		UpdateInterval: opts.ReportInterval,
	})

	// In-flight transfers are only cancelled by the pool once the grace
	// period runs out, never by the caller's ctx.
	if err := pool.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	reporter.Start()

	fmt.Fprintf(opts.Output, "\033[1;92m[+] %d engines launched! Network saturating...\033[0m\n\n", pool.Size())

	err = opts.Coordinator.Run(ctx, func(ctx context.Context) error {
		reporter.Stop()
		return pool.Wait(ctx)
	})

	opts.Logger.Infow("saturation run finished",
		"bytes", opts.Stats.Bytes.Load(),
		"attempts", opts.Stats.Attempts.Load(),
		"errors", opts.Stats.Errors.Load(),
	)
	return err
}

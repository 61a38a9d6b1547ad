package shutdown

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ligustah/saturator/internal/progress"
)

// Options configures the coordinator.
type Options struct {
	// GracePeriod bounds how long Run waits for the drain function.
	// Default: 10s
	GracePeriod time.Duration

	// Output receives the stop and goodbye messages. It is wrapped in a
	// progress.SyncWriter; share it through Coordinator.Output so other
	// console writers take the same lock.
	// Default: os.Stderr
	Output io.Writer

	// Signals to intercept.
	// Default: SIGINT, SIGTERM
	Signals []os.Signal

	// Logger for diagnostics. Default: no-op.
	Logger *zap.SugaredLogger
}

// Coordinator turns process signals into a set Flag and drives the bounded
// shutdown sequence from the caller's goroutine.
type Coordinator struct {
	flag *Flag
	opts Options

	mu     sync.Mutex
	sigCh  chan os.Signal
	quitCh chan struct{}
	ran    bool
}

// NewCoordinator creates a coordinator that sets flag on shutdown.
func NewCoordinator(flag *Flag, opts Options) *Coordinator {
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = 10 * time.Second
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	opts.Output = progress.NewSyncWriter(opts.Output)
	if len(opts.Signals) == 0 {
		opts.Signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	return &Coordinator{
		flag: flag,
		opts: opts,
	}
}

// Flag returns the flag the coordinator sets.
func (c *Coordinator) Flag() *Flag {
	return c.flag
}

// Output returns the locked writer the coordinator prints to.
func (c *Coordinator) Output() io.Writer {
	return c.opts.Output
}

// Notify starts intercepting the configured signals. Each delivered signal
// only sets the flag; repeated signals are ignored.
func (c *Coordinator) Notify() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sigCh != nil {
		return
	}

	c.sigCh = make(chan os.Signal, 1)
	c.quitCh = make(chan struct{})
	signal.Notify(c.sigCh, c.opts.Signals...)

	go func(sigCh <-chan os.Signal, quitCh <-chan struct{}) {
		for {
			select {
			case sig := <-sigCh:
				c.Trigger(sig.String())
			case <-quitCh:
				return
			}
		}
	}(c.sigCh, c.quitCh)
}

// Stop stops intercepting signals.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sigCh == nil {
		return
	}
	signal.Stop(c.sigCh)
	close(c.quitCh)
	c.sigCh = nil
}

// Trigger sets the flag. It reports whether this call initiated shutdown;
// later calls return false and have no other effect.
func (c *Coordinator) Trigger(reason string) bool {
	if !c.flag.Set() {
		c.opts.Logger.Debugw("shutdown already in progress", "reason", reason)
		return false
	}
	c.opts.Logger.Infow("shutdown requested", "reason", reason)
	return true
}

// Run blocks until the flag is set or ctx is done, prints the stop message,
// calls drain with a context bounded by the grace period and prints the
// goodbye message. It returns drain's error. Only the first call to Run
// does anything.
func (c *Coordinator) Run(ctx context.Context, drain func(context.Context) error) error {
	c.mu.Lock()
	if c.ran {
		c.mu.Unlock()
		return nil
	}
	c.ran = true
	c.mu.Unlock()

	select {
	case <-c.flag.Done():
	case <-ctx.Done():
		c.Trigger("context done")
	}

	fmt.Fprintln(c.opts.Output, "\n\033[1;91m[!] STOP SIGNAL RECEIVED. SHUTTING DOWN ALL ENGINES...\033[0m")

	graceCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.GracePeriod)
	defer cancel()

	start := time.Now()
	var err error
	if drain != nil {
		err = drain(graceCtx)
	}
	if err != nil {
		c.opts.Logger.Warnw("shutdown grace period ended with workers still running",
			"error", err, "waited", time.Since(start).String())
	}

	fmt.Fprintln(c.opts.Output, "\033[1;92m[+] All engines stopped. Goodbye!\033[0m")
	return err
}

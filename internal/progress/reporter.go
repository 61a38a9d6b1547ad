package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Options configures the throughput reporter.
type Options struct {
	// Stats holds the counters to report on. Required.
	Stats *Stats

	// Done, when closed, makes the reporter print its final line and exit.
	// Typically the shutdown flag's Done channel.
	Done <-chan struct{}

	// Output is where to write the status line.
	// Default: os.Stdout
	Output io.Writer

	// UpdateInterval is how often to sample the counters.
	// Default: 1s
	UpdateInterval time.Duration
}

// Reporter prints a live throughput line once per interval.
type Reporter struct {
	opts Options

	mu         sync.Mutex
	startTime  time.Time
	lastUpdate time.Time
	lastBytes  int64
	stopCh     chan struct{}
	doneCh     chan struct{}
	started    bool
	stopped    bool
}

// NewReporter creates a new throughput reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Stats == nil {
		opts.Stats = &Stats{}
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.UpdateInterval <= 0 {
		opts.UpdateInterval = time.Second
	}

	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins sampling and printing in a background goroutine.
func (r *Reporter) Start() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.startTime = time.Now()
	r.lastUpdate = r.startTime
	r.lastBytes = r.opts.Stats.Bytes.Load()
	r.mu.Unlock()

	go r.updateLoop()
}

// Stop ends the update loop and waits for the final line to be written.
// It is safe to call more than once.
func (r *Reporter) Stop() {
	r.mu.Lock()
	started := r.started
	if !r.stopped {
		r.stopped = true
		close(r.stopCh)
	}
	r.mu.Unlock()

	if started {
		<-r.doneCh
	}
}

// updateLoop periodically updates the status line.
func (r *Reporter) updateLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus(time.Now())
			return
		case <-r.opts.Done:
			r.printFinalStatus(time.Now())
			return
		case now := <-ticker.C:
			r.printProgress(now)
		}
	}
}

// printProgress samples the counters and rewrites the status line.
func (r *Reporter) printProgress(now time.Time) {
	r.mu.Lock()
	current := r.opts.Stats.Bytes.Load()
	rate := Rate(current-r.lastBytes, now.Sub(r.lastUpdate))
	elapsed := now.Sub(r.startTime)
	r.lastUpdate = now
	r.lastBytes = current
	r.mu.Unlock()

	fmt.Fprintf(r.opts.Output, "\r[saturator] Speed: %15s | Downloaded: %7.2f GB | Time: %4ds | Requests: %d (%d failed)    ",
		FormatRate(rate),
		Gigabytes(current),
		int(elapsed.Seconds()),
		r.opts.Stats.Attempts.Load(),
		r.opts.Stats.Errors.Load(),
	)
}

// printFinalStatus outputs the run summary.
func (r *Reporter) printFinalStatus(now time.Time) {
	total := r.opts.Stats.Bytes.Load()
	duration := now.Sub(r.startTime)

	fmt.Fprintf(r.opts.Output, "\n[saturator] Total: %s in %s | Average speed: %s\n",
		formatBytes(total),
		formatDuration(duration),
		FormatRate(Rate(total, duration)),
	)
}

package saturator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ligustah/saturator/internal/progress"
	"github.com/ligustah/saturator/internal/shutdown"
)

// Pool errors.
var (
	ErrNoSources           = errors.New("saturator: no sources configured")
	ErrNoWorkers           = errors.New("saturator: workers per source must be positive")
	ErrNoClient            = errors.New("saturator: http client is required")
	ErrPoolStarted         = errors.New("saturator: pool already started")
	ErrGracePeriodExceeded = errors.New("saturator: grace period exceeded")
)

// NoPause disables the pause between attempts. A zero RetryPause selects
// the default instead.
const NoPause time.Duration = -1

// PoolOptions configures a worker pool.
type PoolOptions struct {
	// Sources to download from. Required.
	Sources []Source

	// WorkersPerSource is the number of concurrent workers per source.
	WorkersPerSource int

	// Client issues the GET requests. Required.
	Client Getter

	// Stats receives byte, attempt and error counts.
	// Default: a fresh Stats
	Stats *progress.Stats

	// Flag stops the workers when set.
	// Default: a fresh Flag
	Flag *shutdown.Flag

	// RetryPause is the fixed pause between attempts. NoPause, or any
	// negative value, disables it.
	// Default: 100ms
	RetryPause time.Duration

	// Logger for diagnostics. Default: no-op.
	Logger *zap.SugaredLogger
}

// Pool runs a fixed set of workers, WorkersPerSource for every source.
type Pool struct {
	workers []*Worker
	stats   *progress.Stats
	flag    *shutdown.Flag
	logger  *zap.SugaredLogger

	running atomic.Int32

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

// NewPool creates a pool. Workers do not start until Start is called.
func NewPool(opts PoolOptions) (*Pool, error) {
	if len(opts.Sources) == 0 {
		return nil, ErrNoSources
	}
	if opts.WorkersPerSource <= 0 {
		return nil, ErrNoWorkers
	}
	if opts.Client == nil {
		return nil, ErrNoClient
	}
	if opts.Stats == nil {
		opts.Stats = &progress.Stats{}
	}
	if opts.Flag == nil {
		opts.Flag = shutdown.NewFlag()
	}
	if opts.RetryPause == 0 {
		opts.RetryPause = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	p := &Pool{
		stats:  opts.Stats,
		flag:   opts.Flag,
		logger: opts.Logger,
		done:   make(chan struct{}),
	}

	for _, src := range opts.Sources {
		if src.ChunkSize <= 0 {
			return nil, fmt.Errorf("%w: %q: chunk size must be positive", ErrInvalidSource, src.URL)
		}
		for i := 0; i < opts.WorkersPerSource; i++ {
			p.workers = append(p.workers, &Worker{
				index:  len(p.workers),
				source: src,
				client: opts.Client,
				stats:  opts.Stats,
				flag:   opts.Flag,
				pause:  opts.RetryPause,
				logger: opts.Logger,
				buf:    make([]byte, src.ChunkSize),
			})
		}
	}

	return p, nil
}

// Size returns the total number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Running returns the number of workers currently inside their loop.
func (p *Pool) Running() int {
	return int(p.running.Load())
}

// Stats returns the counters the workers update.
func (p *Pool) Stats() *progress.Stats {
	return p.stats
}

// Flag returns the flag that stops the pool.
func (p *Pool) Flag() *shutdown.Flag {
	return p.flag
}

// Start launches every worker and returns immediately. Cancelling ctx
// aborts in-flight transfers; normal shutdown goes through the flag.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return ErrPoolStarted
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)

	var g errgroup.Group
	for _, w := range p.workers {
		w := w
		g.Go(func() error {
			p.running.Add(1)
			defer p.running.Add(-1)
			return w.Run(ctx)
		})
	}

	p.logger.Infow("worker pool started", "workers", len(p.workers))

	go func() {
		err := g.Wait()
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		close(p.done)
	}()

	return nil
}

// Stop sets the shutdown flag. Workers exit after their current read.
func (p *Pool) Stop() {
	p.flag.Set()
}

// Wait blocks until every worker has returned or ctx is done. When ctx ends
// first, in-flight transfers are cancelled and ErrGracePeriodExceeded is
// returned without waiting for the stragglers.
func (p *Pool) Wait(ctx context.Context) error {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return nil
	}

	select {
	case <-p.done:
		p.cancel()
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.err != nil && !p.flag.IsSet() {
			return p.err
		}
		return nil
	case <-ctx.Done():
		p.cancel()
		stragglers := p.Running()
		p.logger.Warnw("abandoning workers after grace period", "stragglers", stragglers)
		return fmt.Errorf("%w: %d workers still running", ErrGracePeriodExceeded, stragglers)
	}
}

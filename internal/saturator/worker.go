package saturator

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	sathttp "github.com/ligustah/saturator/internal/http"
	"github.com/ligustah/saturator/internal/progress"
	"github.com/ligustah/saturator/internal/shutdown"
)

// Getter issues a streaming GET. *sathttp.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) (io.ReadCloser, error)
}

// Worker repeatedly downloads one source and discards the body.
type Worker struct {
	index  int
	source Source
	client Getter
	stats  *progress.Stats
	flag   *shutdown.Flag
	pause  time.Duration
	logger *zap.SugaredLogger
	buf    []byte
}

// Index returns the worker's position in the pool.
func (w *Worker) Index() int {
	return w.index
}

// Source returns the source the worker downloads.
func (w *Worker) Source() Source {
	return w.source
}

// Run loops until the shutdown flag is set. Transfer errors are counted and
// dropped. Run returns ctx.Err() only if ctx was cancelled, which happens
// when the grace period has run out.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if w.flag.IsSet() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := w.attempt(ctx)
		if err != nil {
			w.stats.Errors.Add(1)
			w.logger.Debugw("transfer failed",
				"worker", w.index,
				"source", w.source.URL,
				"bytes", n,
				"error", err,
			)
		}

		if !w.sleep(ctx) {
			return ctx.Err()
		}
	}
}

// attempt performs one GET and drains the body chunk by chunk. Bytes are
// counted as they arrive, so a failed attempt keeps its partial count.
func (w *Worker) attempt(ctx context.Context) (int64, error) {
	w.stats.Attempts.Add(1)
	body, err := w.client.Get(ctx, w.source.URL)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	var total int64
	for {
		if w.flag.IsSet() {
			return total, nil
		}

		n, err := body.Read(w.buf)
		if n > 0 {
			w.stats.Bytes.Add(int64(n))
			total += int64(n)
		}
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			var terr *sathttp.TransferError
			if errors.As(err, &terr) {
				return total, err
			}
			return total, &sathttp.TransferError{Op: sathttp.OpRead, URL: w.source.URL, Err: err}
		}
	}
}

// sleep pauses between attempts. It reports false if ctx was cancelled.
func (w *Worker) sleep(ctx context.Context) bool {
	if w.pause <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(w.pause)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-w.flag.Done():
		return true
	case <-ctx.Done():
		return false
	}
}

package progress

import "sync/atomic"

// Counter is a monotonically increasing byte counter shared by many writers.
// The zero value is ready to use.
type Counter struct {
	n atomic.Int64
}

// Add increments the counter by n. Non-positive values are ignored so the
// counter never moves backwards.
func (c *Counter) Add(n int64) {
	if n <= 0 {
		return
	}
	c.n.Add(n)
}

// Load returns the current value.
func (c *Counter) Load() int64 {
	return c.n.Load()
}

// Stats groups the counters a saturation run updates.
type Stats struct {
	// Bytes is the total number of body bytes received.
	Bytes Counter

	// Attempts is the number of GET requests issued.
	Attempts Counter

	// Errors is the number of attempts that ended in a transfer error.
	Errors Counter
}

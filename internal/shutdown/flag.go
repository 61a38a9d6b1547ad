package shutdown

import (
	"sync"
	"sync/atomic"
)

// Flag is a one-way boolean: it starts unset and, once set, stays set.
// The zero value is not usable; create one with NewFlag.
type Flag struct {
	set  atomic.Bool
	once sync.Once
	done chan struct{}
}

// NewFlag returns an unset flag.
func NewFlag() *Flag {
	return &Flag{done: make(chan struct{})}
}

// Set sets the flag. It reports whether this call changed it.
func (f *Flag) Set() bool {
	if !f.set.CompareAndSwap(false, true) {
		return false
	}
	f.once.Do(func() { close(f.done) })
	return true
}

// IsSet reports whether the flag has been set.
func (f *Flag) IsSet() bool {
	return f.set.Load()
}

// Done returns a channel that is closed when the flag is set.
func (f *Flag) Done() <-chan struct{} {
	return f.done
}

// Package testutils provides HTTP test endpoints for saturation tests.
package testutils

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

// Server is an httptest.Server that counts the requests it receives.
type Server struct {
	*httptest.Server

	requests atomic.Int64
	inFlight atomic.Int64
}

// Requests returns the number of requests received so far.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// InFlight returns the number of requests currently being served.
func (s *Server) InFlight() int64 {
	return s.inFlight.Load()
}

func (s *Server) wrap(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.inFlight.Add(1)
		defer s.inFlight.Add(-1)
		h(w, r)
	}
}

func start(t *testing.T, h http.HandlerFunc) *Server {
	t.Helper()
	s := &Server{}
	s.Server = httptest.NewServer(s.wrap(h))
	t.Cleanup(s.Close)
	return s
}

// zeroReader yields an endless stream of zero bytes.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

// StartDiscardServer serves size bytes per request and then closes the
// connection, like a speed-test endpoint.
func StartDiscardServer(t *testing.T, size int64) *Server {
	t.Helper()
	return start(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.Header().Set("Connection", "close")
		io.CopyN(w, zeroReader{}, size)
	})
}

// StartStatusServer answers every request with the given status code.
func StartStatusServer(t *testing.T, status int) *Server {
	t.Helper()
	return start(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

// StartTruncatingServer announces size bytes but sends only sent before
// dropping the connection.
func StartTruncatingServer(t *testing.T, size, sent int64) *Server {
	t.Helper()
	return start(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		io.CopyN(w, zeroReader{}, sent)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		panic(http.ErrAbortHandler)
	})
}

// StartDripServer streams chunk bytes every interval until the client goes
// away, so a transfer never finishes on its own.
func StartDripServer(t *testing.T, chunk int64, interval time.Duration) *Server {
	t.Helper()
	return start(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		flusher, _ := w.(http.Flusher)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if _, err := io.CopyN(w, zeroReader{}, chunk); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
			}
		}
	})
}

// WaitFor polls cond until it returns true or timeout elapses.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

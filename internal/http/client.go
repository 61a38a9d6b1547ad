package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// Common errors.
var (
	ErrNotFound     = errors.New("http: resource not found")
	ErrForbidden    = errors.New("http: access forbidden")
	ErrUnauthorized = errors.New("http: unauthorized")
	ErrServerError  = errors.New("http: server error")
	ErrStatus       = errors.New("http: unexpected status")
)

// Transfer operations reported in TransferError.Op.
const (
	OpRequest = "request"
	OpStatus  = "status"
	OpRead    = "read"
)

// TransferError describes a failed download attempt: a transport failure,
// a non-2xx response or a read that broke off mid-stream.
type TransferError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransferError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Options configures the HTTP client.
type Options struct {
	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 100
	MaxIdleConnsPerHost int

	// Timeout bounds a whole attempt, including reading the body.
	// Default: 10s
	Timeout time.Duration

	// DialTimeout bounds connection establishment.
	// Default: 5s
	DialTimeout time.Duration

	// HTTP2 enables HTTP/2 on the transport, with ping health checks.
	HTTP2 bool

	// ForceClose disables keep-alives so every attempt opens a new connection.
	ForceClose bool

	// UserAgent is sent with every request when non-empty.
	UserAgent string
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxIdleConnsPerHost: 100,
		Timeout:             10 * time.Second,
		DialTimeout:         5 * time.Second,
	}
}

// Client is an HTTP client tuned for many parallel streaming GETs.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a new HTTP client with the given options.
func NewClient(opts Options) (*Client, error) {
	defaults := DefaultOptions()
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = defaults.MaxIdleConnsPerHost
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaults.DialTimeout
	}

	dialer := &net.Dialer{
		Timeout:   opts.DialTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxConnsPerHost:     0, // unlimited
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: opts.DialTimeout,
		DisableKeepAlives:   opts.ForceClose,
		DisableCompression:  true, // count bytes as they arrive on the wire
	}

	if opts.HTTP2 {
		h2, err := http2.ConfigureTransports(transport)
		if err != nil {
			return nil, fmt.Errorf("configure http2: %w", err)
		}
		h2.ReadIdleTimeout = 15 * time.Second
		h2.PingTimeout = 5 * time.Second
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts: opts,
	}, nil
}

// Timeout returns the per-attempt timeout.
func (c *Client) Timeout() time.Duration {
	return c.opts.Timeout
}

// Get issues a single GET and returns the streaming response body.
// The caller must close the body. Every failure is a *TransferError.
func (c *Client) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransferError{Op: OpRequest, URL: url, Err: fmt.Errorf("create request: %w", err)}
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransferError{Op: OpRequest, URL: url, Err: err}
	}

	if err := checkStatusCode(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, &TransferError{Op: OpStatus, URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	return resp.Body, nil
}

// CloseIdleConnections closes idle keep-alive connections.
func (c *Client) CloseIdleConnections() {
	c.client.CloseIdleConnections()
}

// checkStatusCode returns an appropriate error for non-success status codes.
func checkStatusCode(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code >= 500:
		return ErrServerError
	default:
		return ErrStatus
	}
}

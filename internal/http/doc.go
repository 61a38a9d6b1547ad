// Package http provides an HTTP client for bulk discard downloads.
//
// This package handles:
//   - Connection pooling for high parallelism
//   - A bounded timeout per attempt, covering the body read
//   - Optional HTTP/2 with ping health checks
//   - Classification of failures as *TransferError
//
// There is no retry here; callers loop on their own.
//
// # Usage
//
//	client, err := http.NewClient(http.Options{
//	    Timeout: 10 * time.Second,
//	    HTTP2:   true,
//	})
//
//	body, err := client.Get(ctx, url)
//	if err != nil {
//	    var terr *http.TransferError
//	    errors.As(err, &terr) // terr.Op, terr.StatusCode
//	}
//	defer body.Close()
package http

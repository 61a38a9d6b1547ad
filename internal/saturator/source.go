package saturator

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidSource is returned when a source URL cannot be used.
var ErrInvalidSource = errors.New("saturator: invalid source")

// Source is an HTTP endpoint used as a bulk data generator.
type Source struct {
	// URL is fetched repeatedly with GET.
	URL string

	// ChunkSize is the read buffer size for streaming the body.
	ChunkSize int
}

// NewSource validates raw and returns a Source.
func NewSource(raw string, chunkSize int) (Source, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %q: %v", ErrInvalidSource, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Source{}, fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidSource, raw)
	}
	if u.Host == "" {
		return Source{}, fmt.Errorf("%w: %q: missing host", ErrInvalidSource, raw)
	}
	if chunkSize <= 0 {
		return Source{}, fmt.Errorf("%w: %q: chunk size must be positive", ErrInvalidSource, raw)
	}
	return Source{URL: u.String(), ChunkSize: chunkSize}, nil
}

// ParseSources builds one Source per URL, all sharing chunkSize.
func ParseSources(urls []string, chunkSize int) ([]Source, error) {
	sources := make([]Source, 0, len(urls))
	for _, raw := range urls {
		s, err := NewSource(raw, chunkSize)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, nil
}

// Package fetcher downloads remote JSON documents over HTTP.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/url"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Get issues a GET for rawURL with the given query parameters merged in
	// and returns the response body. The caller closes the body.
	Get(ctx context.Context, rawURL string, query url.Values) (io.ReadCloser, error)
}

// StatusError reports a response whose status code is not 2xx.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

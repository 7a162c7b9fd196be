package pipeline

import (
	"net/http"
	"time"
)

const (
	// DefaultMaxConnections caps outbound sockets per host across all clients.
	DefaultMaxConnections = 500

	defaultIdleConnTimeout = 90 * time.Second
)

// NewTransport builds the transport shared by every outbound client in a
// run. Callers close idle connections when the run ends.
func NewTransport(maxConns int) *http.Transport {
	if maxConns <= 0 {
		maxConns = DefaultMaxConnections
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxConnsPerHost = maxConns
	t.MaxIdleConns = maxConns
	t.MaxIdleConnsPerHost = min(maxConns, 100)
	t.IdleConnTimeout = defaultIdleConnTimeout
	return t
}

// NewHTTPClient returns a client over the shared transport.
func NewHTTPClient(t http.RoundTripper, timeout time.Duration) *http.Client {
	return &http.Client{Transport: t, Timeout: timeout}
}

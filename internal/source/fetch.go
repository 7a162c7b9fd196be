package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultUserAgent mimics a desktop browser; several providers refuse
	// requests from unknown clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	defaultRetries    = 3
	defaultBackoff    = 2 * time.Second
	defaultMaxBackoff = 60 * time.Second
)

// Fetcher performs GET requests against the provider, retrying transient
// failures with exponential backoff.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	retries    int
	backoff    time.Duration
	maxBackoff time.Duration
	log        *slog.Logger
}

// FetchOption configures a Fetcher.
type FetchOption func(*Fetcher)

// WithHTTPClient sets the HTTP client, e.g. one sharing the run's transport.
func WithHTTPClient(hc *http.Client) FetchOption {
	return func(f *Fetcher) {
		if hc != nil {
			f.client = hc
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) FetchOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithRetries sets how many times a transient failure is retried.
func WithRetries(n int) FetchOption {
	return func(f *Fetcher) {
		if n >= 0 {
			f.retries = n
		}
	}
}

// WithBackoff sets the initial and maximum wait between attempts.
func WithBackoff(initial, max time.Duration) FetchOption {
	return func(f *Fetcher) {
		if initial > 0 {
			f.backoff = initial
		}
		if max > 0 {
			f.maxBackoff = max
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) FetchOption {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// NewFetcher creates a fetcher.
func NewFetcher(opts ...FetchOption) *Fetcher {
	f := &Fetcher{
		client:     &http.Client{Timeout: 5 * time.Minute},
		userAgent:  DefaultUserAgent,
		retries:    defaultRetries,
		backoff:    defaultBackoff,
		maxBackoff: defaultMaxBackoff,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.With("component", "fetch")
	return f
}

// retryable reports whether a status code is worth another attempt.
func retryable(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusLocked, http.StatusRequestTimeout:
		return true
	}
	return code >= 500
}

// Get fetches rawURL and returns the body. 4xx responses other than
// 408, 423 and 429 fail immediately.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	backoff := f.backoff
	var lastErr error

	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			f.log.Debug("retrying", "url", Redact(rawURL), "attempt", attempt, "wait", backoff, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, f.maxBackoff)
		}

		body, wait, err := f.once(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var se *statusError
		if errors.As(err, &se) && !retryable(se.code) {
			return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, Redact(rawURL), err)
		}
		if errors.Is(err, ErrEmptyResponse) {
			return nil, err
		}
		if wait > 0 {
			backoff = min(wait, f.maxBackoff)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %s after %d attempts: %v", ErrFetchFailed, Redact(rawURL), f.retries+1, lastErr)
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.code)
}

// once performs a single attempt. wait is the server-requested delay
// before the next attempt, zero when none was given.
func (f *Fetcher) once(ctx context.Context, rawURL string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", redactErr(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()), &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, 0, ErrEmptyResponse
	}
	return body, 0, nil
}

// parseRetryAfter accepts delay-seconds or an HTTP date. Unparseable or
// past values yield zero.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
		return time.Duration(sec) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// Redact masks credentials in a provider URL so it can be logged.
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	for _, key := range []string{"username", "password"} {
		if q.Has(key) {
			q.Set(key, "xxx")
		}
	}
	u.RawQuery = q.Encode()
	if u.User != nil {
		u.User = url.User("xxx")
	}
	return u.String()
}

func redactErr(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s %s: %w", ue.Op, Redact(ue.URL), ue.Err)
	}
	return err
}

package source

import (
	"io"
	"log/slog"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastFetcher(opts ...FetchOption) *Fetcher {
	base := []FetchOption{
		WithBackoff(time.Millisecond, 5*time.Millisecond),
		WithLogger(testLogger()),
	}
	return NewFetcher(append(base, opts...)...)
}

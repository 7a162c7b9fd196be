package importer

import (
	"context"
	"log/slog"
)

//go:generate mockgen -destination=mocks/mediaserver.go -package=mocks github.com/vmunix/iptvstrm/internal/importer MediaServer

// MediaServer defines the interface for media server operations.
// This abstraction allows supporting multiple media servers (Kodi, Plex, etc.).
type MediaServer interface {
	// Name identifies the server in logs.
	Name() string

	// Rescan asks the server to pick up library changes under roots.
	Rescan(ctx context.Context, roots []string) error
}

// Notify triggers a rescan on every server. Failures are logged and do not
// stop the remaining servers. Returns the number of servers notified.
func Notify(ctx context.Context, servers []MediaServer, roots []string, log *slog.Logger) int {
	if log == nil {
		log = slog.Default()
	}
	notified := 0
	for _, s := range servers {
		if err := s.Rescan(ctx, roots); err != nil {
			log.Warn("rescan failed", "server", s.Name(), "error", err)
			continue
		}
		log.Info("rescan triggered", "server", s.Name())
		notified++
	}
	return notified
}

// Ensure the clients implement MediaServer.
var (
	_ MediaServer = (*PlexClient)(nil)
	_ MediaServer = (*KodiClient)(nil)
)

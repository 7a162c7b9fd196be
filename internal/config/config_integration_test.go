package config

import (
	"path/filepath"
	"testing"

	"github.com/vmunix/iptvstrm/pkg/title"
)

func TestFullWorkflow(t *testing.T) {
	tmp := t.TempDir()

	// 1. Write default config
	cfgPath := filepath.Join(tmp, "iptvstrm", "config.toml")
	if err := WriteDefault(cfgPath); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	// 2. Provide credentials through the environment
	t.Setenv("IPTV_SERVER", "http://iptv.example:8080")
	t.Setenv("IPTV_USERNAME", "alice")
	t.Setenv("IPTV_PASSWORD", "pw")
	t.Setenv("TMDB_API_KEY", "test-tmdb-key")

	// 3. Load with validation
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// 4. Verify env substitution
	if cfg.Provider.Server != "http://iptv.example:8080" || cfg.Provider.Username != "alice" {
		t.Errorf("expected provider from env, got %+v", cfg.Provider)
	}
	if cfg.TMDB.APIKey != "test-tmdb-key" {
		t.Errorf("expected tmdb key substituted, got %q", cfg.TMDB.APIKey)
	}

	// 5. Verify roots and defaults
	roots := cfg.Roots()
	if roots[title.KindMovie] != "/media/iptv/movies" || roots[title.KindSport] != "/media/iptv/sports" {
		t.Errorf("unexpected roots: %v", roots)
	}
	if cfg.Notifications.Kodi != nil || cfg.Notifications.Plex != nil {
		t.Error("expected notifications disabled by default")
	}
}

// internal/importer/plex.go
package importer

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PlexClient interacts with the Plex Media Server API.
type PlexClient struct {
	baseURL    string
	token      string
	libraries  []string // section names refreshed on rescan, empty for path scans
	remotePath string   // Path prefix as seen by Plex
	localPath  string   // Corresponding local path
	httpClient *http.Client
	log        *slog.Logger
}

// NewPlexClient creates a new Plex client.
func NewPlexClient(baseURL, token string, log *slog.Logger) *PlexClient {
	return &PlexClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		log:     plexLogger(log),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewPlexClientWithPathMapping creates a new Plex client with path translation.
// localPath is the path on this machine, remotePath is how Plex sees it.
func NewPlexClientWithPathMapping(baseURL, token, localPath, remotePath string, log *slog.Logger) *PlexClient {
	c := NewPlexClient(baseURL, token, log)
	c.localPath = localPath
	c.remotePath = remotePath
	return c
}

// WithLibraries makes Rescan refresh the named sections instead of
// scanning by path.
func (c *PlexClient) WithLibraries(names ...string) *PlexClient {
	c.libraries = names
	return c
}

// WithHTTPClient replaces the HTTP client, e.g. to share a transport.
func (c *PlexClient) WithHTTPClient(hc *http.Client) *PlexClient {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

func plexLogger(log *slog.Logger) *slog.Logger {
	if log == nil {
		log = slog.Default()
	}
	return log.With("component", "plex")
}

// Name implements MediaServer.
func (c *PlexClient) Name() string { return "plex" }

// translateToRemote converts a local path to the path Plex expects.
func (c *PlexClient) translateToRemote(path string) string {
	if c.localPath == "" || c.remotePath == "" {
		return path
	}
	if strings.HasPrefix(path, c.localPath) {
		return c.remotePath + path[len(c.localPath):]
	}
	return path
}

// Identity holds Plex server identity information.
type Identity struct {
	Name    string
	Version string
}

// identityResponse is the XML response from root endpoint.
type identityResponse struct {
	XMLName      xml.Name `xml:"MediaContainer"`
	FriendlyName string   `xml:"friendlyName,attr"`
	Version      string   `xml:"version,attr"`
}

// Section represents a Plex library section.
type Section struct {
	Key           string     `xml:"key,attr"`
	Title         string     `xml:"title,attr"`
	Type          string     `xml:"type,attr"`
	Locations     []Location `xml:"Location"`
	ScannedAt     int64      `xml:"scannedAt,attr"`
	RefreshingRaw int        `xml:"refreshing,attr"`
}

// Refreshing returns true if the section is currently being scanned.
func (s Section) Refreshing() bool {
	return s.RefreshingRaw == 1
}

// Location represents a library section's filesystem location.
type Location struct {
	Path string `xml:"path,attr"`
}

// sectionsResponse is the XML response from /library/sections.
type sectionsResponse struct {
	XMLName  xml.Name  `xml:"MediaContainer"`
	Sections []Section `xml:"Directory"`
}

// do issues an authenticated GET and decodes the XML body into out when
// out is non-nil.
func (c *PlexClient) do(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// GetSections returns all library sections.
func (c *PlexClient) GetSections(ctx context.Context) ([]Section, error) {
	var result sectionsResponse
	if err := c.do(ctx, c.baseURL+"/library/sections", &result); err != nil {
		return nil, err
	}
	return result.Sections, nil
}

// FindSectionByName finds a library section by name (case-insensitive).
// Returns nil if not found.
func (c *PlexClient) FindSectionByName(ctx context.Context, name string) (*Section, error) {
	sections, err := c.GetSections(ctx)
	if err != nil {
		return nil, err
	}

	for _, sec := range sections {
		if strings.EqualFold(sec.Title, name) {
			return &sec, nil
		}
	}

	return nil, nil
}

// ScanDir triggers a partial scan of a library directory.
func (c *PlexClient) ScanDir(ctx context.Context, dir string) error {
	// Translate local path to Plex's path (for Docker path mapping)
	remoteDir := c.translateToRemote(dir)
	c.log.Debug("scanning path", "local", dir, "remote", remoteDir)

	// Find the section that contains this path
	sections, err := c.GetSections(ctx)
	if err != nil {
		return fmt.Errorf("get sections: %w", err)
	}

	var sectionKey string
	for _, section := range sections {
		for _, loc := range section.Locations {
			if strings.HasPrefix(remoteDir, loc.Path) {
				sectionKey = section.Key
				break
			}
		}
		if sectionKey != "" {
			break
		}
	}

	if sectionKey == "" {
		return fmt.Errorf("no library section found for path: %s (translated: %s)", dir, remoteDir)
	}

	scanURL := fmt.Sprintf("%s/library/sections/%s/refresh?path=%s",
		c.baseURL, sectionKey, url.QueryEscape(remoteDir))

	start := time.Now()
	if err := c.do(ctx, scanURL, nil); err != nil {
		return fmt.Errorf("scan section %s: %w", sectionKey, err)
	}
	c.log.Debug("scan triggered", "section", sectionKey, "path", remoteDir, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// GetIdentity returns the Plex server name and version.
func (c *PlexClient) GetIdentity(ctx context.Context) (*Identity, error) {
	var result identityResponse
	if err := c.do(ctx, c.baseURL+"/", &result); err != nil {
		return nil, err
	}
	return &Identity{
		Name:    result.FriendlyName,
		Version: result.Version,
	}, nil
}

// RefreshLibrary triggers a full scan of a library section.
func (c *PlexClient) RefreshLibrary(ctx context.Context, sectionKey string) error {
	scanURL := fmt.Sprintf("%s/library/sections/%s/refresh", c.baseURL, sectionKey)
	if err := c.do(ctx, scanURL, nil); err != nil {
		return fmt.Errorf("refresh section %s: %w", sectionKey, err)
	}
	return nil
}

// Rescan implements MediaServer. Configured libraries are refreshed by
// name, skipping any Plex is already scanning; otherwise each root is
// scanned by path.
func (c *PlexClient) Rescan(ctx context.Context, roots []string) error {
	var errs []error
	if len(c.libraries) > 0 {
		for _, name := range c.libraries {
			section, err := c.FindSectionByName(ctx, name)
			if err != nil {
				errs = append(errs, fmt.Errorf("find section %q: %w", name, err))
				continue
			}
			if section == nil {
				errs = append(errs, fmt.Errorf("no library section named %q", name))
				continue
			}
			if section.Refreshing() {
				c.log.Info("section already scanning, skipping refresh", "section", section.Title)
				continue
			}
			if err := c.RefreshLibrary(ctx, section.Key); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	for _, root := range roots {
		if err := c.ScanDir(ctx, root); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/vmunix/iptvstrm/internal/catalog"
)

// DefaultSeriesConcurrency bounds concurrent get_series_info requests.
const DefaultSeriesConcurrency = 8

// XtreamClient reads a catalog from a provider's player_api.php endpoint.
type XtreamClient struct {
	fetcher     *Fetcher
	account     catalog.XtreamAccount
	limiter     *rate.Limiter
	concurrency int
	log         *slog.Logger
}

// NewXtreamClient creates a client. A nil limiter disables throttling of
// the per-series requests.
func NewXtreamClient(fetcher *Fetcher, account catalog.XtreamAccount, limiter *rate.Limiter, log *slog.Logger) *XtreamClient {
	if log == nil {
		log = slog.Default()
	}
	return &XtreamClient{
		fetcher:     fetcher,
		account:     account,
		limiter:     limiter,
		concurrency: DefaultSeriesConcurrency,
		log:         log.With("component", "xtream"),
	}
}

// WithConcurrency bounds concurrent get_series_info requests.
func (c *XtreamClient) WithConcurrency(n int) *XtreamClient {
	if n > 0 {
		c.concurrency = n
	}
	return c
}

func (c *XtreamClient) apiURL(action string, extra url.Values) string {
	q := url.Values{}
	q.Set("username", c.account.Username)
	q.Set("password", c.account.Password)
	if action != "" {
		q.Set("action", action)
	}
	for k, v := range extra {
		q[k] = v
	}
	return strings.TrimSuffix(c.account.Server, "/") + "/player_api.php?" + q.Encode()
}

func (c *XtreamClient) getJSON(ctx context.Context, action string, extra url.Values, out any) error {
	body, err := c.fetcher.Get(ctx, c.apiURL(action, extra))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", action, err)
	}
	return nil
}

type authResponse struct {
	UserInfo struct {
		Auth   catalog.FlexID `json:"auth"`
		Status string         `json:"status"`
	} `json:"user_info"`
}

// Authenticate checks the account against the provider.
func (c *XtreamClient) Authenticate(ctx context.Context) error {
	var resp authResponse
	if err := c.getJSON(ctx, "", nil, &resp); err != nil {
		return err
	}
	if resp.UserInfo.Auth.Int(0) != 1 {
		return ErrUnauthorized
	}
	if s := resp.UserInfo.Status; s != "" && !strings.EqualFold(s, "active") {
		return fmt.Errorf("%w: account %s", ErrUnauthorized, strings.ToLower(s))
	}
	return nil
}

// FetchCatalog downloads categories, live and VOD streams, series and the
// episode list of every series. A series whose episode list cannot be read
// is logged and left out of SeriesInfo, which marks the catalog's tv kind
// as incomplete when parsed.
func (c *XtreamClient) FetchCatalog(ctx context.Context) (*catalog.XtreamPayload, error) {
	payload := &catalog.XtreamPayload{SeriesInfo: make(map[string]catalog.XtreamSeriesInfo)}

	g, gctx := errgroup.WithContext(ctx)
	lists := []struct {
		action string
		out    any
	}{
		{"get_live_categories", &payload.LiveCategories},
		{"get_vod_categories", &payload.VODCategories},
		{"get_series_categories", &payload.SeriesCategories},
		{"get_live_streams", &payload.Live},
		{"get_vod_streams", &payload.VOD},
		{"get_series", &payload.Series},
	}
	for _, l := range lists {
		g.Go(func() error {
			return c.getJSON(gctx, l.action, nil, l.out)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	c.log.Info("catalog lists fetched",
		"live", len(payload.Live),
		"vod", len(payload.VOD),
		"series", len(payload.Series))

	var mu sync.Mutex
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, s := range payload.Series {
		id := s.SeriesID.String()
		if id == "" {
			continue
		}
		g.Go(func() error {
			if c.limiter != nil {
				if err := c.limiter.Wait(gctx); err != nil {
					return err
				}
			}
			var info catalog.XtreamSeriesInfo
			err := c.getJSON(gctx, "get_series_info", url.Values{"series_id": {id}}, &info)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.log.Warn("series info failed", "series_id", id, "name", s.Name, "error", err)
				return nil
			}
			mu.Lock()
			payload.SeriesInfo[id] = info
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return payload, nil
}

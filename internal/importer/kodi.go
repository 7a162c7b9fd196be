// internal/importer/kodi.go
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

// KodiClient talks to Kodi's JSON-RPC interface.
type KodiClient struct {
	endpoint   string
	username   string
	password   string
	httpClient *http.Client
	nextID     atomic.Int64
	log        *slog.Logger
}

// NewKodiClient creates a Kodi client. rawURL may point at the web server
// root or at its /jsonrpc endpoint.
func NewKodiClient(rawURL, username, password string, log *slog.Logger) *KodiClient {
	endpoint := strings.TrimSuffix(rawURL, "/")
	if u, err := url.Parse(endpoint); err == nil && !strings.HasSuffix(u.Path, "/jsonrpc") {
		endpoint += "/jsonrpc"
	}
	if log == nil {
		log = slog.Default()
	}
	return &KodiClient{
		endpoint: endpoint,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log.With("component", "kodi"),
	}
}

// WithHTTPClient replaces the HTTP client, e.g. to share a transport.
func (c *KodiClient) WithHTTPClient(hc *http.Client) *KodiClient {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// Name implements MediaServer.
func (c *KodiClient) Name() string { return "kodi" }

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// RPCError is an error object returned by Kodi.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("kodi rpc error %d: %s", e.Code, e.Message)
}

func (c *KodiClient) call(ctx context.Context, method string, params, out any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: c.nextID.Add(1)})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var rpc rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if rpc.Error != nil {
		return rpc.Error
	}
	if out != nil {
		if err := json.Unmarshal(rpc.Result, out); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}

// Ping checks that Kodi is reachable and accepts the credentials.
func (c *KodiClient) Ping(ctx context.Context) error {
	var pong string
	if err := c.call(ctx, "JSONRPC.Ping", nil, &pong); err != nil {
		return err
	}
	if pong != "pong" {
		return fmt.Errorf("unexpected ping result %q", pong)
	}
	return nil
}

// Rescan implements MediaServer. Kodi scans all of its video sources, so
// roots are only logged.
func (c *KodiClient) Rescan(ctx context.Context, roots []string) error {
	c.log.Debug("requesting video library scan", "roots", roots)
	params := map[string]any{"showdialogs": false}
	if err := c.call(ctx, "VideoLibrary.Scan", params, nil); err != nil {
		return fmt.Errorf("video library scan: %w", err)
	}
	return nil
}

// internal/importer/kodi_test.go
package importer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKodiClient_Rescan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/jsonrpc", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "kodi", user)
		assert.Equal(t, "secret", pass)

		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JSONRPC)
		assert.Equal(t, "VideoLibrary.Scan", req.Method)

		_, _ = w.Write([]byte(`{"id":1,"jsonrpc":"2.0","result":"OK"}`))
	}))
	defer server.Close()

	client := NewKodiClient(server.URL, "kodi", "secret", nil)
	require.NoError(t, client.Rescan(context.Background(), []string{"/lib/movies"}))
}

func TestKodiClient_EndpointSuffix(t *testing.T) {
	assert.Equal(t, "http://kodi:8080/jsonrpc", NewKodiClient("http://kodi:8080", "", "", nil).endpoint)
	assert.Equal(t, "http://kodi:8080/jsonrpc", NewKodiClient("http://kodi:8080/jsonrpc/", "", "", nil).endpoint)
}

func TestKodiClient_RPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":1,"jsonrpc":"2.0","error":{"code":-32601,"message":"Method not found."}}`))
	}))
	defer server.Close()

	err := NewKodiClient(server.URL, "", "", nil).Rescan(context.Background(), nil)
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32601, rpcErr.Code)
}

func TestKodiClient_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	err := NewKodiClient(server.URL, "kodi", "wrong", nil).Ping(context.Background())
	assert.Error(t, err)
}

func TestKodiClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":1,"jsonrpc":"2.0","result":"pong"}`))
	}))
	defer server.Close()

	assert.NoError(t, NewKodiClient(server.URL, "", "", nil).Ping(context.Background()))
}

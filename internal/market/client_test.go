package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Fetch(t *testing.T) {
	var gotKey, gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"prices": []}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL + "/", APIKey: "fd-key"})
	body, err := client.Fetch(context.Background(), Request{
		Path:   "/prices/",
		Params: url.Values{"ticker": {"AAPL"}, "interval": {"day"}},
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"prices": []}`, string(body))
	assert.Equal(t, "fd-key", gotKey)
	assert.Equal(t, "/prices/", gotPath)
	assert.Equal(t, "interval=day&ticker=AAPL", gotQuery)
}

func TestClient_FetchAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "ticker not found"}`))
	}))
	defer server.Close()

	_, err := NewClient(ClientConfig{BaseURL: server.URL}).Fetch(context.Background(), Request{Path: "/company/profile/"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.HTTPStatus())
	assert.Equal(t, "/company/profile/", apiErr.Path)
	assert.Contains(t, apiErr.Error(), "ticker not found")
}

func TestClient_BreakerFailsFast(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, BreakerEnabled: true})

	for i := 0; i < BreakerMinRequests; i++ {
		_, err := client.Fetch(context.Background(), Request{Path: "/news/"})
		require.Error(t, err)
	}
	require.Equal(t, int32(BreakerMinRequests), atomic.LoadInt32(&hits))

	_, err := client.Fetch(context.Background(), Request{Path: "/news/"})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(BreakerMinRequests), atomic.LoadInt32(&hits), "open breaker must not reach the API")
}

func TestClient_RateLimiterHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, RequestsPerSecond: 0.001, Burst: 1})

	_, err := client.Fetch(context.Background(), Request{Path: "/news/"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Fetch(ctx, Request{Path: "/news/"})
	assert.Error(t, err)
}

func TestRequest_KeyIsOrderIndependent(t *testing.T) {
	a := Request{Path: "/prices/", Params: url.Values{"ticker": {"AAPL"}, "interval": {"day"}}}
	b := Request{Path: "/prices/", Params: url.Values{"interval": {"day"}, "ticker": {"AAPL"}}}
	c := Request{Path: "/prices/", Params: url.Values{"ticker": {"MSFT"}, "interval": {"day"}}}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

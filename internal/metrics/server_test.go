package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	port := 9999

	server := NewServer(port, "test", nil, log)

	assert.NotNil(t, server)
	assert.Equal(t, port, server.port)
	assert.Nil(t, server.server) // Server not started yet
}

func TestHealthEndpoint(t *testing.T) {
	status := func() map[string]any {
		return map[string]any{"model_trained": true}
	}
	server := NewServer(0, "1.2.3", status, zerolog.Nop())

	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, true, body["model_trained"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestMetricsEndpoint(t *testing.T) {
	RecordClassification("rule", "High")
	RecordGatewayCall(GatewayLLM, nil, 12)

	server := NewServer(0, "test", nil, zerolog.Nop())
	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	body := rec.Body.String()
	assert.Contains(t, body, "# HELP")
	assert.Contains(t, body, "riskwise_classifications_total")
	assert.Contains(t, body, "riskwise_gateway_requests_total")
}

func TestServerStartAndShutdown(t *testing.T) {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	port := 9998

	server := NewServer(port, "test", nil, log)
	require.NoError(t, server.Start())
	assert.NotNil(t, server.server)

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/health", port))
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))

	time.Sleep(100 * time.Millisecond)
	resp2, err := http.Get(fmt.Sprintf("http://localhost:%d/health", port))
	if resp2 != nil {
		resp2.Body.Close()
	}
	assert.Error(t, err) // Should fail because server is stopped
}

func TestShutdownWithoutStart(t *testing.T) {
	server := NewServer(9994, "test", nil, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, server.Shutdown(ctx))
}

package exporter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Handler(t *testing.T) {
	t.Parallel()

	srv, err := NewServer(DefaultServerConfig(), NewCollector(stubFetcher{state: sampleState()}), nil)
	require.NoError(t, err)

	handler := srv.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "blueconnect_up 1")
	assert.Contains(t, rec.Body.String(), `blueconnect_measurement_value{issuer="blue",measurement="temperature",pool="abc"} 26.5`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestServer_StartStop(t *testing.T) {
	t.Parallel()

	cfg := DefaultServerConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.Path = "/pool"
	srv, err := NewServer(cfg, NewCollector(stubFetcher{state: sampleState()}), nil)
	require.NoError(t, err)

	assert.Empty(t, srv.Addr())
	require.NoError(t, srv.Start())
	require.NotEmpty(t, srv.Addr())

	resp, err := http.Get("http://" + srv.Addr() + "/pool")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "blueconnect_device_battery_low")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
}

func TestServer_StopBeforeStart(t *testing.T) {
	t.Parallel()

	srv, err := NewServer(DefaultServerConfig(), NewCollector(stubFetcher{}), nil)
	require.NoError(t, err)
	assert.NoError(t, srv.Stop(context.Background()))
}

func TestServer_StartInvalidAddr(t *testing.T) {
	t.Parallel()

	cfg := DefaultServerConfig()
	cfg.Addr = "not-an-address"
	srv, err := NewServer(cfg, NewCollector(stubFetcher{}), nil)
	require.NoError(t, err)
	assert.Error(t, srv.Start())
}

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-forward/internal/config"
)

func testSettings() *config.Settings {
	return &config.Settings{
		AmapAPIKey:          "test-key",
		AmapAPIURL:          "http://127.0.0.1:18001/v3/weather/weatherInfo",
		UpstreamTimeout:     time.Second,
		CacheTTL:            time.Minute,
		Port:                18000,
		ForecastEnabled:     true,
		CacheAdminEnabled:   true,
		ReadHeaderTimeout:   time.Second,
		ReadTimeout:         time.Second,
		WriteTimeout:        time.Second,
		IdleTimeout:         time.Second,
		ShutdownGracePeriod: time.Second,
	}
}

func TestNewApp_WiresServer(t *testing.T) {
	a := newApp(testSettings(), zap.NewNop().Sugar())

	require.NotNil(t, a.server)
	assert.Equal(t, ":18000", a.server.Addr)
	assert.Equal(t, time.Second, a.server.ReadHeaderTimeout)
	assert.Nil(t, a.sweeper, "sweeper is off when the interval is zero")
	assert.Equal(t, time.Minute, a.store.TTL())
}

func TestNewApp_SweeperEnabled(t *testing.T) {
	cfg := testSettings()
	cfg.CacheSweepInterval = time.Minute

	a := newApp(cfg, zap.NewNop().Sugar())
	assert.NotNil(t, a.sweeper)
}

func TestServerStartup(t *testing.T) {
	a := newApp(testSettings(), zap.NewNop().Sugar())
	server := httptest.NewServer(a.server.Handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(0), body["cache_items"])
}

func TestServerStartup_ValidationNeverReachesUpstream(t *testing.T) {
	a := newApp(testSettings(), zap.NewNop().Sugar())
	server := httptest.NewServer(a.server.Handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/weather/current/abc")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, a.store.Len())
}

func TestNewApp_UsesConfiguredUpstream(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "110000", r.URL.Query().Get("city"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"1","lives":[{"city":"北京市","adcode":"110000","temperature":"20","humidity":"40"}]}`))
	}))
	defer upstream.Close()

	cfg := testSettings()
	cfg.AmapAPIURL = upstream.URL + "/v3/weather/weatherInfo"
	a := newApp(cfg, zap.NewNop().Sugar())
	server := httptest.NewServer(a.server.Handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/weather/current/110000")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, a.store.Len())
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-forward/internal/adcode"
	"github.com/fakhrymubarak/weather-forward/internal/apperror"
	"github.com/fakhrymubarak/weather-forward/internal/cache"
	"github.com/fakhrymubarak/weather-forward/internal/model"
	"github.com/fakhrymubarak/weather-forward/internal/service"
)

// Mock service for testing
type mockWeatherService struct {
	err      error
	current  *model.CurrentWeather
	forecast *model.ForecastWeather
	status   cache.Status
	removed  int
	size     int
	panics   bool
}

func (m *mockWeatherService) GetCurrent(ctx context.Context, code string) (*model.CurrentWeather, error) {
	if m.panics {
		panic("unexpected")
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.current, nil
}

func (m *mockWeatherService) GetForecast(ctx context.Context, code string) (*model.ForecastWeather, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.forecast, nil
}

func (m *mockWeatherService) CacheStatus(code string) (cache.Status, error) {
	if m.err != nil {
		return cache.Status{}, m.err
	}
	return m.status, nil
}

func (m *mockWeatherService) InvalidateCache(code string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.removed, nil
}

func (m *mockWeatherService) CacheSize() int {
	return m.size
}

// Ensure mockWeatherService implements WeatherServiceInterface
var _ service.WeatherServiceInterface = (*mockWeatherService)(nil)

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestHandler(svc *mockWeatherService) *WeatherHandler {
	return &WeatherHandler{
		WeatherService: svc,
		Now:            func() time.Time { return fixedNow },
		Logger:         zap.NewNop().Sugar(),
		started:        fixedNow.Add(-90 * time.Second),
	}
}

func serve(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return rr, body
}

func allRoutes(svc *mockWeatherService) http.Handler {
	return NewRouter(newTestHandler(svc), RouteOptions{Forecast: true, CacheAdmin: true})
}

func TestNewWeatherHandler(t *testing.T) {
	handler := NewWeatherHandler()
	require.NotNil(t, handler)
	assert.NotNil(t, handler.WeatherService)
	assert.NotNil(t, handler.Logger)
}

func TestWeatherHandler_HandleCurrent(t *testing.T) {
	svc := &mockWeatherService{current: &model.CurrentWeather{
		Location: model.Location{City: "北京市", Adcode: "110000"},
		Weather:  model.Conditions{Description: "晴", Temperature: 20, Humidity: 40},
	}}

	rr, body := serve(t, allRoutes(svc), http.MethodGet, "/api/weather/current/110000")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(200), body["code"])
	assert.Equal(t, model.Timestamp(fixedNow), body["timestamp"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "北京市", data["location"].(map[string]interface{})["city"])
	assert.Equal(t, float64(20), data["weather"].(map[string]interface{})["temperature"])
	assert.NotContains(t, body, "message")
}

func TestWeatherHandler_HandleForecast(t *testing.T) {
	svc := &mockWeatherService{forecast: &model.ForecastWeather{
		Location:  model.Location{Adcode: "110000"},
		Forecasts: []model.ForecastDay{{Day: 1}, {Day: 2}, {Day: 3}},
	}}

	rr, body := serve(t, allRoutes(svc), http.MethodGet, "/api/weather/forecast/110000")

	assert.Equal(t, http.StatusOK, rr.Code)
	data := body["data"].(map[string]interface{})
	assert.Len(t, data["forecasts"], 3)
}

func TestWeatherHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "Validation",
			err:        apperror.New(apperror.NotNumeric, "adcode must contain digits only"),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "adcode must contain digits only",
		},
		{
			name:       "Timeout",
			err:        apperror.New(apperror.UpstreamTimeout, "amap api request timed out"),
			wantStatus: http.StatusGatewayTimeout,
			wantMsg:    "amap api request timed out",
		},
		{
			name:       "Connection",
			err:        apperror.New(apperror.UpstreamConnectionFailure, "amap api request failed"),
			wantStatus: http.StatusBadGateway,
			wantMsg:    "amap api request failed",
		},
		{
			name:       "Application",
			err:        apperror.New(apperror.UpstreamApplicationError, "amap api error: INVALID_USER_KEY"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "amap api error: INVALID_USER_KEY",
		},
		{
			name:       "Unclassified",
			err:        assert.AnError,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, body := serve(t, allRoutes(&mockWeatherService{err: tt.err}), http.MethodGet, "/api/weather/current/110000")

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, float64(tt.wantStatus), body["code"])
			assert.Equal(t, tt.wantMsg, body["message"])
			assert.NotContains(t, body, "data")
		})
	}
}

func TestWeatherHandler_HandleCacheStatus(t *testing.T) {
	svc := &mockWeatherService{status: cache.Status{
		Code:       adcode.Code("110000"),
		Current:    cache.ModeStatus{Cached: true, AgeSeconds: 12, ExpiresInSeconds: 1788},
		TotalItems: 1,
	}}

	rr, body := serve(t, allRoutes(svc), http.MethodGet, "/api/weather/cache/110000")

	assert.Equal(t, http.StatusOK, rr.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "110000", data["adcode"])
	assert.Equal(t, true, data["current_weather_cached"])
	assert.Equal(t, false, data["forecast_cached"])
	assert.Equal(t, float64(1), data["total_cache_items"])
	assert.Equal(t, float64(12), data["current_cache_age_seconds"])
	assert.Equal(t, float64(1788), data["current_cache_expires_in"])
	assert.NotContains(t, data, "forecast_cache_age_seconds")
	assert.NotContains(t, data, "forecast_cache_expires_in")
}

func TestWeatherHandler_HandleCacheInvalidate(t *testing.T) {
	for _, removed := range []int{0, 2} {
		rr, body := serve(t, allRoutes(&mockWeatherService{removed: removed}), http.MethodDelete, "/api/weather/cache/110000")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, true, body["success"])
		assert.Contains(t, body["message"], "cleared")
		assert.Contains(t, body["message"], "110000")
		assert.NotContains(t, body, "data")
	}

	_, body := serve(t, allRoutes(&mockWeatherService{removed: 2}), http.MethodDelete, "/api/weather/cache/110000")
	assert.Equal(t, "cleared 2 cache item(s) for 110000", body["message"])
}

func TestWeatherHandler_HandleHealth(t *testing.T) {
	rr, body := serve(t, allRoutes(&mockWeatherService{size: 4}), http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "weather-forward", body["service"])
	assert.Equal(t, "1m30s", body["uptime"])
	assert.Equal(t, float64(4), body["cache_items"])
	assert.Equal(t, model.Timestamp(fixedNow), body["timestamp"])
}

func TestWeatherHandler_HandleIndex(t *testing.T) {
	rr, body := serve(t, allRoutes(&mockWeatherService{}), http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "2.0.0", body["version"])
	assert.Contains(t, body, "endpoints")
	assert.Contains(t, body, "examples")
	assert.Contains(t, body, "documentation")
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	router := allRoutes(&mockWeatherService{})

	rr, body := serve(t, router, http.MethodGet, "/api/weather/unknown/110000")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, float64(404), body["code"])
	assert.Equal(t, "endpoint not found, check the URL", body["message"])

	rr, body = serve(t, router, http.MethodPost, "/api/weather/current/110000")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, float64(405), body["code"])
	assert.Equal(t, false, body["success"])
}

func TestRouter_DisabledEndpoints(t *testing.T) {
	router := NewRouter(newTestHandler(&mockWeatherService{}), RouteOptions{})

	rr, _ := serve(t, router, http.MethodGet, "/api/weather/forecast/110000")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr, _ = serve(t, router, http.MethodDelete, "/api/weather/cache/110000")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	rr, body := serve(t, allRoutes(&mockWeatherService{panics: true}), http.MethodGet, "/api/weather/current/110000")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal server error", body["message"])
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-forward/internal/apperror"
	"github.com/fakhrymubarak/weather-forward/internal/cache"
	"github.com/fakhrymubarak/weather-forward/internal/config"
	"github.com/fakhrymubarak/weather-forward/internal/model"
	"github.com/fakhrymubarak/weather-forward/internal/service"
)

const (
	serviceName    = "weather-forward"
	serviceVersion = "2.0.0"
)

type WeatherHandler struct {
	WeatherService service.WeatherServiceInterface
	Now            func() time.Time
	Logger         *zap.SugaredLogger
	started        time.Time
}

func NewWeatherHandler(svc ...service.WeatherServiceInterface) *WeatherHandler {
	var weatherService service.WeatherServiceInterface
	if len(svc) > 0 && svc[0] != nil {
		weatherService = svc[0]
	} else {
		weatherService = service.NewWeatherService(nil, nil)
	}
	return &WeatherHandler{
		WeatherService: weatherService,
		Now:            time.Now,
		Logger:         config.GetLogger(),
		started:        time.Now(),
	}
}

// CacheStatusResponse is the data payload of GET /api/weather/cache/{adcode}.
// Age and expiry fields are only set for modes that have an entry.
type CacheStatusResponse struct {
	Adcode                 string `json:"adcode"`
	CurrentWeatherCached   bool   `json:"current_weather_cached"`
	ForecastCached         bool   `json:"forecast_cached"`
	TotalCacheItems        int    `json:"total_cache_items"`
	CurrentCacheAgeSeconds *int   `json:"current_cache_age_seconds,omitempty"`
	CurrentCacheExpiresIn  *int   `json:"current_cache_expires_in,omitempty"`
	ForecastCacheAgeSecs   *int   `json:"forecast_cache_age_seconds,omitempty"`
	ForecastCacheExpiresIn *int   `json:"forecast_cache_expires_in,omitempty"`
}

func newCacheStatusResponse(s cache.Status) CacheStatusResponse {
	resp := CacheStatusResponse{
		Adcode:               s.Code.String(),
		CurrentWeatherCached: s.Current.Cached,
		ForecastCached:       s.Forecast.Cached,
		TotalCacheItems:      s.TotalItems,
	}
	if s.Current.Cached {
		age, expires := s.Current.AgeSeconds, s.Current.ExpiresInSeconds
		resp.CurrentCacheAgeSeconds, resp.CurrentCacheExpiresIn = &age, &expires
	}
	if s.Forecast.Cached {
		age, expires := s.Forecast.AgeSeconds, s.Forecast.ExpiresInSeconds
		resp.ForecastCacheAgeSecs, resp.ForecastCacheExpiresIn = &age, &expires
	}
	return resp
}

func (h *WeatherHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *WeatherHandler) logger() *zap.SugaredLogger {
	if h.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return h.Logger
}

func (h *WeatherHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger().Errorw("Could not encode JSON", "error", err)
	}
}

func (h *WeatherHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger().Errorw("Request failed", "path", r.URL.Path, "kind", apperror.KindOf(err), "error", err)
	}
	h.writeJSONResponse(w, status, model.NewErrorResponse(status, apperror.MessageOf(err), h.now()))
}

func (h *WeatherHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"service":     "AMap weather forwarding service",
		"version":     serviceVersion,
		"description": "Current weather and short-range forecasts by administrative code",
		"endpoints": map[string]string{
			"index":        "/",
			"health":       "/health",
			"current":      "/api/weather/current/<adcode>",
			"forecast":     "/api/weather/forecast/<adcode>",
			"cache_status": "/api/weather/cache/<adcode>",
			"cache_clear":  "DELETE /api/weather/cache/<adcode>",
		},
		"examples": map[string]string{
			"current":  "/api/weather/current/110000",
			"forecast": "/api/weather/forecast/110000",
		},
		"documentation": map[string]string{
			"adcode": "6-digit administrative code, e.g. 110000 (Beijing), 310000 (Shanghai)",
		},
		"timestamp": model.Timestamp(h.now()),
	})
}

func (h *WeatherHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"service":     serviceName,
		"uptime":      now.Sub(h.started).Truncate(time.Second).String(),
		"cache_items": h.WeatherService.CacheSize(),
		"timestamp":   model.Timestamp(now),
	})
}

func (h *WeatherHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	weather, err := h.WeatherService.GetCurrent(r.Context(), mux.Vars(r)["adcode"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, model.NewSuccessResponse(weather, h.now()))
}

func (h *WeatherHandler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	forecast, err := h.WeatherService.GetForecast(r.Context(), mux.Vars(r)["adcode"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, model.NewSuccessResponse(forecast, h.now()))
}

func (h *WeatherHandler) HandleCacheStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.WeatherService.CacheStatus(mux.Vars(r)["adcode"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, model.NewSuccessResponse(newCacheStatusResponse(status), h.now()))
}

func (h *WeatherHandler) HandleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["adcode"]
	removed, err := h.WeatherService.InvalidateCache(code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	msg := fmt.Sprintf("cleared %d cache item(s) for %s", removed, code)
	h.writeJSONResponse(w, http.StatusOK, model.NewMessageResponse(msg, h.now()))
}

func (h *WeatherHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, apperror.New(apperror.NotFound, "endpoint not found, check the URL"))
}

func (h *WeatherHandler) HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, apperror.New(apperror.MethodNotAllowed, "method not allowed"))
}

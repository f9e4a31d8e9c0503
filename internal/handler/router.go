package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fakhrymubarak/weather-forward/internal/middleware"
)

// RouteOptions toggles the optional endpoint groups.
type RouteOptions struct {
	Forecast   bool
	CacheAdmin bool
}

// NewRouter registers every endpoint on a gorilla/mux router and wraps it in
// the request-id, access-log and recovery middleware.
func NewRouter(h *WeatherHandler, opts RouteOptions) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", h.HandleIndex).Methods(http.MethodGet)
	r.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)

	r.HandleFunc("/api/weather/current/{adcode}", h.HandleCurrent).Methods(http.MethodGet)
	if opts.Forecast {
		r.HandleFunc("/api/weather/forecast/{adcode}", h.HandleForecast).Methods(http.MethodGet)
	}
	if opts.CacheAdmin {
		r.HandleFunc("/api/weather/cache/{adcode}", h.HandleCacheStatus).Methods(http.MethodGet)
		r.HandleFunc("/api/weather/cache/{adcode}", h.HandleCacheInvalidate).Methods(http.MethodDelete)
	}

	r.NotFoundHandler = http.HandlerFunc(h.HandleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.HandleMethodNotAllowed)

	return middleware.Chain(r,
		middleware.RequestID,
		middleware.RequestLogger(h.logger()),
		middleware.Recover(h.logger()),
	)
}

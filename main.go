package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-forward/internal/cache"
	"github.com/fakhrymubarak/weather-forward/internal/config"
	"github.com/fakhrymubarak/weather-forward/internal/handler"
	"github.com/fakhrymubarak/weather-forward/internal/repository"
	"github.com/fakhrymubarak/weather-forward/internal/service"
)

// app holds the wired components of one server process.
type app struct {
	server  *http.Server
	store   *cache.MemoryStore
	sweeper *cache.Sweeper
}

func newApp(cfg *config.Settings, logger *zap.SugaredLogger) *app {
	store := cache.NewMemoryStore(cfg.CacheTTL)
	repo := repository.NewWeatherRepositoryWithOptions(repository.Options{
		BaseURL: cfg.AmapAPIURL,
		APIKey:  cfg.AmapAPIKey,
		Timeout: cfg.UpstreamTimeout,
	}, &http.Client{})
	svc := service.NewWeatherService(repo, store)
	h := handler.NewWeatherHandler(svc)

	router := handler.NewRouter(h, handler.RouteOptions{
		Forecast:   cfg.ForecastEnabled,
		CacheAdmin: cfg.CacheAdminEnabled,
	})

	a := &app{
		server: &http.Server{
			Addr:              cfg.ListenAddr(),
			Handler:           router,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		store: store,
	}
	if cfg.CacheSweepInterval > 0 {
		a.sweeper = cache.NewSweeper(store, cfg.CacheSweepInterval, logger)
	}
	return a
}

func main() {
	logger := config.GetLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalw("Invalid configuration", "error", err)
	}

	logger.Infow("Starting weather forwarding service",
		"addr", cfg.ListenAddr(),
		"amap_api_url", cfg.AmapAPIURL,
		"amap_api_key", config.MaskKey(cfg.AmapAPIKey),
		"cache_ttl", cfg.CacheTTL,
		"sweep_interval", cfg.CacheSweepInterval,
		"debug", cfg.Debug,
	)

	a := newApp(cfg, logger)
	if a.sweeper != nil {
		if err := a.sweeper.Start(); err != nil {
			logger.Fatalw("Cannot start cache sweeper", "error", err)
		}
		defer a.sweeper.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("HTTP server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Infow("Shutting down", "cache_items", a.store.Len())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("Graceful shutdown failed", "error", err)
	}
}

package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-forward/internal/adcode"
	"github.com/fakhrymubarak/weather-forward/internal/cache"
	"github.com/fakhrymubarak/weather-forward/internal/config"
	"github.com/fakhrymubarak/weather-forward/internal/model"
	"github.com/fakhrymubarak/weather-forward/internal/repository"
)

// WeatherServiceInterface is what the HTTP layer needs from the service.
type WeatherServiceInterface interface {
	GetCurrent(ctx context.Context, code string) (*model.CurrentWeather, error)
	GetForecast(ctx context.Context, code string) (*model.ForecastWeather, error)
	CacheStatus(code string) (cache.Status, error)
	InvalidateCache(code string) (int, error)
	CacheSize() int
}

// WeatherService composes validation, the cache and the upstream repository.
type WeatherService struct {
	WeatherRepo repository.WeatherRepository
	Cache       cache.Store
	Now         func() time.Time
	Logger      *zap.SugaredLogger
}

// NewWeatherService wires a service; nil dependencies fall back to the configured defaults.
func NewWeatherService(repo repository.WeatherRepository, store cache.Store) *WeatherService {
	if repo == nil {
		repo = repository.NewWeatherRepository()
	}
	if store == nil {
		store = cache.NewMemoryStore(config.GetCacheTTL())
	}
	return &WeatherService{
		WeatherRepo: repo,
		Cache:       store,
		Now:         time.Now,
		Logger:      config.GetLogger(),
	}
}

func (s *WeatherService) GetCurrent(ctx context.Context, code string) (*model.CurrentWeather, error) {
	return fetchThrough(ctx, s, model.ModeCurrent, code, NormalizeCurrent)
}

func (s *WeatherService) GetForecast(ctx context.Context, code string) (*model.ForecastWeather, error) {
	return fetchThrough(ctx, s, model.ModeForecast, code, NormalizeForecast)
}

func (s *WeatherService) CacheStatus(code string) (cache.Status, error) {
	c, err := adcode.Validate(code)
	if err != nil {
		return cache.Status{}, err
	}
	return s.Cache.Status(c, s.now()), nil
}

// InvalidateCache removes every cached mode for the region. Removing nothing is not an error.
func (s *WeatherService) InvalidateCache(code string) (int, error) {
	c, err := adcode.Validate(code)
	if err != nil {
		return 0, err
	}
	removed := s.Cache.Invalidate(c)
	s.logger().Infow("Cache invalidated", "adcode", c, "removed", removed)
	return removed, nil
}

func (s *WeatherService) CacheSize() int {
	return s.Cache.Len()
}

func (s *WeatherService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *WeatherService) logger() *zap.SugaredLogger {
	if s.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return s.Logger
}

// fetchThrough serves a fresh cached payload or fetches, normalizes and caches a new one.
// Failures are returned as-is and never cached.
func fetchThrough[T model.NormalizedWeather](
	ctx context.Context,
	s *WeatherService,
	mode model.Mode,
	raw string,
	normalize func(*model.AmapResponse, adcode.Code) (T, error),
) (T, error) {
	var zero T

	code, err := adcode.Validate(raw)
	if err != nil {
		return zero, err
	}

	key := cache.Key{Mode: mode, Code: code}
	if cached, ok := s.Cache.Get(key, s.now()); ok {
		if payload, ok := cached.(T); ok {
			s.logger().Infow("Cache hit", "mode", mode, "adcode", code)
			return payload, nil
		}
	}

	s.logger().Infow("Calling AMap API", "mode", mode, "adcode", code)
	data, err := s.WeatherRepo.Fetch(ctx, mode, code)
	if err != nil {
		return zero, err
	}

	payload, err := normalize(data, code)
	if err != nil {
		s.logger().Errorw("Cannot normalize AMap response", "mode", mode, "adcode", code, "error", err)
		return zero, err
	}

	s.Cache.Put(key, s.now(), payload)
	s.logger().Infow("Weather query succeeded", "mode", mode, "adcode", code)
	return payload, nil
}

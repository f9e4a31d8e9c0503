package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-forward/internal/adcode"
	"github.com/fakhrymubarak/weather-forward/internal/apperror"
	"github.com/fakhrymubarak/weather-forward/internal/config"
	"github.com/fakhrymubarak/weather-forward/internal/model"
)

// Custom error types
var (
	ErrAPIKeyMissing = errors.New("AMAP_API_KEY not set")
)

// WeatherRepository defines the interface for upstream weather data access
type WeatherRepository interface {
	Fetch(ctx context.Context, mode model.Mode, code adcode.Code) (*model.AmapResponse, error)
}

// weatherRepository implements WeatherRepository against the AMap weatherInfo API
type weatherRepository struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	timeout    time.Duration
	logger     *zap.SugaredLogger
}

// Options configures the upstream client.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewWeatherRepository creates a new weather repository instance from the global config
func NewWeatherRepository(httpClient ...*http.Client) WeatherRepository {
	var client *http.Client
	if len(httpClient) > 0 {
		client = httpClient[0]
	}
	return NewWeatherRepositoryWithOptions(Options{
		BaseURL: config.GetAmapApiUrl(),
		APIKey:  config.GetAmapAPIKey(),
		Timeout: config.GetUpstreamTimeout(),
	}, client)
}

// NewWeatherRepositoryWithOptions creates a repository from explicit settings.
// A nil client uses http.DefaultClient.
func NewWeatherRepositoryWithOptions(opts Options, httpClient *http.Client) WeatherRepository {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &weatherRepository{
		httpClient: httpClient,
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		timeout:    opts.Timeout,
		logger:     config.GetLogger(),
	}
}

// Fetch issues exactly one bounded call and classifies every failure.
// A successful return always carries the data array the mode asked for.
func (r *weatherRepository) Fetch(ctx context.Context, mode model.Mode, code adcode.Code) (*model.AmapResponse, error) {
	if r.apiKey == "" {
		return nil, apperror.Wrap(apperror.UnclassifiedServerError, ErrAPIKeyMissing, "amap api key is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.requestURL(mode, code), nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.UnclassifiedServerError, err, "cannot build amap request")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, r.classifyTransportError(mode, code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.logger.Errorw("AMap API returned HTTP error", "mode", mode, "adcode", code, "status", resp.StatusCode)
		return nil, apperror.Newf(apperror.UpstreamConnectionFailure, "amap api request failed: HTTP %d", resp.StatusCode)
	}

	var data model.AmapResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		if isTimeout(err) {
			return nil, r.classifyTransportError(mode, code, err)
		}
		r.logger.Errorw("AMap API returned invalid data", "mode", mode, "adcode", code, "error", err)
		return nil, apperror.Wrap(apperror.MalformedField, err, "amap api returned invalid data")
	}

	if !data.Succeeded() {
		info := data.Info
		if info == "" {
			info = "unknown error"
		}
		r.logger.Errorw("AMap API error", "mode", mode, "adcode", code, "info", info, "infocode", data.InfoCode)
		return nil, apperror.Newf(apperror.UpstreamApplicationError, "amap api error: %s", info)
	}

	if !hasData(mode, &data) {
		r.logger.Warnw("No weather data returned", "mode", mode, "adcode", code)
		return nil, apperror.Newf(apperror.NoDataAvailable, "no %s weather data available for %s", mode, code)
	}

	return &data, nil
}

func (r *weatherRepository) requestURL(mode model.Mode, code adcode.Code) string {
	values := url.Values{}
	values.Set("key", r.apiKey)
	values.Set("city", code.String())
	values.Set("extensions", mode.Extensions())
	values.Set("output", "JSON")
	return fmt.Sprintf("%s?%s", r.baseURL, values.Encode())
}

func (r *weatherRepository) classifyTransportError(mode model.Mode, code adcode.Code, err error) error {
	if isTimeout(err) {
		r.logger.Errorw("AMap API request timed out", "mode", mode, "adcode", code, "timeout", r.timeout)
		return apperror.Wrap(apperror.UpstreamTimeout, err, "amap api request timed out")
	}
	r.logger.Errorw("AMap API connection failed", "mode", mode, "adcode", code, "error", err)
	return apperror.Wrap(apperror.UpstreamConnectionFailure, err, "cannot connect to amap api")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func hasData(mode model.Mode, data *model.AmapResponse) bool {
	if mode == model.ModeForecast {
		return len(data.Forecasts) > 0 && len(data.Forecasts[0].Casts) > 0
	}
	return len(data.Lives) > 0
}

package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var once sync.Once
var logger *zap.SugaredLogger
var loggerOnce sync.Once

var validate = validator.New()

// Settings is the validated startup configuration.
type Settings struct {
	AmapAPIKey          string        `validate:"required"`
	AmapAPIURL          string        `validate:"required,url"`
	UpstreamTimeout     time.Duration `validate:"gt=0"`
	CacheTTL            time.Duration `validate:"gt=0"`
	CacheSweepInterval  time.Duration `validate:"gte=0"`
	Port                int           `validate:"min=1,max=65535"`
	Debug               bool
	ForecastEnabled     bool
	CacheAdminEnabled   bool
	ReadHeaderTimeout   time.Duration `validate:"gt=0"`
	ReadTimeout         time.Duration `validate:"gt=0"`
	WriteTimeout        time.Duration `validate:"gt=0"`
	IdleTimeout         time.Duration `validate:"gt=0"`
	ShutdownGracePeriod time.Duration `validate:"gt=0"`
}

// ListenAddr returns the address the HTTP server binds to.
func (s Settings) ListenAddr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// isTestRun returns true if the current process is a Go test binary.
func isTestRun() bool {
	return flag.Lookup("test.v") != nil || filepath.Ext(os.Args[0]) == ".test"
}

func setDefaults() {
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.debug", false)
	viper.SetDefault("server.read_header_timeout", "15s")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.idle_timeout", "30s")
	viper.SetDefault("server.shutdown_timeout", "10s")
	viper.SetDefault("amap.api_url", "https://restapi.amap.com/v3/weather/weatherInfo")
	viper.SetDefault("amap.timeout", "5s")
	viper.SetDefault("cache.timeout_seconds", 1800)
	viper.SetDefault("cache.sweep_interval", "0s")
	viper.SetDefault("endpoints.forecast", true)
	viper.SetDefault("endpoints.cache_admin", true)
}

func bindEnv() {
	_ = viper.BindEnv("server.port", "PORT")
	_ = viper.BindEnv("server.debug", "DEBUG")
	_ = viper.BindEnv("cache.timeout_seconds", "CACHE_TIMEOUT")
	_ = viper.BindEnv("cache.sweep_interval", "CACHE_SWEEP_INTERVAL")
	_ = viper.BindEnv("amap.api_url", "AMAP_API_URL")
}

func initConfig() {
	once.Do(func() {
		_ = godotenv.Load()
		setDefaults()
		bindEnv()

		root, err := getProjectRoot()
		if err != nil {
			GetLogger().Warnw("Project root not found, using defaults", "error", err)
			return
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
		viper.AddConfigPath(root)
		if err = viper.ReadInConfig(); err != nil {
			GetLogger().Warnw("Error reading config file, using defaults", "error", err)
		}

		if isTestRun() {
			viper.SetConfigName("config_test")
			if err = viper.MergeInConfig(); err != nil {
				GetLogger().Warnw("Error merging test config file", "error", err)
			}
		}
	})
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func GetAmapApiUrl() string {
	initConfig()
	return viper.GetString("amap.api_url")
}

func GetAmapAPIKey() string {
	_ = godotenv.Load()
	return os.Getenv("AMAP_API_KEY")
}

// GetUpstreamTimeout bounds a single upstream call. Defaults to 5s if unset or invalid.
func GetUpstreamTimeout() time.Duration {
	initConfig()
	return durationOr("amap.timeout", 5*time.Second)
}

// GetCacheTTL returns how long a cached payload stays fresh.
// Non-positive or non-integer values are passed through for Load to reject.
func GetCacheTTL() time.Duration {
	initConfig()
	seconds := viper.GetInt("cache.timeout_seconds")
	if seconds <= 0 {
		GetLogger().Warnw("Invalid cache timeout in config", "key", "cache.timeout_seconds", "value", viper.GetString("cache.timeout_seconds"))
	}
	return time.Duration(seconds) * time.Second
}

// GetCacheSweepInterval returns 0 when background sweeping is disabled.
func GetCacheSweepInterval() time.Duration {
	initConfig()
	return durationOr("cache.sweep_interval", 0)
}

func GetServerPort() int {
	initConfig()
	return viper.GetInt("server.port")
}

func IsDebug() bool {
	initConfig()
	return viper.GetBool("server.debug")
}

func GetServerTimeout(key string) time.Duration {
	initConfig()
	return durationOr("server."+key, 0)
}

// IsEndpointEnabled reports whether an optional endpoint group ("forecast", "cache_admin") is served.
func IsEndpointEnabled(name string) bool {
	initConfig()
	return viper.GetBool("endpoints." + name)
}

func durationOr(key string, def time.Duration) time.Duration {
	durStr := viper.GetString(key)
	if durStr == "" {
		return def
	}
	dur, err := time.ParseDuration(durStr)
	if err != nil {
		GetLogger().Warnw("Invalid duration in config, using default", "key", key, "value", durStr, "default", def)
		return def
	}
	return dur
}

// Load assembles and validates the settings the server needs at startup.
func Load() (*Settings, error) {
	s := &Settings{
		AmapAPIKey:          GetAmapAPIKey(),
		AmapAPIURL:          GetAmapApiUrl(),
		UpstreamTimeout:     GetUpstreamTimeout(),
		CacheTTL:            GetCacheTTL(),
		CacheSweepInterval:  GetCacheSweepInterval(),
		Port:                GetServerPort(),
		Debug:               IsDebug(),
		ForecastEnabled:     IsEndpointEnabled("forecast"),
		CacheAdminEnabled:   IsEndpointEnabled("cache_admin"),
		ReadHeaderTimeout:   GetServerTimeout("read_header_timeout"),
		ReadTimeout:         GetServerTimeout("read_timeout"),
		WriteTimeout:        GetServerTimeout("write_timeout"),
		IdleTimeout:         GetServerTimeout("idle_timeout"),
		ShutdownGracePeriod: GetServerTimeout("shutdown_timeout"),
	}
	if err := validate.Struct(s); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

// ReloadConfigForTest resets the config singleton and reloads Viper config. Use only in tests.
func ReloadConfigForTest() {
	once = sync.Once{}
	initConfig()
}

func GetLogger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		var (
			l   *zap.Logger
			err error
		)
		if isTestRun() || strings.EqualFold(os.Getenv("DEBUG"), "true") {
			l, err = zap.NewDevelopment()
		} else {
			l, err = zap.NewProduction()
		}
		if err != nil {
			panic(err)
		}
		logger = l.Sugar()
	})
	return logger
}

// MaskKey hides all but the edges of an API key for startup logs.
func MaskKey(key string) string {
	if len(key) <= 10 {
		return "***"
	}
	return key[:5] + "***" + key[len(key)-5:]
}

package model

import "encoding/json"

// Mode selects the upstream query scope.
type Mode string

const (
	ModeCurrent  Mode = "current"
	ModeForecast Mode = "forecast"
)

// Extensions returns the AMap "extensions" parameter for the mode.
func (m Mode) Extensions() string {
	if m == ModeForecast {
		return "all"
	}
	return "base"
}

// MaxForecastDays caps the number of forecast days returned to clients.
const MaxForecastDays = 3

// NormalizedWeather is a payload held by the cache and served to clients.
type NormalizedWeather interface {
	Mode() Mode
}

type Location struct {
	Adcode   string `json:"adcode"`
	Province string `json:"province"`
	City     string `json:"city"`
	District string `json:"district"`
}

type Conditions struct {
	Description       string `json:"description"`
	Temperature       int    `json:"temperature"`
	Humidity          int    `json:"humidity"`
	WindDirection     string `json:"wind_direction"`
	WindDirectionCode string `json:"wind_direction_code"`
	WindPower         string `json:"wind_power"`
	WindSpeed         string `json:"wind_speed"`
}

// CurrentWeather is the normalized live report for one region.
type CurrentWeather struct {
	Location   Location        `json:"location"`
	Weather    Conditions      `json:"weather"`
	ReportTime string          `json:"report_time"`
	LiveIndex  json.RawMessage `json:"live_index"`
}

func (*CurrentWeather) Mode() Mode { return ModeCurrent }

type ForecastDay struct {
	Day                int    `json:"day"`
	Date               string `json:"date"`
	WeatherDay         string `json:"weather_day"`
	WeatherNight       string `json:"weather_night"`
	TemperatureHigh    int    `json:"temperature_high"`
	TemperatureLow     int    `json:"temperature_low"`
	WindDirectionDay   string `json:"wind_direction_day"`
	WindDirectionNight string `json:"wind_direction_night"`
	WindPowerDay       string `json:"wind_power_day"`
	WindPowerNight     string `json:"wind_power_night"`
}

// ForecastWeather is the normalized multi-day outlook for one region.
type ForecastWeather struct {
	Location    Location      `json:"location"`
	PublishTime string        `json:"publish_time"`
	Forecasts   []ForecastDay `json:"forecasts"`
}

func (*ForecastWeather) Mode() Mode { return ModeForecast }

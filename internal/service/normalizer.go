package service

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/fakhrymubarak/weather-forward/internal/adcode"
	"github.com/fakhrymubarak/weather-forward/internal/apperror"
	"github.com/fakhrymubarak/weather-forward/internal/model"
)

var emptyLiveIndex = json.RawMessage(`[]`)

// NormalizeCurrent maps the first live report onto the service schema.
// Absent attributes default to "" or 0; a present non-integer numeric is a MalformedField error.
func NormalizeCurrent(raw *model.AmapResponse, code adcode.Code) (*model.CurrentWeather, error) {
	if raw == nil || len(raw.Lives) == 0 {
		return nil, apperror.Newf(apperror.NoDataAvailable, "no current weather data available for %s", code)
	}
	live := raw.Lives[0]

	temperature, err := parseInt("temperature", live.Temperature)
	if err != nil {
		return nil, err
	}
	humidity, err := parseInt("humidity", live.Humidity)
	if err != nil {
		return nil, err
	}

	return &model.CurrentWeather{
		Location: model.Location{
			Adcode:   live.Adcode.TextOr(code.String()),
			Province: live.Province.Text(),
			City:     live.City.Text(),
			District: live.District.Text(),
		},
		Weather: model.Conditions{
			Description:       live.Weather.Text(),
			Temperature:       temperature,
			Humidity:          humidity,
			WindDirection:     live.WindDirection.Text(),
			WindDirectionCode: live.WindCode.Text(),
			WindPower:         live.WindPower.Text(),
			WindSpeed:         live.WindSpeed.Text(),
		},
		ReportTime: live.ReportTime.Text(),
		LiveIndex:  liveIndex(live.LiveIndex),
	}, nil
}

// NormalizeForecast keeps at most model.MaxForecastDays casts, numbered from 1 in upstream order.
func NormalizeForecast(raw *model.AmapResponse, code adcode.Code) (*model.ForecastWeather, error) {
	if raw == nil || len(raw.Forecasts) == 0 || len(raw.Forecasts[0].Casts) == 0 {
		return nil, apperror.Newf(apperror.NoDataAvailable, "no forecast weather data available for %s", code)
	}
	forecast := raw.Forecasts[0]

	casts := forecast.Casts
	if len(casts) > model.MaxForecastDays {
		casts = casts[:model.MaxForecastDays]
	}

	days := make([]model.ForecastDay, 0, len(casts))
	for i, cast := range casts {
		high, err := parseInt("daytemp", cast.DayTemp)
		if err != nil {
			return nil, err
		}
		low, err := parseInt("nighttemp", cast.NightTemp)
		if err != nil {
			return nil, err
		}
		days = append(days, model.ForecastDay{
			Day:                i + 1,
			Date:               cast.Date.Text(),
			WeatherDay:         cast.DayWeather.Text(),
			WeatherNight:       cast.NightWeather.Text(),
			TemperatureHigh:    high,
			TemperatureLow:     low,
			WindDirectionDay:   cast.DayWind.Text(),
			WindDirectionNight: cast.NightWind.Text(),
			WindPowerDay:       cast.DayPower.Text(),
			WindPowerNight:     cast.NightPower.Text(),
		})
	}

	return &model.ForecastWeather{
		Location: model.Location{
			Adcode:   forecast.Adcode.TextOr(code.String()),
			Province: forecast.Province.Text(),
			City:     forecast.City.Text(),
			District: forecast.District.Text(),
		},
		PublishTime: forecast.ReportTime.Text(),
		Forecasts:   days,
	}, nil
}

// parseInt treats an absent value as 0. A present value, blank included, must be an integer.
func parseInt(name string, f model.Field) (int, error) {
	if !f.Present {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(f.Value))
	if err != nil {
		return 0, apperror.Wrap(apperror.MalformedField, err, "amap api returned a non-numeric "+name+": "+strconv.Quote(f.Value))
	}
	return n, nil
}

func liveIndex(raw json.RawMessage) json.RawMessage {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "[") {
		return emptyLiveIndex
	}
	return json.RawMessage(trimmed)
}

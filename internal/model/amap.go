package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AmapResponse mirrors the weatherInfo payload. Field names are the provider's contract.
type AmapResponse struct {
	Status    string         `json:"status"`
	Count     string         `json:"count"`
	Info      string         `json:"info"`
	InfoCode  string         `json:"infocode"`
	Lives     []AmapLive     `json:"lives"`
	Forecasts []AmapForecast `json:"forecasts"`
}

// Succeeded reports the provider's own success flag, independent of the HTTP status.
func (r *AmapResponse) Succeeded() bool {
	return r.Status == "1"
}

type AmapLive struct {
	Province      Field           `json:"province"`
	City          Field           `json:"city"`
	Adcode        Field           `json:"adcode"`
	District      Field           `json:"district"`
	Weather       Field           `json:"weather"`
	Temperature   Field           `json:"temperature"`
	WindDirection Field           `json:"winddirection"`
	WindCode      Field           `json:"windcode"`
	WindPower     Field           `json:"windpower"`
	WindSpeed     Field           `json:"windspeed"`
	Humidity      Field           `json:"humidity"`
	ReportTime    Field           `json:"reporttime"`
	LiveIndex     json.RawMessage `json:"live_index"`
}

type AmapForecast struct {
	City       Field      `json:"city"`
	Adcode     Field      `json:"adcode"`
	Province   Field      `json:"province"`
	District   Field      `json:"district"`
	ReportTime Field      `json:"reporttime"`
	Casts      []AmapCast `json:"casts"`
}

type AmapCast struct {
	Date         Field `json:"date"`
	Week         Field `json:"week"`
	DayWeather   Field `json:"dayweather"`
	NightWeather Field `json:"nightweather"`
	DayTemp      Field `json:"daytemp"`
	NightTemp    Field `json:"nighttemp"`
	DayWind      Field `json:"daywind"`
	NightWind    Field `json:"nightwind"`
	DayPower     Field `json:"daypower"`
	NightPower   Field `json:"nightpower"`
}

// Field is a loosely typed upstream attribute that remembers whether it was sent.
// AMap encodes values as strings and uses [] for "no value".
type Field struct {
	Value   string
	Present bool
}

// Text returns the value, or "" when the field was absent.
func (f Field) Text() string {
	return f.Value
}

// TextOr returns the value, or def when the field was absent.
func (f Field) TextOr(def string) string {
	if !f.Present {
		return def
	}
	return f.Value
}

func (f *Field) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = Field{}
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Field{Value: s, Present: true}
	case '[':
		*f = Field{}
	case '{', 't', 'f':
		return fmt.Errorf("unsupported field value %s", b)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*f = Field{Value: n.String(), Present: true}
	}
	return nil
}

func (f Field) MarshalJSON() ([]byte, error) {
	if !f.Present {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

package adcode

import "github.com/fakhrymubarak/weather-forward/internal/apperror"

// Length is the number of digits in an administrative division code.
const Length = 6

// Code is a validated 6-digit administrative division code, e.g. "110000" for Beijing.
type Code string

func (c Code) String() string {
	return string(c)
}

// Validate checks raw in order: presence, digits only, then length.
func Validate(raw string) (Code, error) {
	if raw == "" {
		return "", apperror.New(apperror.MissingParameter, "adcode parameter is missing")
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return "", apperror.New(apperror.NotNumeric, "adcode must contain digits only")
		}
	}
	if len(raw) != Length {
		return "", apperror.New(apperror.WrongLength, "adcode must be exactly 6 digits")
	}
	return Code(raw), nil
}

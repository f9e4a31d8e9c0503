package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of failure categories the service reports to clients.
type Kind int

const (
	UnclassifiedServerError Kind = iota
	MissingParameter
	NotNumeric
	WrongLength
	UpstreamTimeout
	UpstreamConnectionFailure
	UpstreamApplicationError
	NoDataAvailable
	MalformedField
	NotFound
	MethodNotAllowed
)

var kindNames = map[Kind]string{
	UnclassifiedServerError:   "UnclassifiedServerError",
	MissingParameter:          "MissingParameter",
	NotNumeric:                "NotNumeric",
	WrongLength:               "WrongLength",
	UpstreamTimeout:           "UpstreamTimeout",
	UpstreamConnectionFailure: "UpstreamConnectionFailure",
	UpstreamApplicationError:  "UpstreamApplicationError",
	NoDataAvailable:           "NoDataAvailable",
	MalformedField:            "MalformedField",
	NotFound:                  "NotFound",
	MethodNotAllowed:          "MethodNotAllowed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// HTTPStatus returns the response status used for errors of this kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case MissingParameter, NotNumeric, WrongLength:
		return http.StatusBadRequest
	case UpstreamTimeout:
		return http.StatusGatewayTimeout
	case UpstreamConnectionFailure:
		return http.StatusBadGateway
	case NotFound:
		return http.StatusNotFound
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// IsValidation reports whether the kind is a client-correctable input error.
func (k Kind) IsValidation() bool {
	return k == MissingParameter || k == NotNumeric || k == WrongLength
}

// Error is a classified failure. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: NoDataAvailable}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind, keeping it as the cause.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or UnclassifiedServerError.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return UnclassifiedServerError
}

// MessageOf returns the client-facing message for err. Unclassified errors get a generic text.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// StatusOf is shorthand for KindOf(err).HTTPStatus().
func StatusOf(err error) int {
	return KindOf(err).HTTPStatus()
}

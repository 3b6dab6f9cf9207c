package exchange

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error is the boundary error raised for HTTP failures and non-success status
// payloads reported by the exchange.
type Error struct {
	// Message is the human readable reason reported by the venue.
	Message string
	// Code is the venue status code, e.g. "5600".
	Code string
	// HTTPStatus is the transport status, zero when the failure was in the payload.
	HTTPStatus int
	Payload    json.RawMessage
}

func (e *Error) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("exchange error %s: %s", e.Code, e.Message)
	case e.HTTPStatus != 0:
		return fmt.Sprintf("exchange http %d: %s", e.HTTPStatus, e.Message)
	default:
		return "exchange error: " + e.Message
	}
}

// IsExchangeError reports whether err carries an *Error.
func IsExchangeError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

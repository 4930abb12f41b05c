package api

import (
	"errors"
	"fmt"
)

// DefaultErrorMessage is used when a failed response carries no message.
const DefaultErrorMessage = "Request failed"

var (
	// ErrProtocol marks a 2xx response whose body does not match the
	// expected shape for the endpoint.
	ErrProtocol = errors.New("protocol error")
	// ErrTransport marks a failure to reach the backend at all.
	ErrTransport = errors.New("transport error")
)

// Error is a non-2xx response from the backend. Message is passed through
// verbatim from the body's "error" or "message" field.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// StatusCode extracts the HTTP status from err, or 0 if err is not an *Error.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsTransport reports whether err came from the transport layer.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsProtocol reports whether err is a malformed response.
func IsProtocol(err error) bool {
	return errors.Is(err, ErrProtocol)
}

func protocolError(endpoint string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrProtocol, endpoint, err)
}

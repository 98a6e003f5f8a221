package apiclient

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport means no usable response came back from the backend.
	ErrTransport = errors.New("backend unreachable")
	// ErrDecode means the backend answered with a body of the wrong shape.
	ErrDecode = errors.New("invalid backend response")
	// ErrNotFound is returned for a detail lookup of an unknown record.
	ErrNotFound = errors.New("bourse not found")
)

// APIError is an application-level failure reported by the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend refused request (status %d)", e.Status)
	}
	return e.Message
}

// Message returns the user-facing text for err, or fallback when the error
// carries no server message.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

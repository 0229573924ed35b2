package client

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	// Message is the body's "message" (or "error") field, or the raw body
	// when the body was not a JSON error object.
	Message string
	// Structured is true when Message came from a JSON error field.
	Structured bool
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// TransportError means the request never produced an HTTP response we could
// use: connection failure, timeout, cancellation, or an undecodable body.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// IsUnauthorized reports whether the API rejected the session.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// UnexpectedMessage is shown for failures that did not come from the client.
const UnexpectedMessage = "An unexpected error occurred"

// UserMessage turns err into inline text: the API's own message when it sent
// one, fallback for any other API or network failure, and a generic line for
// errors that did not come from the client at all.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Structured && httpErr.Message != "" {
			return httpErr.Message
		}
		return fallback
	}
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return fallback
	}
	return UnexpectedMessage
}

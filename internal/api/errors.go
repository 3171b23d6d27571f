// Package api provides the remote client for the images API and its error taxonomy.
package api

import (
	"errors"
	"fmt"
	nethttp "net/http"
)

// Sentinel errors every Remote implementation maps its failures onto.
var (
	// ErrAuthRequired means the session is missing or expired (HTTP 401).
	// It must reach the user so they log in again; it is never retried.
	ErrAuthRequired = errors.New("authentication required")

	// ErrNotFound means the folder or image does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrTransport covers network failures and any other non-2xx response.
	ErrTransport = errors.New("transport error")
)

// StatusError carries the HTTP status and body of a failed call.
// errors.Is matches it against the sentinel its status maps to.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s failed: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s failed: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Is maps the status code onto the sentinel taxonomy.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrAuthRequired:
		return e.StatusCode == nethttp.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == nethttp.StatusNotFound
	case ErrTransport:
		return e.StatusCode != nethttp.StatusUnauthorized && e.StatusCode != nethttp.StatusNotFound
	}
	return false
}

// IsAuthError reports whether err means the user must log in again.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthRequired)
}

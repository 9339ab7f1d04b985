package reports

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is matched by API errors for unknown jobs.
	ErrNotFound = errors.New("job not found")
	// ErrUnauthorized is matched by API errors for missing or rejected tokens.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is returned when the backend answers with a 4xx or 5xx status.
type APIError struct {
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api %s returned status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.StatusCode, e.Message)
}

// Unwrap maps well-known statuses onto the package sentinels.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return nil
	}
}

// Temporary reports whether repeating the request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

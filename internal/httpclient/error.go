package httpclient

import (
	goerrors "errors"
	"fmt"

	ierr "github.com/flexprice/ledger/internal/errors"
)

// Error is returned for non-2xx responses
type Error struct {
	StatusCode int
	Response   []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("http client error: status %d", e.StatusCode)
}

// Unwrap makes every Error match ierr.ErrHTTPClient
func (e *Error) Unwrap() error {
	return ierr.ErrHTTPClient
}

// NewError creates a new HTTP client error
func NewError(statusCode int, response []byte) *Error {
	return &Error{
		StatusCode: statusCode,
		Response:   response,
	}
}

// IsHTTPError checks if an error is an HTTP client error
func IsHTTPError(err error) (*Error, bool) {
	var httpErr *Error
	if goerrors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

package transport

import (
	"errors"
	"fmt"
)

const (
	// DefaultErrorCode is used when a failed response carries no error.code.
	DefaultErrorCode = "HTTP_ERROR"
	// DefaultErrorMessage is used when a failed response carries no error.message.
	DefaultErrorMessage = "Unexpected API error."
)

// ApiError is returned for any response outside the 2xx range: the server was
// reached and said no.
type ApiError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]any
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// NetworkError is returned when the server could not be reached at all
// (DNS, connection refused, timeout, cancelled context).
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error on %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// AsApiError extracts an *ApiError from err's chain.
func AsApiError(err error) (*ApiError, bool) {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNetworkError reports whether err is, or wraps, a *NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsStatus reports whether err is an *ApiError with the given HTTP status.
func IsStatus(err error, statusCode int) bool {
	apiErr, ok := AsApiError(err)
	return ok && apiErr.StatusCode == statusCode
}

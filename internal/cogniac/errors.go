package cogniac

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Sentinel errors for the API failure taxonomy. Use errors.Is to match;
// the concrete error carries the status code and response body.
var (
	// ErrCredentials indicates invalid or missing username/password/API key.
	ErrCredentials = errors.New("invalid credentials")
	// ErrNotFound indicates the requested resource does not exist for the tenant.
	ErrNotFound = errors.New("not found")
	// ErrServer indicates a 5xx response from the service.
	ErrServer = errors.New("server error")
)

// APIError is a non-2xx response from the Cogniac API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode >= 500:
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Body)
	case e.StatusCode == http.StatusUnauthorized:
		return fmt.Sprintf("invalid credentials (%d): %s", e.StatusCode, e.Body)
	case e.StatusCode == http.StatusNotFound:
		return fmt.Sprintf("not found (%d): %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("client error (%d): %s", e.StatusCode, e.Body)
	}
}

// Is maps status codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrCredentials:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrServer:
		return e.StatusCode >= 500
	}
	return false
}

// checkResponse returns an *APIError for non-2xx responses, consuming up to
// a bounded amount of the body for the error message.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

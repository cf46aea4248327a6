package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrSessionExpired is wrapped by every error produced when the refresh
	// endpoint could not mint a new access token. The local session has been
	// cleared by the time callers observe it.
	ErrSessionExpired = errors.New("session expired")

	// ErrNotAuthenticated is returned by operations that need an access token
	// when the session holds none.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrBedNotFound is returned when a bed number is unknown to the data source.
	ErrBedNotFound = errors.New("bed not found")

	// ErrPatientNotFound is returned when a patient code is unknown to the data source.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrInvalidBedState is returned when a bed operation does not apply to
	// the bed's current status.
	ErrInvalidBedState = errors.New("invalid bed state")
)

// maxErrorBody bounds how much of a failed response body is kept for diagnostics.
const maxErrorBody = 4096

// APIError describes a non-2xx response from the dashboard API.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	// Detail is the server-provided "detail" message when the body is JSON,
	// otherwise the raw (truncated) body.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
}

// IsUnauthorized reports whether err is an APIError carrying HTTP 401.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsNotFound reports whether err is an APIError carrying HTTP 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// StatusCode extracts the HTTP status from an APIError chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// newAPIError consumes and closes the response body.
func newAPIError(method, path string, resp *http.Response) *APIError {
	defer resp.Body.Close()

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Method:     method,
		Path:       path,
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var payload struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Detail != nil {
		switch d := payload.Detail.(type) {
		case string:
			apiErr.Detail = d
		default:
			encoded, _ := json.Marshal(d)
			apiErr.Detail = string(encoded)
		}
		return apiErr
	}

	apiErr.Detail = strings.TrimSpace(string(body))
	return apiErr
}

package integrations

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrEmptyID is returned before any request is made when an id is blank.
	ErrEmptyID = errors.New("integration id is required")

	// ErrStateExpired is a client-side hint that an OAuth state is too old to
	// be worth exchanging. It is not a security check.
	ErrStateExpired = errors.New("oauth state expired")

	// ErrForeignState means the callback state does not follow the
	// provider:integration_type:timestamp:nonce convention.
	ErrForeignState = errors.New("oauth state not recognised")

	// ErrUnexpectedAuthHost means the authorization URL returned by the
	// backend does not point at the provider's consent screen.
	ErrUnexpectedAuthHost = errors.New("authorization url host does not match provider")
)

// APIError is a failed request to the integrations backend. Transport
// failures carry ErrNetworkError and a zero StatusCode.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       []byte
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// newAPIError builds an APIError from a non-2xx response body.
func newAPIError(status int, body []byte) *APIError {
	code := ErrAPIError
	if status == http.StatusUnauthorized {
		code = ErrTokenExpired
	}
	return &APIError{
		StatusCode: status,
		Code:       code,
		Message:    extractErrorMessage(status, body),
		Body:       body,
	}
}

// extractErrorMessage pulls a human message out of a backend error body:
// "error", then "detail", then the first field error, then the status text.
func extractErrorMessage(status int, body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"error", "detail"} {
			var s string
			if raw, ok := payload[key]; ok && json.Unmarshal(raw, &s) == nil && s != "" {
				return s
			}
		}

		// Serializer errors: {"field": ["message", ...]}
		fields := make([]string, 0, len(payload))
		for k := range payload {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		for _, field := range fields {
			var msgs []string
			if json.Unmarshal(payload[field], &msgs) == nil && len(msgs) > 0 {
				return fmt.Sprintf("%s: %s", field, msgs[0])
			}
		}
	}

	if text := http.StatusText(status); text != "" {
		return strings.ToLower(text)
	}
	return fmt.Sprintf("unexpected status %d", status)
}

// ValidationError is a client-side form validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FormatIntegrationError returns the message a view shows for err.
func FormatIntegrationError(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "An unexpected error occurred"
}

// ErrorCode maps err to one of the machine-readable error codes.
func ErrorCode(err error) string {
	var apiErr *APIError
	var valErr *ValidationError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code
	case errors.As(err, &valErr), errors.Is(err, ErrEmptyID):
		return ErrValidation
	case errors.Is(err, ErrStateExpired), errors.Is(err, ErrForeignState), errors.Is(err, ErrUnexpectedAuthHost):
		return ErrInvalidState
	}

	// Config and token errors carry their code as a message prefix.
	msg := err.Error()
	for _, code := range []string{ErrNotConfigured, ErrTokenExpired} {
		if strings.HasPrefix(msg, code+":") {
			return code
		}
	}
	return ErrAPIError
}

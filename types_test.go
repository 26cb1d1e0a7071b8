package integrations

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNewErrorResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		code    string
		message string
		want    Response
	}{
		{
			name:    "not configured error",
			code:    ErrNotConfigured,
			message: "no token found",
			want:    Response{Success: false, Error: ErrNotConfigured, Message: "no token found"},
		},
		{
			name:    "validation error",
			code:    ErrValidation,
			message: "webhook_url: URL must use HTTP or HTTPS protocol",
			want:    Response{Success: false, Error: ErrValidation, Message: "webhook_url: URL must use HTTP or HTTPS protocol"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(NewErrorResponse(tt.code, tt.message), tt.want); diff != "" {
				t.Errorf("NewErrorResponse() mismatch (-got +want):\n%s", diff)
			}
		})
	}
}

func TestNewSuccessResponse(t *testing.T) {
	t.Parallel()

	data := []WebhookIntegration{{ID: "w1"}}
	got := NewSuccessResponse(data)

	if !got.Success {
		t.Error("Success = false, want true")
	}
	if got.Error != "" || got.Message != "" {
		t.Errorf("Error/Message set on success: %q / %q", got.Error, got.Message)
	}
	if _, err := time.Parse(time.RFC3339, got.LastSync); err != nil {
		t.Errorf("LastSync %q is not RFC3339: %v", got.LastSync, err)
	}
	if diff := cmp.Diff(got.Data, any(data)); diff != "" {
		t.Errorf("Data mismatch (-got +want):\n%s", diff)
	}
}

func TestWebhookSecretNeverDecoded(t *testing.T) {
	t.Parallel()

	var wi WebhookIntegration
	raw := `{"id":"w1","name":"Orders","secret_key":"s3cret","events":["booking_created"]}`
	if err := json.Unmarshal([]byte(raw), &wi); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	out, err := json.Marshal(wi)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if bytes.Contains(out, []byte("s3cret")) {
		t.Errorf("secret survived a decode/encode cycle: %s", out)
	}
}

func TestErrorCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "api error", err: &APIError{StatusCode: 500, Code: ErrAPIError}, want: ErrAPIError},
		{name: "wrapped unauthorized", err: fmt.Errorf("list: %w", newAPIError(http.StatusUnauthorized, nil)), want: ErrTokenExpired},
		{name: "network", err: &APIError{Code: ErrNetworkError, Message: "dial tcp"}, want: ErrNetworkError},
		{name: "validation", err: errors.Join(&ValidationError{Field: "name", Message: "required"}), want: ErrValidation},
		{name: "empty id", err: ErrEmptyID, want: ErrValidation},
		{name: "stale state", err: ErrStateExpired, want: ErrInvalidState},
		{name: "auth host", err: fmt.Errorf("%w: evil.example.com", ErrUnexpectedAuthHost), want: ErrInvalidState},
		{name: "not configured", err: fmt.Errorf("%s: INTEGRATIONS_BASE_URL is required", ErrNotConfigured), want: ErrNotConfigured},
		{name: "other", err: errors.New("boom"), want: ErrAPIError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ErrorCode(tt.err); got != tt.want {
				t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	if !IsNotFound(fmt.Errorf("get: %w", newAPIError(http.StatusNotFound, []byte(`{"detail":"Not found."}`)))) {
		t.Error("IsNotFound() = false for a wrapped 404")
	}
	if IsNotFound(newAPIError(http.StatusBadRequest, nil)) {
		t.Error("IsNotFound() = true for a 400")
	}
	if IsNotFound(errors.New("not found")) {
		t.Error("IsNotFound() = true for a plain error")
	}
}

func TestFormatIntegrationError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "api message", err: &APIError{Code: ErrAPIError, Message: "Provider not supported"}, want: "Provider not supported"},
		{name: "validation", err: &ValidationError{Field: "name", Message: "Webhook name is required"}, want: "name: Webhook name is required"},
		{name: "plain", err: errors.New("boom"), want: "boom"},
	}

	for _, tt := range tests {
		if got := FormatIntegrationError(tt.err); got != tt.want {
			t.Errorf("%s: FormatIntegrationError() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestWriterNotifier(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n := &WriterNotifier{W: &buf}
	n.Success("Webhook integration created successfully")
	n.Warning("Token expires soon")
	n.Error("Failed to connect integration")

	want := "✓ Webhook integration created successfully\n! Token expires soon\n✗ Failed to connect integration\n"
	if diff := cmp.Diff(buf.String(), want); diff != "" {
		t.Errorf("output mismatch (-got +want):\n%s", diff)
	}
}

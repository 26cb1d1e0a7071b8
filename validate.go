package integrations

import (
	"errors"
	"net/url"
	"slices"
	"strings"
)

// Webhook retry bounds
const (
	DefaultMaxRetries = 3
	MaxRetriesLimit   = 10
)

// URLValidation is the outcome of ValidateWebhookURL.
type URLValidation struct {
	IsValid bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
}

// ValidateWebhookURL checks that raw is an absolute http or https URL.
func ValidateWebhookURL(raw string) URLValidation {
	if strings.TrimSpace(raw) == "" {
		return URLValidation{Error: "Webhook URL is required"}
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return URLValidation{Error: "Please enter a valid URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return URLValidation{Error: "URL must use HTTP or HTTPS protocol"}
	}
	if u.Host == "" {
		return URLValidation{Error: "Please enter a valid URL"}
	}
	return URLValidation{IsValid: true}
}

// Validate checks a webhook before it is created.
func (f WebhookForm) Validate() error {
	var errs []error
	if strings.TrimSpace(f.Name) == "" {
		errs = append(errs, &ValidationError{Field: "name", Message: "Webhook name is required"})
	}
	if v := ValidateWebhookURL(f.WebhookURL); !v.IsValid {
		errs = append(errs, &ValidationError{Field: "webhook_url", Message: v.Error})
	}
	errs = append(errs, validateEvents(f.Events)...)
	errs = append(errs, validateRetries(f.MaxRetries)...)
	errs = append(errs, validateHeaders(f.Headers)...)
	return errors.Join(errs...)
}

// Validate checks the fields present in a partial update.
func (p WebhookPatch) Validate() error {
	var errs []error
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		errs = append(errs, &ValidationError{Field: "name", Message: "Webhook name is required"})
	}
	if p.WebhookURL != nil {
		if v := ValidateWebhookURL(*p.WebhookURL); !v.IsValid {
			errs = append(errs, &ValidationError{Field: "webhook_url", Message: v.Error})
		}
	}
	if p.Events != nil {
		errs = append(errs, validateEvents(p.Events)...)
	}
	if p.MaxRetries != nil {
		errs = append(errs, validateRetries(*p.MaxRetries)...)
	}
	errs = append(errs, validateHeaders(p.Headers)...)
	return errors.Join(errs...)
}

func validateEvents(events []string) []error {
	if len(events) == 0 {
		return []error{&ValidationError{Field: "events", Message: "Select at least one event"}}
	}
	var errs []error
	seen := make(map[string]bool, len(events))
	for _, e := range events {
		switch {
		case !slices.Contains(WebhookEvents, e):
			errs = append(errs, &ValidationError{Field: "events", Message: "unknown event " + e})
		case seen[e]:
			errs = append(errs, &ValidationError{Field: "events", Message: "duplicate event " + e})
		}
		seen[e] = true
	}
	return errs
}

func validateRetries(n int) []error {
	if n < 0 || n > MaxRetriesLimit {
		return []error{&ValidationError{Field: "max_retries", Message: "Max retries must be between 0 and 10"}}
	}
	return nil
}

func validateHeaders(headers map[string]string) []error {
	for name := range headers {
		if strings.TrimSpace(name) == "" {
			return []error{&ValidationError{Field: "headers", Message: "Header name is required"}}
		}
	}
	return nil
}

// Package integrations is a client for the scheduling platform's integrations
// API: calendar sync, video-conferencing links, outbound webhooks, logs and
// health. It pairs a thin resource client with a keyed query cache whose
// entries are invalidated by a static mutation table.
package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	apiPrefix       = "/integrations/"
	maxLoggedBody   = 256
	requestIDHeader = "X-Request-ID"
)

// Resource paths under the integrations prefix
const (
	pathCalendar  = "calendar"
	pathVideo     = "video"
	pathWebhooks  = "webhooks"
	pathLogs      = "logs"
	pathHealth    = "health"
	pathConflicts = "calendar/conflicts"
	pathOAuth     = "oauth"
)

// Client issues one HTTP request per logical operation against the
// integrations backend.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests. Pass the result of
// AuthenticatedHTTPClient to attach the backend token.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client rooted at baseURL (for example
// https://api.example.com/api/v1).
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must use http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Calendar returns the calendar integrations resource.
func (c *Client) Calendar() Resource[CalendarIntegration] {
	return Resource[CalendarIntegration]{client: c, path: pathCalendar}
}

// Video returns the video integrations resource.
func (c *Client) Video() Resource[VideoConferenceIntegration] {
	return Resource[VideoConferenceIntegration]{client: c, path: pathVideo}
}

// Webhooks returns the webhook integrations resource.
func (c *Client) Webhooks() Resource[WebhookIntegration] {
	return Resource[WebhookIntegration]{client: c, path: pathWebhooks}
}

// Logs returns the integration logs resource.
func (c *Client) Logs() Resource[IntegrationLog] {
	return Resource[IntegrationLog]{client: c, path: pathLogs}
}

// Health fetches the aggregate health report.
func (c *Client) Health(ctx context.Context) (IntegrationHealth, error) {
	var out IntegrationHealth
	err := c.do(ctx, http.MethodGet, pathHealth+"/", nil, nil, &out)
	return out, err
}

// CalendarConflicts fetches the conflict analysis between manual blocks and
// synced events.
func (c *Client) CalendarConflicts(ctx context.Context) (CalendarConflicts, error) {
	var out CalendarConflicts
	err := c.do(ctx, http.MethodGet, pathConflicts+"/", nil, nil, &out)
	return out, err
}

// InitiateOAuth asks the backend for a provider authorization URL.
func (c *Client) InitiateOAuth(ctx context.Context, req OAuthInitiateRequest) (OAuthInitiateResponse, error) {
	var out OAuthInitiateResponse
	err := c.do(ctx, http.MethodPost, pathOAuth+"/initiate/", nil, req, &out)
	return out, err
}

// CompleteOAuth forwards the provider callback to the backend for exchange.
func (c *Client) CompleteOAuth(ctx context.Context, req OAuthCallbackRequest) (OAuthCallbackResponse, error) {
	var out OAuthCallbackResponse
	err := c.do(ctx, http.MethodPost, pathOAuth+"/callback/", nil, req, &out)
	return out, err
}

// Resource is a REST collection of T under the integrations prefix.
type Resource[T any] struct {
	client *Client
	path   string
}

// List returns every record of the collection. Paginated envelopes and bare
// arrays are both accepted; any other shape is logged and yields an empty
// slice.
func (r Resource[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	var raw json.RawMessage
	if err := r.client.do(ctx, http.MethodGet, r.path+"/", query, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[T](r.client.logger, r.path, raw), nil
}

// Get returns a single record.
func (r Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	p, err := r.itemPath(id)
	if err != nil {
		return out, err
	}
	err = r.client.do(ctx, http.MethodGet, p, nil, nil, &out)
	return out, err
}

// Create posts a new record.
func (r Resource[T]) Create(ctx context.Context, payload any) (T, error) {
	var out T
	err := r.client.do(ctx, http.MethodPost, r.path+"/", nil, payload, &out)
	return out, err
}

// Update patches a record.
func (r Resource[T]) Update(ctx context.Context, id string, payload any) (T, error) {
	var out T
	p, err := r.itemPath(id)
	if err != nil {
		return out, err
	}
	err = r.client.do(ctx, http.MethodPatch, p, nil, payload, &out)
	return out, err
}

// Delete removes a record.
func (r Resource[T]) Delete(ctx context.Context, id string) error {
	p, err := r.itemPath(id)
	if err != nil {
		return err
	}
	return r.client.do(ctx, http.MethodDelete, p, nil, nil, nil)
}

// Action posts to a custom action endpoint such as refresh, force-sync or test.
func (r Resource[T]) Action(ctx context.Context, id, action string) (ActionResult, error) {
	var out ActionResult
	p, err := r.itemPath(id)
	if err != nil {
		return out, err
	}
	err = r.client.do(ctx, http.MethodPost, p+action+"/", nil, nil, &out)
	return out, err
}

func (r Resource[T]) itemPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	switch id {
	case "":
		return "", ErrEmptyID
	case ".", "..":
		return "", &ValidationError{Field: "id", Message: "ID must not be a dot segment"}
	}
	return r.path + "/" + url.PathEscape(id) + "/", nil
}

// listEnvelope is the paginated response shape. Only results is read so
// drift in the pagination fields never hides the items.
type listEnvelope struct {
	Results json.RawMessage `json:"results"`
}

// decodeList normalizes {results: [...]} and [...] payloads into a slice.
// Anything else is recorded as a diagnostic and returns an empty slice.
func decodeList[T any](logger *slog.Logger, resource string, raw json.RawMessage) []T {
	items, shape := raw, "array"

	switch firstByte(raw) {
	case '[':
	case '{':
		var env listEnvelope
		if err := json.Unmarshal(raw, &env); err != nil || firstByte(env.Results) != '[' {
			warnShape(logger, resource, "object without results array", raw)
			return []T{}
		}
		items, shape = env.Results, "paginated"
	default:
		warnShape(logger, resource, "not an array or object", raw)
		return []T{}
	}

	out := []T{}
	if err := json.Unmarshal(items, &out); err != nil {
		warnShape(logger, resource, shape+" with undecodable items", raw)
		return []T{}
	}
	return out
}

func firstByte(raw []byte) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func warnShape(logger *slog.Logger, resource, reason string, raw []byte) {
	logger.Warn("Client:List:UnexpectedShape",
		"resource", resource,
		"reason", reason,
		"payload", truncate(raw, maxLoggedBody),
	)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// do performs a single request. A nil out discards the body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	endpoint := c.baseURL.JoinPath(apiPrefix + path)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Code: ErrNetworkError, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Code: ErrNetworkError, Message: "read response: " + err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, data)
		c.logger.Debug("Client:Request:Failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"request_id", req.Header.Get(requestIDHeader),
		)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       ErrAPIError,
			Message:    fmt.Sprintf("decode %s response: %v", path, err),
			Body:       data,
			Err:        err,
		}
	}
	return nil
}

// logQuery converts a LogFilter to query parameters.
func logQuery(f LogFilter) url.Values {
	q := url.Values{}
	if f.LogType != "" {
		q.Set("log_type", f.LogType)
	}
	if f.IntegrationType != "" {
		q.Set("integration_type", f.IntegrationType)
	}
	if f.Success != nil {
		if *f.Success {
			q.Set("success", "true")
		} else {
			q.Set("success", "false")
		}
	}
	return q
}

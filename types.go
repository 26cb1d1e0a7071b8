package integrations

import (
	"encoding/json"
	"time"
)

// Provider identifiers used across calendar and video integrations
const (
	ProviderGoogle         = "google"
	ProviderOutlook        = "outlook"
	ProviderApple          = "apple"
	ProviderZoom           = "zoom"
	ProviderGoogleMeet     = "google_meet"
	ProviderMicrosoftTeams = "microsoft_teams"
	ProviderWebex          = "webex"
)

// Integration types accepted by the OAuth endpoints
const (
	IntegrationTypeCalendar = "calendar"
	IntegrationTypeVideo    = "video"
)

// Webhook event names
const (
	EventBookingCreated     = "booking_created"
	EventBookingCancelled   = "booking_cancelled"
	EventBookingRescheduled = "booking_rescheduled"
	EventBookingCompleted   = "booking_completed"
)

// WebhookEvents lists every event a webhook may subscribe to, in display order.
var WebhookEvents = []string{
	EventBookingCreated,
	EventBookingCancelled,
	EventBookingRescheduled,
	EventBookingCompleted,
}

// Log types
const (
	LogTypeCalendarSync     = "calendar_sync"
	LogTypeVideoLinkCreated = "video_link_created"
	LogTypeWebhookSent      = "webhook_sent"
	LogTypeError            = "error"
)

// Health values
const (
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
	HealthDegraded  = "degraded"
)

// Overlap types reported by the conflicts endpoint
const (
	OverlapComplete  = "complete_overlap"
	OverlapContained = "contained_overlap"
	OverlapPartial   = "partial_overlap"
)

// CalendarIntegration is a connected calendar account.
type CalendarIntegration struct {
	ID              string     `json:"id"`
	Provider        string     `json:"provider"`
	ProviderDisplay string     `json:"provider_display"`
	ProviderEmail   string     `json:"provider_email"`
	CalendarID      string     `json:"calendar_id"`
	LastSyncAt      *time.Time `json:"last_sync_at"`
	SyncErrors      int        `json:"sync_errors"`
	IsActive        bool       `json:"is_active"`
	SyncEnabled     bool       `json:"sync_enabled"`
	IsTokenExpired  bool       `json:"is_token_expired"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// VideoConferenceIntegration is a connected video-conferencing account.
type VideoConferenceIntegration struct {
	ID                string    `json:"id"`
	Provider          string    `json:"provider"`
	ProviderDisplay   string    `json:"provider_display"`
	ProviderEmail     string    `json:"provider_email"`
	APICallsToday     int       `json:"api_calls_today"`
	IsActive          bool      `json:"is_active"`
	AutoGenerateLinks bool      `json:"auto_generate_links"`
	IsTokenExpired    bool      `json:"is_token_expired"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// WebhookIntegration is an outbound webhook. The secret key is write-only and
// never decoded from responses.
type WebhookIntegration struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	WebhookURL  string    `json:"webhook_url"`
	Events      []string  `json:"events"`
	IsActive    bool      `json:"is_active"`
	RetryFailed bool      `json:"retry_failed"`
	MaxRetries  int       `json:"max_retries"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IntegrationLog is an append-only record produced by the backend.
type IntegrationLog struct {
	ID              string          `json:"id"`
	LogType         string          `json:"log_type"`
	LogTypeDisplay  string          `json:"log_type_display"`
	IntegrationType string          `json:"integration_type"`
	BookingID       *string         `json:"booking_id"`
	Message         string          `json:"message"`
	Details         json.RawMessage `json:"details,omitempty"`
	Success         bool            `json:"success"`
	CreatedAt       time.Time       `json:"created_at"`
}

// CalendarHealth is one calendar row of the health report.
type CalendarHealth struct {
	Provider     string     `json:"provider"`
	IsActive     bool       `json:"is_active"`
	SyncEnabled  bool       `json:"sync_enabled"`
	TokenExpired bool       `json:"token_expired"`
	LastSync     *time.Time `json:"last_sync"`
	SyncErrors   int        `json:"sync_errors"`
	Health       string     `json:"health"`
}

// VideoHealth is one video row of the health report.
type VideoHealth struct {
	Provider          string `json:"provider"`
	IsActive          bool   `json:"is_active"`
	AutoGenerateLinks bool   `json:"auto_generate_links"`
	TokenExpired      bool   `json:"token_expired"`
	APICallsToday     int    `json:"api_calls_today"`
	Health            string `json:"health"`
}

// IntegrationHealth is the aggregate health snapshot.
type IntegrationHealth struct {
	OrganizerEmail       string           `json:"organizer_email"`
	Timestamp            time.Time        `json:"timestamp"`
	CalendarIntegrations []CalendarHealth `json:"calendar_integrations"`
	VideoIntegrations    []VideoHealth    `json:"video_integrations"`
	OverallHealth        string           `json:"overall_health"`
}

// ExternalEvent is an event synced from an external calendar.
type ExternalEvent struct {
	ID      string    `json:"id"`
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// ManualBlock is a blocked time range created by hand.
type ManualBlock struct {
	ID     string    `json:"id"`
	Reason string    `json:"reason"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Conflict pairs an external event with the manual block it collides with.
type Conflict struct {
	ExternalEvent ExternalEvent `json:"external_event"`
	ManualBlock   ManualBlock   `json:"manual_block"`
	OverlapType   string        `json:"overlap_type"`
}

// CalendarConflicts is the server-computed conflict report.
type CalendarConflicts struct {
	Conflicts           []Conflict `json:"conflicts"`
	Overlaps            []Conflict `json:"overlaps"`
	ManualBlocksCount   int        `json:"manual_blocks_count"`
	SyncedBlocksCount   int        `json:"synced_blocks_count"`
	TotalExternalEvents int        `json:"total_external_events"`
	TotalManualBlocks   int        `json:"total_manual_blocks"`
}

// CalendarIntegrationSettings is the PATCH body for calendar integrations.
type CalendarIntegrationSettings struct {
	IsActive    bool `json:"is_active"`
	SyncEnabled bool `json:"sync_enabled"`
}

// VideoIntegrationSettings is the PATCH body for video integrations.
type VideoIntegrationSettings struct {
	IsActive          bool `json:"is_active"`
	AutoGenerateLinks bool `json:"auto_generate_links"`
}

// WebhookForm is the create body for webhooks.
type WebhookForm struct {
	Name        string            `json:"name"`
	WebhookURL  string            `json:"webhook_url"`
	Events      []string          `json:"events"`
	SecretKey   string            `json:"secret_key,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	IsActive    bool              `json:"is_active"`
	RetryFailed bool              `json:"retry_failed"`
	MaxRetries  int               `json:"max_retries"`
}

// NewWebhookForm returns a form populated with the defaults used by the
// webhook editor.
func NewWebhookForm() WebhookForm {
	return WebhookForm{
		Events:      []string{},
		IsActive:    true,
		RetryFailed: true,
		MaxRetries:  DefaultMaxRetries,
	}
}

// WebhookPatch is a partial webhook update; nil fields are not sent.
type WebhookPatch struct {
	Name        *string           `json:"name,omitempty"`
	WebhookURL  *string           `json:"webhook_url,omitempty"`
	Events      []string          `json:"events,omitempty"`
	SecretKey   *string           `json:"secret_key,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	IsActive    *bool             `json:"is_active,omitempty"`
	RetryFailed *bool             `json:"retry_failed,omitempty"`
	MaxRetries  *int              `json:"max_retries,omitempty"`
}

// ActionResult is returned by refresh, force-sync and test actions.
type ActionResult struct {
	Message string `json:"message"`
}

// OAuthInitiateRequest starts an OAuth flow.
type OAuthInitiateRequest struct {
	Provider        string `json:"provider"`
	IntegrationType string `json:"integration_type"`
	RedirectURI     string `json:"redirect_uri"`
}

// OAuthInitiateResponse carries the provider consent URL and the opaque state.
type OAuthInitiateResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	Provider         string `json:"provider"`
	IntegrationType  string `json:"integration_type"`
	State            string `json:"state"`
}

// OAuthCallbackRequest forwards the provider's code and state to the backend.
type OAuthCallbackRequest struct {
	Provider        string `json:"provider"`
	IntegrationType string `json:"integration_type"`
	Code            string `json:"code"`
	State           string `json:"state,omitempty"`
}

// OAuthCallbackResponse reports the connected account.
type OAuthCallbackResponse struct {
	Message         string `json:"message"`
	Provider        string `json:"provider"`
	IntegrationType string `json:"integration_type"`
	ProviderEmail   string `json:"provider_email"`
	Created         bool   `json:"created"`
}

// LogFilter narrows the integration log listing. Empty fields are omitted.
type LogFilter struct {
	LogType         string
	IntegrationType string
	Success         *bool
}

// Response is the JSON output envelope for CLI commands
type Response struct {
	Success  bool   `json:"success"`
	LastSync string `json:"lastSync,omitempty"` // ISO8601
	Data     any    `json:"data,omitempty"`
	Error    string `json:"error,omitempty"`   // machine-readable code
	Message  string `json:"message,omitempty"` // human-readable
}

// Error codes
const (
	ErrNotConfigured = "not_configured"
	ErrTokenExpired  = "token_expired"
	ErrNetworkError  = "network_error"
	ErrAPIError      = "api_error"
	ErrValidation    = "validation_error"
	ErrInvalidState  = "invalid_state"
)

// NewErrorResponse creates a structured error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error:   code,
		Message: message,
	}
}

// NewSuccessResponse creates a successful response around data
func NewSuccessResponse(data any) Response {
	return Response{
		Success:  true,
		LastSync: time.Now().Format(time.RFC3339),
		Data:     data,
	}
}

package integrations

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultOAuthStateMaxAge is how old a state may be before the callback is
// skipped client-side.
const DefaultOAuthStateMaxAge = 10 * time.Minute

// OAuthState is a parsed provider:integration_type:timestamp:nonce state.
type OAuthState struct {
	Provider        string
	IntegrationType string
	Timestamp       time.Time
	Nonce           string
}

// GenerateOAuthState builds a state string in the shared convention. The
// timestamp is in Unix milliseconds.
func GenerateOAuthState(provider, integrationType string, now time.Time) string {
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s:%s:%d:%s", provider, integrationType, now.UnixMilli(), nonce)
}

// ParseOAuthState splits a state string. It returns nil when there are fewer
// than four parts or the timestamp is not a number. The nonce keeps any
// further colons.
func ParseOAuthState(state string) *OAuthState {
	parts := strings.SplitN(state, ":", 4)
	if len(parts) < 4 {
		return nil
	}
	ms, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil
	}
	return &OAuthState{
		Provider:        parts[0],
		IntegrationType: parts[1],
		Timestamp:       time.UnixMilli(ms),
		Nonce:           parts[3],
	}
}

// IsOAuthStateValid reports whether state parses and is younger than maxAge
// at now. A non-positive maxAge uses DefaultOAuthStateMaxAge. This is a hint
// to skip doomed requests; the backend verifies state.
func IsOAuthStateValid(state string, maxAge time.Duration, now time.Time) bool {
	parsed := ParseOAuthState(state)
	if parsed == nil {
		return false
	}
	if maxAge <= 0 {
		maxAge = DefaultOAuthStateMaxAge
	}
	return now.Sub(parsed.Timestamp) < maxAge
}

// Navigator sends the user to a URL.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, url string) error

func (f NavigatorFunc) Navigate(ctx context.Context, url string) error { return f(ctx, url) }

// BrowserNavigator opens URLs in the default browser.
type BrowserNavigator struct{}

// Navigate starts the platform's opener and does not wait for it.
func (BrowserNavigator) Navigate(_ context.Context, target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	go cmd.Wait() //nolint:errcheck
	return nil
}

// OAuthCoordinator drives the two-step OAuth flow. It keeps no secrets and
// no state between Initiate and Callback.
type OAuthCoordinator struct {
	client    *Client
	cache     *Cache
	navigator Navigator
	notifier  Notifier
	logger    *slog.Logger
	maxAge    time.Duration
	now       func() time.Time
}

// OAuthOption configures an OAuthCoordinator.
type OAuthOption func(*OAuthCoordinator)

// WithStateMaxAge sets the client-side staleness hint.
func WithStateMaxAge(d time.Duration) OAuthOption {
	return func(o *OAuthCoordinator) { o.maxAge = d }
}

// WithOAuthClock overrides the time source.
func WithOAuthClock(now func() time.Time) OAuthOption {
	return func(o *OAuthCoordinator) { o.now = now }
}

// NewOAuthCoordinator creates a coordinator over svc's client and cache.
func NewOAuthCoordinator(svc *Service, nav Navigator, opts ...OAuthOption) *OAuthCoordinator {
	o := &OAuthCoordinator{
		client:    svc.client,
		cache:     svc.cache,
		navigator: nav,
		notifier:  svc.cache.notifier,
		logger:    svc.logger,
		maxAge:    DefaultOAuthStateMaxAge,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Initiate obtains the provider consent URL and navigates to it.
func (o *OAuthCoordinator) Initiate(ctx context.Context, req OAuthInitiateRequest) (OAuthInitiateResponse, error) {
	switch {
	case req.Provider == "":
		return OAuthInitiateResponse{}, &ValidationError{Field: "provider", Message: "Provider is required"}
	case req.IntegrationType != IntegrationTypeCalendar && req.IntegrationType != IntegrationTypeVideo:
		return OAuthInitiateResponse{}, &ValidationError{Field: "integration_type", Message: "Integration type must be calendar or video"}
	case req.RedirectURI == "":
		return OAuthInitiateResponse{}, &ValidationError{Field: "redirect_uri", Message: "Redirect URI is required"}
	}

	resp, err := o.client.InitiateOAuth(ctx, req)
	if err != nil {
		o.notifier.Error("Failed to start " + ProviderDisplayName(req.Provider) + " authorization")
		return resp, fmt.Errorf("initiate oauth: %w", err)
	}

	authURL, err := checkAuthorizationURL(req.Provider, resp.AuthorizationURL)
	if err != nil {
		o.logger.Error("OAuth:Initiate:UnexpectedURL", "provider", req.Provider, "error", err)
		return resp, err
	}
	if missing := missingScopes(req.Provider, authURL); len(missing) > 0 {
		o.logger.Warn("OAuth:Initiate:MissingScopes", "provider", req.Provider, "missing", missing)
		o.notifier.Warning(ProviderDisplayName(req.Provider) + " authorization does not request " + strings.Join(missing, ", "))
	}

	if err := o.navigator.Navigate(ctx, resp.AuthorizationURL); err != nil {
		return resp, fmt.Errorf("navigate to provider: %w", err)
	}
	return resp, nil
}

// Callback completes a flow from the code and state the provider returned.
// Provider and integration type come from the state. Unrecognised states, and
// timestamped states older than the max age, fail without a network call.
func (o *OAuthCoordinator) Callback(ctx context.Context, code, state string) (OAuthCallbackResponse, error) {
	parsed := parseCallbackState(state)
	if parsed == nil {
		return OAuthCallbackResponse{}, ErrForeignState
	}
	if !parsed.Timestamp.IsZero() && !IsOAuthStateValid(state, o.maxAge, o.now()) {
		o.notifier.Error("Authorization expired, please try connecting again")
		return OAuthCallbackResponse{}, ErrStateExpired
	}
	if code == "" {
		return OAuthCallbackResponse{}, &ValidationError{Field: "code", Message: "Authorization code is missing"}
	}

	req := OAuthCallbackRequest{
		Provider:        parsed.Provider,
		IntegrationType: parsed.IntegrationType,
		Code:            code,
		State:           state,
	}
	resp, err := Mutate(ctx, o.cache, MutationOAuthCallback, func(ctx context.Context) (OAuthCallbackResponse, error) {
		return o.client.CompleteOAuth(ctx, req)
	}, callbackMessage)
	if err != nil {
		o.notifier.Error("Failed to connect integration: " + FormatIntegrationError(err))
		return resp, fmt.Errorf("complete oauth: %w", err)
	}
	return resp, nil
}

// parseCallbackState accepts the timestamped state and the backend's
// provider:integration_type:nonce form. The latter has a zero Timestamp.
func parseCallbackState(state string) *OAuthState {
	if parsed := ParseOAuthState(state); parsed != nil {
		return parsed
	}
	parts := strings.SplitN(state, ":", 3)
	if len(parts) < 3 || parts[0] == "" || parts[2] == "" {
		return nil
	}
	if parts[1] != IntegrationTypeCalendar && parts[1] != IntegrationTypeVideo {
		return nil
	}
	return &OAuthState{Provider: parts[0], IntegrationType: parts[1], Nonce: parts[2]}
}

// HandleRedirect completes a flow from the query parameters of the redirect
// back from the provider.
func (o *OAuthCoordinator) HandleRedirect(ctx context.Context, query url.Values) (OAuthCallbackResponse, error) {
	if e := query.Get("error"); e != "" {
		msg := e
		if d := query.Get("error_description"); d != "" {
			msg = e + ": " + d
		}
		o.notifier.Error("Authorization was not granted: " + msg)
		return OAuthCallbackResponse{}, fmt.Errorf("provider denied authorization: %s", msg)
	}
	return o.Callback(ctx, query.Get("code"), query.Get("state"))
}

func callbackMessage(r OAuthCallbackResponse) string {
	action := "reconnected"
	if r.Created {
		action = "connected"
	}
	return fmt.Sprintf("%s %s integration %s successfully", r.Provider, r.IntegrationType, action)
}

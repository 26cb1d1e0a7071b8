package integrations

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

type providerInfo struct {
	display string
	icon    string
	kind    string
	auth    oauth2.Endpoint
	scopes  []string
}

var providers = map[string]providerInfo{
	ProviderGoogle: {
		display: "Google Calendar",
		icon:    "🔵",
		kind:    IntegrationTypeCalendar,
		auth:    google.Endpoint,
		scopes:  []string{calendar.CalendarScope, calendar.CalendarEventsScope},
	},
	ProviderOutlook: {
		display: "Microsoft Outlook",
		icon:    "🔷",
		kind:    IntegrationTypeCalendar,
		auth:    endpoints.AzureAD("common"),
		scopes:  []string{"https://graph.microsoft.com/calendars.readwrite", "offline_access"},
	},
	ProviderApple: {
		display: "Apple Calendar",
		icon:    "🍎",
		kind:    IntegrationTypeCalendar,
	},
	ProviderZoom: {
		display: "Zoom",
		icon:    "🔵",
		kind:    IntegrationTypeVideo,
		auth:    endpoints.Zoom,
		scopes:  []string{"meeting:write"},
	},
	ProviderGoogleMeet: {
		display: "Google Meet",
		icon:    "🟢",
		kind:    IntegrationTypeVideo,
		auth:    google.Endpoint,
		scopes:  []string{calendar.CalendarEventsScope},
	},
	ProviderMicrosoftTeams: {
		display: "Microsoft Teams",
		icon:    "🟣",
		kind:    IntegrationTypeVideo,
		auth:    endpoints.AzureAD("common"),
		scopes:  []string{"https://graph.microsoft.com/onlinemeetings.readwrite", "offline_access"},
	},
	ProviderWebex: {
		display: "Cisco Webex",
		icon:    "🔶",
		kind:    IntegrationTypeVideo,
	},
}

// CalendarProviders and VideoProviders list providers in display order.
var (
	CalendarProviders = []string{ProviderGoogle, ProviderOutlook, ProviderApple}
	VideoProviders    = []string{ProviderZoom, ProviderGoogleMeet, ProviderMicrosoftTeams, ProviderWebex}
)

// ProviderDisplayName returns the human name of a provider, or the id itself.
func ProviderDisplayName(provider string) string {
	if p, ok := providers[provider]; ok {
		return p.display
	}
	return provider
}

// ProviderIcon returns the provider's icon, or a generic link icon.
func ProviderIcon(provider string) string {
	if p, ok := providers[provider]; ok {
		return p.icon
	}
	return "🔗"
}

// ProviderIntegrationType returns "calendar" or "video" for a known provider.
func ProviderIntegrationType(provider string) (string, bool) {
	p, ok := providers[provider]
	return p.kind, ok
}

// ProviderScopes returns the scopes the backend requests from provider.
func ProviderScopes(provider string) []string {
	return append([]string(nil), providers[provider].scopes...)
}

// checkAuthorizationURL verifies that raw is an https URL on the provider's
// consent host and returns it parsed. Providers without a known endpoint only
// need https.
func checkAuthorizationURL(provider, raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse authorization url: %w", err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an https url", ErrUnexpectedAuthHost, raw)
	}

	p, ok := providers[provider]
	if !ok || p.auth.AuthURL == "" {
		return u, nil
	}
	want, err := url.Parse(p.auth.AuthURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s endpoint: %w", provider, err)
	}
	if u.Hostname() != want.Hostname() {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrUnexpectedAuthHost, u.Hostname(), want.Hostname())
	}
	return u, nil
}

// missingScopes lists the catalogued scopes for provider that the consent
// URL does not request. URLs without a scope parameter are not checked.
func missingScopes(provider string, u *url.URL) []string {
	requested := u.Query().Get("scope")
	if requested == "" {
		return nil
	}
	granted := make(map[string]bool)
	for _, s := range strings.Fields(requested) {
		granted[s] = true
	}
	var missing []string
	for _, s := range providers[provider].scopes {
		if !granted[s] {
			missing = append(missing, s)
		}
	}
	return missing
}

package integrations

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormatAPIUsage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current int
		limit   int
		want    APIUsage
	}{
		{name: "idle", current: 0, limit: 1000, want: APIUsage{Percentage: 0, Color: ColorSuccess, Label: "0 / 1000"}},
		{name: "sixty percent", current: 600, limit: 1000, want: APIUsage{Percentage: 60, Color: ColorSuccess, Label: "600 / 1000"}},
		{name: "warning", current: 610, limit: 1000, want: APIUsage{Percentage: 61, Color: ColorWarning, Label: "610 / 1000"}},
		{name: "eighty percent", current: 800, limit: 1000, want: APIUsage{Percentage: 80, Color: ColorWarning, Label: "800 / 1000"}},
		{name: "error", current: 850, limit: 1000, want: APIUsage{Percentage: 85, Color: ColorError, Label: "850 / 1000"}},
		{name: "over limit is capped", current: 1500, limit: 1000, want: APIUsage{Percentage: 100, Color: ColorError, Label: "1500 / 1000"}},
		{name: "zero limit with usage", current: 5, limit: 0, want: APIUsage{Percentage: 100, Color: ColorError, Label: "5 / 0"}},
		{name: "zero limit idle", current: 0, limit: 0, want: APIUsage{Percentage: 0, Color: ColorSuccess, Label: "0 / 0"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(FormatAPIUsage(tt.current, tt.limit), tt.want); diff != "" {
				t.Errorf("FormatAPIUsage(%d, %d) mismatch (-got +want):\n%s", tt.current, tt.limit, diff)
			}
		})
	}
}

func TestFormatWebhookEvents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		events []string
		want   string
	}{
		{name: "none", events: nil, want: "No events selected"},
		{name: "one", events: []string{EventBookingCreated}, want: "booking created"},
		{
			name:   "three",
			events: []string{EventBookingCreated, EventBookingCancelled, EventBookingCompleted},
			want:   "booking created, booking cancelled, booking completed",
		},
		{name: "four", events: WebhookEvents, want: "booking created, booking cancelled and 2 more"},
		{name: "only first underscore", events: []string{"a_b_c"}, want: "a b_c"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatWebhookEvents(tt.events); got != tt.want {
				t.Errorf("FormatWebhookEvents(%v) = %q, want %q", tt.events, got, tt.want)
			}
		})
	}
}

func TestColorsAndLabels(t *testing.T) {
	t.Parallel()

	health := map[string]string{
		HealthHealthy:   ColorSuccess,
		HealthDegraded:  ColorWarning,
		HealthUnhealthy: ColorError,
		"unknown":       ColorDefault,
	}
	for in, want := range health {
		if got := HealthColor(in); got != want {
			t.Errorf("HealthColor(%q) = %q, want %q", in, got, want)
		}
	}

	overlaps := []struct {
		in    string
		color string
		label string
	}{
		{in: OverlapComplete, color: ColorError, label: "Complete Overlap"},
		{in: OverlapContained, color: ColorWarning, label: "Contained Overlap"},
		{in: OverlapPartial, color: ColorInfo, label: "Partial Overlap"},
		{in: "adjacent", color: ColorDefault, label: "adjacent"},
	}
	for _, o := range overlaps {
		if got := OverlapColor(o.in); got != o.color {
			t.Errorf("OverlapColor(%q) = %q, want %q", o.in, got, o.color)
		}
		if got := OverlapLabel(o.in); got != o.label {
			t.Errorf("OverlapLabel(%q) = %q, want %q", o.in, got, o.label)
		}
	}
}

func TestProviderLookups(t *testing.T) {
	t.Parallel()

	tests := []struct {
		provider string
		display  string
		icon     string
		kind     string
		known    bool
	}{
		{provider: ProviderGoogle, display: "Google Calendar", icon: "🔵", kind: IntegrationTypeCalendar, known: true},
		{provider: ProviderOutlook, display: "Microsoft Outlook", icon: "🔷", kind: IntegrationTypeCalendar, known: true},
		{provider: ProviderApple, display: "Apple Calendar", icon: "🍎", kind: IntegrationTypeCalendar, known: true},
		{provider: ProviderZoom, display: "Zoom", icon: "🔵", kind: IntegrationTypeVideo, known: true},
		{provider: ProviderGoogleMeet, display: "Google Meet", icon: "🟢", kind: IntegrationTypeVideo, known: true},
		{provider: ProviderMicrosoftTeams, display: "Microsoft Teams", icon: "🟣", kind: IntegrationTypeVideo, known: true},
		{provider: ProviderWebex, display: "Cisco Webex", icon: "🔶", kind: IntegrationTypeVideo, known: true},
		{provider: "calendly", display: "calendly", icon: "🔗"},
	}

	for _, tt := range tests {
		if got := ProviderDisplayName(tt.provider); got != tt.display {
			t.Errorf("ProviderDisplayName(%q) = %q, want %q", tt.provider, got, tt.display)
		}
		if got := ProviderIcon(tt.provider); got != tt.icon {
			t.Errorf("ProviderIcon(%q) = %q, want %q", tt.provider, got, tt.icon)
		}
		kind, ok := ProviderIntegrationType(tt.provider)
		if kind != tt.kind || ok != tt.known {
			t.Errorf("ProviderIntegrationType(%q) = %q, %v; want %q, %v", tt.provider, kind, ok, tt.kind, tt.known)
		}
	}

	scopes := ProviderScopes(ProviderGoogle)
	scopes[0] = "mutated"
	if ProviderScopes(ProviderGoogle)[0] == "mutated" {
		t.Error("ProviderScopes() exposes the shared slice")
	}
}

func TestRecommendedActions(t *testing.T) {
	t.Parallel()

	errs := func(n int) *int { return &n }
	tests := []struct {
		name  string
		state IntegrationState
		want  []string
	}{
		{name: "healthy", state: IntegrationState{IsActive: true, SyncErrors: errs(0)}},
		{
			name:  "inactive",
			state: IntegrationState{},
			want:  []string{"Enable the integration to start using it"},
		},
		{
			name:  "expired",
			state: IntegrationState{IsActive: true, IsTokenExpired: true},
			want:  []string{"Reconnect the integration to refresh expired tokens"},
		},
		{
			name:  "a few sync errors",
			state: IntegrationState{IsActive: true, SyncErrors: errs(2)},
			want:  []string{"Check integration logs for sync error details"},
		},
		{
			name:  "persistent sync errors",
			state: IntegrationState{IsActive: true, SyncErrors: errs(3)},
			want: []string{
				"Check integration logs for sync error details",
				"Consider reconnecting the integration to resolve persistent errors",
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(RecommendedActions(tt.state), tt.want); diff != "" {
				t.Errorf("RecommendedActions() mismatch (-got +want):\n%s", diff)
			}
		})
	}
}

func TestSummarizeIntegrations(t *testing.T) {
	t.Parallel()

	healthyCal := fakeCalendarIntegration()
	failingCal := fakeCalendarIntegration()
	failingCal.SyncErrors = 1
	expiredVideo := fakeVideoIntegration()
	expiredVideo.IsTokenExpired = true
	inactiveHook := fakeWebhookIntegration()
	inactiveHook.IsActive = false

	got := SummarizeIntegrations(healthyCal.State(), failingCal.State(), expiredVideo.State(), inactiveHook.State())
	want := StatusSummary{Total: 4, Active: 3, Healthy: 1, NeedsAttention: 3}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("SummarizeIntegrations() mismatch (-got +want):\n%s", diff)
	}
}

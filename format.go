package integrations

import (
	"fmt"
	"math"
	"strings"
)

// Display colours
const (
	ColorSuccess = "success"
	ColorWarning = "warning"
	ColorError   = "error"
	ColorInfo    = "info"
	ColorDefault = "default"
)

// HealthColor maps a health value to a display colour.
func HealthColor(health string) string {
	switch health {
	case HealthHealthy:
		return ColorSuccess
	case HealthDegraded:
		return ColorWarning
	case HealthUnhealthy:
		return ColorError
	default:
		return ColorDefault
	}
}

// OverlapColor maps an overlap type to its severity colour.
func OverlapColor(overlapType string) string {
	switch overlapType {
	case OverlapComplete:
		return ColorError
	case OverlapContained:
		return ColorWarning
	case OverlapPartial:
		return ColorInfo
	default:
		return ColorDefault
	}
}

// OverlapLabel returns the display label of an overlap type.
func OverlapLabel(overlapType string) string {
	switch overlapType {
	case OverlapComplete:
		return "Complete Overlap"
	case OverlapContained:
		return "Contained Overlap"
	case OverlapPartial:
		return "Partial Overlap"
	default:
		return overlapType
	}
}

// APIUsage is a usage meter for a provider's daily API quota.
type APIUsage struct {
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
	Label      string  `json:"label"`
}

// FormatAPIUsage caps usage at 100% and colours it: above 80% error, above
// 60% warning.
func FormatAPIUsage(current, limit int) APIUsage {
	var pct float64
	switch {
	case limit > 0:
		pct = math.Min(float64(current)/float64(limit)*100, 100)
	case current > 0:
		pct = 100
	}

	color := ColorSuccess
	if pct > 80 {
		color = ColorError
	} else if pct > 60 {
		color = ColorWarning
	}

	return APIUsage{
		Percentage: pct,
		Color:      color,
		Label:      fmt.Sprintf("%d / %d", current, limit),
	}
}

// FormatWebhookEvents renders a subscribed event list for a card.
func FormatWebhookEvents(events []string) string {
	label := func(e string) string { return strings.Replace(e, "_", " ", 1) }

	switch {
	case len(events) == 0:
		return "No events selected"
	case len(events) <= 3:
		out := make([]string, len(events))
		for i, e := range events {
			out[i] = label(e)
		}
		return strings.Join(out, ", ")
	default:
		return fmt.Sprintf("%s, %s and %d more", label(events[0]), label(events[1]), len(events)-2)
	}
}

// IntegrationState is the part of an integration that drives status
// summaries. SyncErrors is nil when the integration does not sync.
type IntegrationState struct {
	IsActive       bool
	IsTokenExpired bool
	SyncErrors     *int
}

// State returns the summary fields of a calendar integration.
func (ci CalendarIntegration) State() IntegrationState {
	n := ci.SyncErrors
	return IntegrationState{IsActive: ci.IsActive, IsTokenExpired: ci.IsTokenExpired, SyncErrors: &n}
}

// State returns the summary fields of a video integration.
func (vi VideoConferenceIntegration) State() IntegrationState {
	return IntegrationState{IsActive: vi.IsActive, IsTokenExpired: vi.IsTokenExpired}
}

// State returns the summary fields of a webhook.
func (wi WebhookIntegration) State() IntegrationState {
	return IntegrationState{IsActive: wi.IsActive}
}

func (s IntegrationState) hasSyncErrors() bool {
	return s.SyncErrors != nil && *s.SyncErrors > 0
}

// Healthy reports whether the integration is active, authorised and error free.
func (s IntegrationState) Healthy() bool {
	return s.IsActive && !s.IsTokenExpired && !s.hasSyncErrors()
}

// NeedsAttention reports whether the integration should be flagged.
func (s IntegrationState) NeedsAttention() bool {
	return !s.IsActive || s.IsTokenExpired || s.hasSyncErrors()
}

// StatusSummary counts integrations by status.
type StatusSummary struct {
	Total          int `json:"total"`
	Active         int `json:"active"`
	Healthy        int `json:"healthy"`
	NeedsAttention int `json:"needsAttention"`
}

// SummarizeIntegrations counts the given integrations.
func SummarizeIntegrations(states ...IntegrationState) StatusSummary {
	sum := StatusSummary{Total: len(states)}
	for _, s := range states {
		if s.IsActive {
			sum.Active++
		}
		if s.Healthy() {
			sum.Healthy++
		}
		if s.NeedsAttention() {
			sum.NeedsAttention++
		}
	}
	return sum
}

// RecommendedActions lists what a user should do about an integration.
func RecommendedActions(s IntegrationState) []string {
	var actions []string
	if !s.IsActive {
		actions = append(actions, "Enable the integration to start using it")
	}
	if s.IsTokenExpired {
		actions = append(actions, "Reconnect the integration to refresh expired tokens")
	}
	if s.hasSyncErrors() {
		actions = append(actions, "Check integration logs for sync error details")
		if *s.SyncErrors >= persistentSyncErrors {
			actions = append(actions, "Consider reconnecting the integration to resolve persistent errors")
		}
	}
	return actions
}

// HealthyRatio is the share of healthy rows in a health report, 0 when empty.
func HealthyRatio(h IntegrationHealth) float64 {
	total := len(h.CalendarIntegrations) + len(h.VideoIntegrations)
	if total == 0 {
		return 0
	}
	healthy := 0
	for _, c := range h.CalendarIntegrations {
		if c.Health == HealthHealthy {
			healthy++
		}
	}
	for _, v := range h.VideoIntegrations {
		if v.Health == HealthHealthy {
			healthy++
		}
	}
	return float64(healthy) / float64(total)
}

package integrations

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Dashboard is the integrations panel of the home dashboard.
type Dashboard struct {
	Summary      StatusSummary     `json:"summary"`
	Health       IntegrationHealth `json:"health"`
	HealthSource string            `json:"healthSource"` // "backend" or "local"
	HealthyRatio float64           `json:"healthyRatio"`
	Attention    []Attention       `json:"attention,omitempty"`
}

// Attention is an integration that needs user action.
type Attention struct {
	Kind     string   `json:"kind"`
	ID       string   `json:"id"`
	Provider string   `json:"provider,omitempty"`
	Name     string   `json:"name"`
	Actions  []string `json:"actions"`
}

// Dashboard gathers every integration list and the health report in
// parallel. When the health endpoint fails the report is computed locally
// from the lists.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		calendars []CalendarIntegration
		videos    []VideoConferenceIntegration
		webhooks  []WebhookIntegration
		health    IntegrationHealth
		healthErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		calendars, err = s.CalendarIntegrations(gctx)
		return err
	})
	g.Go(func() (err error) {
		videos, err = s.VideoIntegrations(gctx)
		return err
	})
	g.Go(func() (err error) {
		webhooks, err = s.WebhookIntegrations(gctx)
		return err
	})
	g.Go(func() error {
		health, healthErr = s.IntegrationHealth(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{Health: health, HealthSource: "backend"}
	if healthErr != nil {
		s.logger.Warn("Service:Dashboard:HealthFallback", "error", healthErr)
		d.Health = AggregateHealth(calendars, videos, time.Now())
		d.HealthSource = "local"
	}
	d.HealthyRatio = HealthyRatio(d.Health)

	states := make([]IntegrationState, 0, len(calendars)+len(videos)+len(webhooks))
	for _, ci := range calendars {
		states = append(states, ci.State())
		d.addAttention("calendar", ci.ID, ci.Provider, ProviderDisplayName(ci.Provider), ci.State())
	}
	for _, vi := range videos {
		states = append(states, vi.State())
		d.addAttention("video", vi.ID, vi.Provider, ProviderDisplayName(vi.Provider), vi.State())
	}
	for _, wi := range webhooks {
		states = append(states, wi.State())
		d.addAttention("webhook", wi.ID, "", wi.Name, wi.State())
	}
	d.Summary = SummarizeIntegrations(states...)

	return d, nil
}

func (d *Dashboard) addAttention(kind, id, provider, name string, st IntegrationState) {
	if !st.NeedsAttention() {
		return
	}
	d.Attention = append(d.Attention, Attention{
		Kind:     kind,
		ID:       id,
		Provider: provider,
		Name:     name,
		Actions:  RecommendedActions(st),
	})
}

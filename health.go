package integrations

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// DefaultHealthInterval is how often the health report is re-polled.
const DefaultHealthInterval = 5 * time.Minute

// persistentSyncErrors is the error count from which a calendar integration
// is unhealthy.
const persistentSyncErrors = 3

// CalendarHealthOf classifies one calendar integration.
func CalendarHealthOf(ci CalendarIntegration) string {
	if ci.IsActive && !ci.IsTokenExpired && ci.SyncErrors < persistentSyncErrors {
		return HealthHealthy
	}
	return HealthUnhealthy
}

// VideoHealthOf classifies one video integration.
func VideoHealthOf(vi VideoConferenceIntegration) string {
	if vi.IsActive && !vi.IsTokenExpired {
		return HealthHealthy
	}
	return HealthUnhealthy
}

// AggregateHealth builds a health report from integration records. Overall
// health is degraded as soon as one integration is unhealthy.
func AggregateHealth(calendars []CalendarIntegration, videos []VideoConferenceIntegration, now time.Time) IntegrationHealth {
	h := IntegrationHealth{
		Timestamp:            now,
		CalendarIntegrations: make([]CalendarHealth, 0, len(calendars)),
		VideoIntegrations:    make([]VideoHealth, 0, len(videos)),
		OverallHealth:        HealthHealthy,
	}

	for _, ci := range calendars {
		row := CalendarHealth{
			Provider:     ci.Provider,
			IsActive:     ci.IsActive,
			SyncEnabled:  ci.SyncEnabled,
			TokenExpired: ci.IsTokenExpired,
			LastSync:     ci.LastSyncAt,
			SyncErrors:   ci.SyncErrors,
			Health:       CalendarHealthOf(ci),
		}
		if row.Health != HealthHealthy {
			h.OverallHealth = HealthDegraded
		}
		h.CalendarIntegrations = append(h.CalendarIntegrations, row)
	}

	for _, vi := range videos {
		row := VideoHealth{
			Provider:          vi.Provider,
			IsActive:          vi.IsActive,
			AutoGenerateLinks: vi.AutoGenerateLinks,
			TokenExpired:      vi.IsTokenExpired,
			APICallsToday:     vi.APICallsToday,
			Health:            VideoHealthOf(vi),
		}
		if row.Health != HealthHealthy {
			h.OverallHealth = HealthDegraded
		}
		h.VideoIntegrations = append(h.VideoIntegrations, row)
	}

	return h
}

// HealthPoller refetches the health report on a fixed interval whether or
// not anything is subscribed to it.
type HealthPoller struct {
	svc      *Service
	interval time.Duration
	onUpdate func(IntegrationHealth, error)
	logger   *slog.Logger

	mu        sync.Mutex
	scheduler *gocron.Scheduler
	stopped   chan struct{}
}

// NewHealthPoller creates a poller. A non-positive interval uses
// DefaultHealthInterval. onUpdate may be nil.
func NewHealthPoller(svc *Service, interval time.Duration, onUpdate func(IntegrationHealth, error)) *HealthPoller {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	return &HealthPoller{
		svc:      svc,
		interval: interval,
		onUpdate: onUpdate,
		logger:   svc.logger,
	}
}

// Start polls immediately and then every interval until ctx is done or Stop
// is called.
func (p *HealthPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scheduler != nil {
		return fmt.Errorf("health poller already started")
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Every(p.interval).Do(p.poll, ctx); err != nil {
		return fmt.Errorf("schedule health poll: %w", err)
	}
	s.StartAsync()
	p.scheduler = s
	p.stopped = make(chan struct{})

	go func(stopped <-chan struct{}) {
		select {
		case <-ctx.Done():
			p.Stop()
		case <-stopped:
		}
	}(p.stopped)
	return nil
}

// Stop halts polling. It is safe to call more than once.
func (p *HealthPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scheduler == nil {
		return
	}
	p.scheduler.Stop()
	p.scheduler = nil
	close(p.stopped)
}

func (p *HealthPoller) poll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	h, err := p.svc.RefreshHealth(ctx)
	if err != nil {
		p.logger.Warn("HealthPoller:Poll:Error", "error", err)
	}
	if p.onUpdate != nil {
		p.onUpdate(h, err)
	}
}

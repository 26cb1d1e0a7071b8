package integrations

import (
	"context"
	"log/slog"
	"strings"
)

// Service exposes cached queries and cache-invalidating mutations for every
// integration entity.
type Service struct {
	client   *Client
	cache    *Cache
	notifier Notifier
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceNotifier sets where warnings about integration records go.
// Mutation notifications go through the cache's notifier.
func WithServiceNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithServiceLogger sets the service logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService wires a client to a cache.
func NewService(client *Client, cache *Cache, opts ...ServiceOption) *Service {
	s := &Service{
		client:   client,
		cache:    cache,
		notifier: cache.notifier,
		logger:   client.logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache returns the underlying cache.
func (s *Service) Cache() *Cache { return s.cache }

// Client returns the underlying resource client.
func (s *Service) Client() *Client { return s.client }

// Calendar integrations

// CalendarIntegrations lists calendar integrations.
func (s *Service) CalendarIntegrations(ctx context.Context) ([]CalendarIntegration, error) {
	return Query(ctx, s.cache, ListKey(ScopeCalendar), func(ctx context.Context) ([]CalendarIntegration, error) {
		items, err := s.client.Calendar().List(ctx, nil)
		if err != nil {
			return nil, err
		}
		s.warnExpiredSync(items)
		return items, nil
	})
}

// CalendarIntegration returns one calendar integration.
func (s *Service) CalendarIntegration(ctx context.Context, id string) (CalendarIntegration, error) {
	if strings.TrimSpace(id) == "" {
		return CalendarIntegration{}, ErrEmptyID
	}
	return Query(ctx, s.cache, ItemKey(ScopeCalendar, id), func(ctx context.Context) (CalendarIntegration, error) {
		return s.client.Calendar().Get(ctx, id)
	})
}

// UpdateCalendarIntegration changes a calendar integration's flags.
func (s *Service) UpdateCalendarIntegration(ctx context.Context, id string, settings CalendarIntegrationSettings) (CalendarIntegration, error) {
	return Mutate(ctx, s.cache, MutationUpdateCalendar, func(ctx context.Context) (CalendarIntegration, error) {
		ci, err := s.client.Calendar().Update(ctx, id, settings)
		if err == nil {
			s.warnExpiredSync([]CalendarIntegration{ci})
		}
		return ci, err
	}, nil)
}

// DeleteCalendarIntegration disconnects a calendar integration.
func (s *Service) DeleteCalendarIntegration(ctx context.Context, id string) error {
	_, err := Mutate(ctx, s.cache, MutationDeleteCalendar, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.client.Calendar().Delete(ctx, id)
	}, nil)
	return err
}

// RefreshCalendarSync asks the backend to refresh a calendar sync.
func (s *Service) RefreshCalendarSync(ctx context.Context, id string) (ActionResult, error) {
	return Mutate(ctx, s.cache, MutationRefreshCalendar, func(ctx context.Context) (ActionResult, error) {
		return s.client.Calendar().Action(ctx, id, "refresh")
	}, actionMessage)
}

// ForceCalendarSync asks the backend to sync a calendar now.
func (s *Service) ForceCalendarSync(ctx context.Context, id string) (ActionResult, error) {
	return Mutate(ctx, s.cache, MutationForceSyncCalendar, func(ctx context.Context) (ActionResult, error) {
		return s.client.Calendar().Action(ctx, id, "force-sync")
	}, actionMessage)
}

// Video integrations

// VideoIntegrations lists video integrations.
func (s *Service) VideoIntegrations(ctx context.Context) ([]VideoConferenceIntegration, error) {
	return Query(ctx, s.cache, ListKey(ScopeVideo), func(ctx context.Context) ([]VideoConferenceIntegration, error) {
		return s.client.Video().List(ctx, nil)
	})
}

// VideoIntegration returns one video integration.
func (s *Service) VideoIntegration(ctx context.Context, id string) (VideoConferenceIntegration, error) {
	if strings.TrimSpace(id) == "" {
		return VideoConferenceIntegration{}, ErrEmptyID
	}
	return Query(ctx, s.cache, ItemKey(ScopeVideo, id), func(ctx context.Context) (VideoConferenceIntegration, error) {
		return s.client.Video().Get(ctx, id)
	})
}

// UpdateVideoIntegration changes a video integration's flags.
func (s *Service) UpdateVideoIntegration(ctx context.Context, id string, settings VideoIntegrationSettings) (VideoConferenceIntegration, error) {
	return Mutate(ctx, s.cache, MutationUpdateVideo, func(ctx context.Context) (VideoConferenceIntegration, error) {
		return s.client.Video().Update(ctx, id, settings)
	}, nil)
}

// DeleteVideoIntegration disconnects a video integration.
func (s *Service) DeleteVideoIntegration(ctx context.Context, id string) error {
	_, err := Mutate(ctx, s.cache, MutationDeleteVideo, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.client.Video().Delete(ctx, id)
	}, nil)
	return err
}

// Webhooks

// WebhookIntegrations lists webhooks.
func (s *Service) WebhookIntegrations(ctx context.Context) ([]WebhookIntegration, error) {
	return Query(ctx, s.cache, ListKey(ScopeWebhooks), func(ctx context.Context) ([]WebhookIntegration, error) {
		return s.client.Webhooks().List(ctx, nil)
	})
}

// WebhookIntegration returns one webhook.
func (s *Service) WebhookIntegration(ctx context.Context, id string) (WebhookIntegration, error) {
	if strings.TrimSpace(id) == "" {
		return WebhookIntegration{}, ErrEmptyID
	}
	return Query(ctx, s.cache, ItemKey(ScopeWebhooks, id), func(ctx context.Context) (WebhookIntegration, error) {
		return s.client.Webhooks().Get(ctx, id)
	})
}

// CreateWebhookIntegration validates form and creates a webhook. Invalid
// forms never reach the network.
func (s *Service) CreateWebhookIntegration(ctx context.Context, form WebhookForm) (WebhookIntegration, error) {
	if err := form.Validate(); err != nil {
		return WebhookIntegration{}, err
	}
	return Mutate(ctx, s.cache, MutationCreateWebhook, func(ctx context.Context) (WebhookIntegration, error) {
		return s.client.Webhooks().Create(ctx, form)
	}, nil)
}

// UpdateWebhookIntegration validates patch and applies it.
func (s *Service) UpdateWebhookIntegration(ctx context.Context, id string, patch WebhookPatch) (WebhookIntegration, error) {
	if err := patch.Validate(); err != nil {
		return WebhookIntegration{}, err
	}
	return Mutate(ctx, s.cache, MutationUpdateWebhook, func(ctx context.Context) (WebhookIntegration, error) {
		return s.client.Webhooks().Update(ctx, id, patch)
	}, nil)
}

// DeleteWebhookIntegration removes a webhook.
func (s *Service) DeleteWebhookIntegration(ctx context.Context, id string) error {
	_, err := Mutate(ctx, s.cache, MutationDeleteWebhook, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.client.Webhooks().Delete(ctx, id)
	}, nil)
	return err
}

// TestWebhook asks the backend to deliver a test event.
func (s *Service) TestWebhook(ctx context.Context, id string) (ActionResult, error) {
	return Mutate(ctx, s.cache, MutationTestWebhook, func(ctx context.Context) (ActionResult, error) {
		return s.client.Webhooks().Action(ctx, id, "test")
	}, nil)
}

// Logs, health and conflicts

// IntegrationLogs lists logs matching filter. Each filter set is cached
// separately; log invalidation drops them all.
func (s *Service) IntegrationLogs(ctx context.Context, filter LogFilter) ([]IntegrationLog, error) {
	q := logQuery(filter)
	return Query(ctx, s.cache, FilteredKey(ScopeLogs, q), func(ctx context.Context) ([]IntegrationLog, error) {
		return s.client.Logs().List(ctx, q)
	})
}

// IntegrationHealth returns the cached health report.
func (s *Service) IntegrationHealth(ctx context.Context) (IntegrationHealth, error) {
	return Query(ctx, s.cache, ListKey(ScopeHealth), s.client.Health)
}

// RefreshHealth refetches the health report.
func (s *Service) RefreshHealth(ctx context.Context) (IntegrationHealth, error) {
	return Refetch(ctx, s.cache, ListKey(ScopeHealth), s.client.Health)
}

// CalendarConflicts returns the conflict report with overlap types filled in.
func (s *Service) CalendarConflicts(ctx context.Context) (CalendarConflicts, error) {
	return Query(ctx, s.cache, ListKey(ScopeConflicts), func(ctx context.Context) (CalendarConflicts, error) {
		r, err := s.client.CalendarConflicts(ctx)
		if err != nil {
			return r, err
		}
		return r.Normalize(), nil
	})
}

// warnExpiredSync surfaces integrations that claim to sync with an expired token.
func (s *Service) warnExpiredSync(items []CalendarIntegration) {
	for _, ci := range items {
		if ci.IsTokenExpired && ci.SyncEnabled {
			s.logger.Warn("Service:Calendar:ExpiredTokenSyncEnabled", "id", ci.ID, "provider", ci.Provider)
			s.notifier.Warning(ProviderDisplayName(ci.Provider) + " sync is enabled but its token has expired; reconnect to resume syncing")
		}
	}
}

func actionMessage(r ActionResult) string { return r.Message }

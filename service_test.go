package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestServiceListsAreCached(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	cal := fakeCalendarIntegration()
	env.backend.reply(http.MethodGet, "calendar/", http.StatusOK, map[string]any{
		"count":   1,
		"results": []CalendarIntegration{cal},
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := env.svc.CalendarIntegrations(ctx)
		if err != nil {
			t.Fatalf("CalendarIntegrations() error = %v", err)
		}
		if diff := cmp.Diff(got, []CalendarIntegration{cal}); diff != "" {
			t.Errorf("CalendarIntegrations() mismatch (-got +want):\n%s", diff)
		}
	}
	if n := env.backend.count(http.MethodGet, "calendar/"); n != 1 {
		t.Errorf("backend saw %d list requests, want 1", n)
	}
}

func TestServiceUpdateRefetchesDependents(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	cal := fakeCalendarIntegration()
	env.backend.reply(http.MethodGet, "calendar/", http.StatusOK, []CalendarIntegration{cal})
	env.backend.reply(http.MethodGet, "video/", http.StatusOK, []VideoConferenceIntegration{})
	env.backend.reply(http.MethodGet, "health/", http.StatusOK, IntegrationHealth{OverallHealth: HealthHealthy})
	env.backend.handle(http.MethodPatch, "calendar/{id}/", func(w http.ResponseWriter, r *http.Request) {
		var settings CalendarIntegrationSettings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			t.Errorf("decode PATCH body: %v", err)
		}
		updated := cal
		updated.IsActive = settings.IsActive
		updated.SyncEnabled = settings.SyncEnabled
		writeTestJSON(w, http.StatusOK, updated)
	})
	ctx := context.Background()

	load := func() {
		if _, err := env.svc.CalendarIntegrations(ctx); err != nil {
			t.Fatalf("CalendarIntegrations() error = %v", err)
		}
		if _, err := env.svc.VideoIntegrations(ctx); err != nil {
			t.Fatalf("VideoIntegrations() error = %v", err)
		}
		if _, err := env.svc.IntegrationHealth(ctx); err != nil {
			t.Fatalf("IntegrationHealth() error = %v", err)
		}
	}
	load()

	got, err := env.svc.UpdateCalendarIntegration(ctx, cal.ID, CalendarIntegrationSettings{IsActive: false, SyncEnabled: true})
	if err != nil {
		t.Fatalf("UpdateCalendarIntegration() error = %v", err)
	}
	if got.IsActive {
		t.Error("UpdateCalendarIntegration() returned an active integration")
	}
	load()

	want := map[string]int{"calendar/": 2, "health/": 2, "video/": 1}
	for path, n := range want {
		if got := env.backend.count(http.MethodGet, path); got != n {
			t.Errorf("GET %s requests = %d, want %d", path, got, n)
		}
	}

	successes, _, _ := env.notifier.snapshot()
	if diff := cmp.Diff(successes, []string{"Calendar integration updated successfully"}); diff != "" {
		t.Errorf("notifications mismatch (-got +want):\n%s", diff)
	}
}

func TestServiceFailedMutation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.backend.reply(http.MethodGet, "webhooks/", http.StatusOK, []WebhookIntegration{fakeWebhookIntegration()})
	env.backend.reply(http.MethodDelete, "webhooks/{id}/", http.StatusForbidden, map[string]string{"detail": "Not allowed"})
	ctx := context.Background()

	if _, err := env.svc.WebhookIntegrations(ctx); err != nil {
		t.Fatalf("WebhookIntegrations() error = %v", err)
	}
	err := env.svc.DeleteWebhookIntegration(ctx, "w1")
	if got := FormatIntegrationError(err); got != "Not allowed" {
		t.Errorf("DeleteWebhookIntegration() error message = %q, want %q", got, "Not allowed")
	}
	if _, err := env.svc.WebhookIntegrations(ctx); err != nil {
		t.Fatalf("WebhookIntegrations() error = %v", err)
	}

	if n := env.backend.count(http.MethodGet, "webhooks/"); n != 1 {
		t.Errorf("list refetched after a failed delete: %d requests", n)
	}
	if successes, _, _ := env.notifier.snapshot(); len(successes) != 0 {
		t.Errorf("success notifications after failure: %v", successes)
	}
}

func TestServiceCreateWebhookValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	created := fakeWebhookIntegration()
	env.backend.reply(http.MethodPost, "webhooks/", http.StatusCreated, created)
	ctx := context.Background()

	bad := fakeWebhookForm()
	bad.WebhookURL = "ftp://example.com/hook"
	bad.MaxRetries = 11
	_, err := env.svc.CreateWebhookIntegration(ctx, bad)
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("CreateWebhookIntegration() error = %v, want *ValidationError", err)
	}
	if n := env.backend.total(); n != 0 {
		t.Errorf("invalid form reached the backend: %d requests", n)
	}

	got, err := env.svc.CreateWebhookIntegration(ctx, fakeWebhookForm())
	if err != nil {
		t.Fatalf("CreateWebhookIntegration() error = %v", err)
	}
	if diff := cmp.Diff(got, created); diff != "" {
		t.Errorf("CreateWebhookIntegration() mismatch (-got +want):\n%s", diff)
	}
}

func TestServiceWarnsOnExpiredSync(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	expired := fakeCalendarIntegration()
	expired.Provider = ProviderGoogle
	expired.IsTokenExpired = true
	env.backend.reply(http.MethodGet, "calendar/", http.StatusOK, []CalendarIntegration{expired, fakeCalendarIntegration()})

	if _, err := env.svc.CalendarIntegrations(context.Background()); err != nil {
		t.Fatalf("CalendarIntegrations() error = %v", err)
	}

	_, warnings, _ := env.notifier.snapshot()
	if len(warnings) != 1 || !strings.HasPrefix(warnings[0], "Google Calendar") {
		t.Errorf("warnings = %v, want one for Google Calendar", warnings)
	}
	if !strings.Contains(env.logs.String(), "Service:Calendar:ExpiredTokenSyncEnabled") {
		t.Errorf("missing expired-token diagnostic in logs:\n%s", env.logs.String())
	}
}

func TestServiceLogsFilteredKeys(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.backend.handle(http.MethodGet, "logs/", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, map[string]any{
			"results": []IntegrationLog{{ID: r.URL.Query().Get("log_type"), LogType: r.URL.Query().Get("log_type")}},
		})
	})
	env.backend.reply(http.MethodPost, "webhooks/{id}/test/", http.StatusOK, ActionResult{Message: "sent"})
	ctx := context.Background()

	filters := []LogFilter{{}, {LogType: LogTypeError}, {LogType: LogTypeWebhookSent}}
	for _, f := range filters {
		logs, err := env.svc.IntegrationLogs(ctx, f)
		if err != nil {
			t.Fatalf("IntegrationLogs(%+v) error = %v", f, err)
		}
		if len(logs) != 1 || logs[0].LogType != f.LogType {
			t.Errorf("IntegrationLogs(%+v) = %+v", f, logs)
		}
	}
	for _, f := range filters {
		if _, err := env.svc.IntegrationLogs(ctx, f); err != nil {
			t.Fatalf("IntegrationLogs(%+v) error = %v", f, err)
		}
	}
	if n := env.backend.count(http.MethodGet, "logs/"); n != 3 {
		t.Errorf("logs requests = %d, want one per filter", n)
	}

	if _, err := env.svc.TestWebhook(ctx, "w1"); err != nil {
		t.Fatalf("TestWebhook() error = %v", err)
	}
	for _, f := range filters {
		if _, err := env.svc.IntegrationLogs(ctx, f); err != nil {
			t.Fatalf("IntegrationLogs(%+v) error = %v", f, err)
		}
	}
	if n := env.backend.count(http.MethodGet, "logs/"); n != 6 {
		t.Errorf("logs requests after test webhook = %d, want 6", n)
	}
}

func TestServiceEmptyID(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.CalendarIntegration(ctx, " "); !errors.Is(err, ErrEmptyID) {
		t.Errorf("CalendarIntegration() error = %v, want ErrEmptyID", err)
	}
	if _, err := env.svc.VideoIntegration(ctx, ""); !errors.Is(err, ErrEmptyID) {
		t.Errorf("VideoIntegration() error = %v, want ErrEmptyID", err)
	}
	if _, err := env.svc.WebhookIntegration(ctx, ""); !errors.Is(err, ErrEmptyID) {
		t.Errorf("WebhookIntegration() error = %v, want ErrEmptyID", err)
	}
	if _, err := env.svc.ForceCalendarSync(ctx, ""); !errors.Is(err, ErrEmptyID) {
		t.Errorf("ForceCalendarSync() error = %v, want ErrEmptyID", err)
	}
	if n := env.backend.total(); n != 0 {
		t.Errorf("backend saw %d requests, want 0", n)
	}
}

func TestServiceConflictsNormalized(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.backend.reply(http.MethodGet, "calendar/conflicts/", http.StatusOK, map[string]any{
		"conflicts": []map[string]any{{
			"external_event": map[string]string{"id": "e1", "start": "2025-03-01T10:00:00Z", "end": "2025-03-01T11:00:00Z"},
			"manual_block":   map[string]string{"id": "b1", "start": "2025-03-01T10:30:00Z", "end": "2025-03-01T12:00:00Z"},
		}},
		"total_external_events": 4,
	})

	got, err := env.svc.CalendarConflicts(context.Background())
	if err != nil {
		t.Fatalf("CalendarConflicts() error = %v", err)
	}
	if len(got.Conflicts) != 1 || got.Conflicts[0].OverlapType != OverlapPartial {
		t.Errorf("Conflicts = %+v, want one partial overlap", got.Conflicts)
	}
	if got.Overlaps == nil {
		t.Error("Overlaps is nil, want empty slice")
	}
	if got.TotalExternalEvents != 4 {
		t.Errorf("TotalExternalEvents = %d, want 4", got.TotalExternalEvents)
	}
}

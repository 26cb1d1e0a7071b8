package integrations

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-chi/chi/v5"
)

const testAPIRoot = "/api/v1"

// setupTestEnv points the XDG directories at a temp dir. Tests using it
// cannot run in parallel.
func setupTestEnv(t *testing.T) (configDir, dataDir string) {
	t.Helper()

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("XDG_DATA_HOME", tmpDir)

	configDir, err := getConfigDir()
	if err != nil {
		t.Fatalf("Failed to get config dir: %v", err)
	}
	dataDir, err = getDataDir()
	if err != nil {
		t.Fatalf("Failed to get data dir: %v", err)
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	return configDir, dataDir
}

// createTestToken writes a token file into dataDir.
func createTestToken(t *testing.T, dataDir string, store TokenStore) string {
	t.Helper()

	path := filepath.Join(dataDir, tokenFile)
	data, err := json.Marshal(store)
	if err != nil {
		t.Fatalf("Failed to marshal token: %v", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("Failed to write token: %v", err)
	}
	return path
}

// fakeBackend is an integrations API double that counts requests by
// "METHOD path".
type fakeBackend struct {
	*httptest.Server
	router chi.Router

	mu   sync.Mutex
	hits map[string]int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	b := &fakeBackend{router: chi.NewRouter(), hits: make(map[string]int)}
	b.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			b.hits[r.Method+" "+r.URL.Path]++
			b.mu.Unlock()
			next.ServeHTTP(w, r)
		})
	})
	b.Server = httptest.NewServer(b.router)
	t.Cleanup(b.Close)
	return b
}

// handle registers h for method and a path relative to the integrations
// prefix, e.g. "calendar/{id}/".
func (b *fakeBackend) handle(method, path string, h http.HandlerFunc) {
	b.router.MethodFunc(method, testAPIRoot+apiPrefix+path, h)
}

// reply registers a handler that always answers status with body as JSON.
func (b *fakeBackend) reply(method, path string, status int, body any) {
	b.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		writeTestJSON(w, status, body)
	})
}

// count returns how many requests hit method and path, where path is relative
// to the integrations prefix.
func (b *fakeBackend) count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[method+" "+testAPIRoot+apiPrefix+path]
}

func (b *fakeBackend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.hits {
		n += c
	}
	return n
}

func (b *fakeBackend) baseURL() string {
	return b.URL + testAPIRoot
}

func writeTestJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// recordingNotifier keeps every message it is sent.
type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	warnings  []string
	errors    []string
}

func (n *recordingNotifier) Success(msg string) { n.add(&n.successes, msg) }
func (n *recordingNotifier) Warning(msg string) { n.add(&n.warnings, msg) }
func (n *recordingNotifier) Error(msg string)   { n.add(&n.errors, msg) }

func (n *recordingNotifier) add(list *[]string, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	*list = append(*list, msg)
}

func (n *recordingNotifier) snapshot() (successes, warnings, errs []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.successes...),
		append([]string(nil), n.warnings...),
		append([]string(nil), n.errors...)
}

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

type testEnv struct {
	backend  *fakeBackend
	svc      *Service
	notifier *recordingNotifier
	logs     *syncBuffer
}

// newTestEnv wires a Service to a fresh fake backend. Routes are registered
// on env.backend before the first request.
func newTestEnv(t *testing.T, cacheOpts ...CacheOption) *testEnv {
	t.Helper()

	b := newFakeBackend(t)
	logger, logs := newTestLogger()
	client, err := NewClient(b.baseURL(), WithHTTPClient(b.Client()), WithLogger(logger))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	notifier := &recordingNotifier{}
	opts := append([]CacheOption{
		WithStaleTime(time.Minute),
		WithNotifier(notifier),
		WithCacheLogger(logger),
	}, cacheOpts...)

	return &testEnv{
		backend:  b,
		svc:      NewService(client, NewCache(opts...)),
		notifier: notifier,
		logs:     logs,
	}
}

func fakeCalendarIntegration() CalendarIntegration {
	now := time.Now().UTC().Truncate(time.Second)
	provider := CalendarProviders[gofakeit.Number(0, len(CalendarProviders)-1)]
	return CalendarIntegration{
		ID:              gofakeit.UUID(),
		Provider:        provider,
		ProviderDisplay: ProviderDisplayName(provider),
		ProviderEmail:   gofakeit.Email(),
		CalendarID:      "primary",
		LastSyncAt:      &now,
		IsActive:        true,
		SyncEnabled:     true,
		CreatedAt:       now.Add(-24 * time.Hour),
		UpdatedAt:       now,
	}
}

func fakeVideoIntegration() VideoConferenceIntegration {
	now := time.Now().UTC().Truncate(time.Second)
	provider := VideoProviders[gofakeit.Number(0, len(VideoProviders)-1)]
	return VideoConferenceIntegration{
		ID:                gofakeit.UUID(),
		Provider:          provider,
		ProviderDisplay:   ProviderDisplayName(provider),
		ProviderEmail:     gofakeit.Email(),
		APICallsToday:     gofakeit.Number(0, 500),
		IsActive:          true,
		AutoGenerateLinks: true,
		CreatedAt:         now.Add(-24 * time.Hour),
		UpdatedAt:         now,
	}
}

func fakeWebhookIntegration() WebhookIntegration {
	now := time.Now().UTC().Truncate(time.Second)
	return WebhookIntegration{
		ID:          gofakeit.UUID(),
		Name:        gofakeit.AppName(),
		WebhookURL:  "https://hooks.example.com/" + gofakeit.UUID(),
		Events:      []string{EventBookingCreated, EventBookingCancelled},
		IsActive:    true,
		RetryFailed: true,
		MaxRetries:  DefaultMaxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func fakeWebhookForm() WebhookForm {
	form := NewWebhookForm()
	form.Name = gofakeit.AppName()
	form.WebhookURL = "https://hooks.example.com/" + gofakeit.UUID()
	form.Events = []string{EventBookingCreated}
	return form
}

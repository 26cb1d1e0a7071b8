package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Scope is the entity type part of a cache key. Invalidating a scope drops
// every key under it, including per-id and filtered variants.
type Scope string

// Scopes
const (
	ScopeCalendar  Scope = "calendar"
	ScopeVideo     Scope = "video"
	ScopeWebhooks  Scope = "webhooks"
	ScopeLogs      Scope = "logs"
	ScopeHealth    Scope = "health"
	ScopeConflicts Scope = "conflicts"
)

// Key identifies a cached query result.
type Key struct {
	Scope  Scope
	ID     string
	Filter string
}

// ListKey is the key of a scope's unfiltered collection or singleton.
func ListKey(scope Scope) Key { return Key{Scope: scope} }

// ItemKey is the key of a single record.
func ItemKey(scope Scope, id string) Key { return Key{Scope: scope, ID: id} }

// FilteredKey is the key of a filtered collection. Filters are encoded in
// sorted order so equal filter sets share a key.
func FilteredKey(scope Scope, filters url.Values) Key {
	return Key{Scope: scope, Filter: filters.Encode()}
}

func (k Key) String() string {
	s := "integrations/" + string(k.Scope)
	if k.ID != "" {
		s += "/" + k.ID
	}
	if k.Filter != "" {
		s += "?" + k.Filter
	}
	return s
}

// State is a snapshot of one cache entry.
type State struct {
	Value       any
	Err         error
	UpdatedAt   time.Time
	Fetching    bool
	Invalidated bool
}

type entry struct {
	value       any
	hasValue    bool
	err         error
	updatedAt   time.Time
	fetching    int
	invalidated bool
}

// Cache holds query results keyed by Key. Concurrent queries for one key share
// a single fetch, and a fetch that started before an invalidation of its scope
// never writes its result.
type Cache struct {
	mu          sync.Mutex
	entries     map[Key]*entry
	generations map[Scope]uint64
	subs        map[int]*Subscription
	nextSub     int

	group     singleflight.Group
	staleTime time.Duration
	store     Store
	storeTTL  time.Duration
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithStaleTime sets how long a result is served without refetching.
func WithStaleTime(d time.Duration) CacheOption {
	return func(c *Cache) { c.staleTime = d }
}

// WithStore adds a second-level store shared between processes.
func WithStore(s Store, ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.store = s
		c.storeTTL = ttl
	}
}

// WithNotifier sets where mutation notifications go.
func WithNotifier(n Notifier) CacheOption {
	return func(c *Cache) { c.notifier = n }
}

// WithCacheLogger sets the cache logger.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) { c.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache creates an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries:     make(map[Key]*entry),
		generations: make(map[Scope]uint64),
		subs:        make(map[int]*Subscription),
		notifier:    NopNotifier{},
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query returns the cached value for key, fetching it when missing, stale or
// invalidated.
func Query[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	return load(ctx, c, key, fetch, false)
}

// Refetch fetches key regardless of freshness and stores the result.
func Refetch[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	return load(ctx, c, key, fetch, true)
}

func load[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error), force bool) (T, error) {
	var zero T

	c.mu.Lock()
	e := c.entries[key]
	if !force && e != nil && c.fresh(e) {
		v, _ := e.value.(T)
		c.mu.Unlock()
		return v, nil
	}
	gen := c.generations[key.Scope]
	c.mu.Unlock()

	if !force && e == nil && c.store != nil {
		if v, ok := loadFromStore[T](ctx, c, key); ok {
			c.settle(key, gen, v, nil)
			return v, nil
		}
	}

	flight := fmt.Sprintf("%s#%d", key, gen)
	ch := c.group.DoChan(flight, func() (any, error) {
		c.markFetching(key, 1)
		defer c.markFetching(key, -1)

		// The fetch outlives callers that stop waiting so its result can
		// still populate the cache.
		v, err := fetch(context.WithoutCancel(ctx))
		if c.settle(key, gen, v, err) && err == nil {
			storeValue(ctx, c, key, v)
		}
		return v, err
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// fresh reports whether e can be served without a fetch. Callers hold c.mu.
func (c *Cache) fresh(e *entry) bool {
	if !e.hasValue || e.err != nil || e.invalidated {
		return false
	}
	return c.now().Sub(e.updatedAt) < c.staleTime
}

func (c *Cache) markFetching(key Key, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(key)
	e.fetching += delta
}

// entry returns the entry for key, creating it. Callers hold c.mu.
func (c *Cache) entry(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// settle records a fetch result unless the key's scope was invalidated after
// the fetch started. It reports whether the result was kept.
func (c *Cache) settle(key Key, gen uint64, v any, err error) bool {
	c.mu.Lock()
	if c.generations[key.Scope] != gen {
		c.mu.Unlock()
		c.logger.Debug("Cache:Settle:Superseded", "key", key.String())
		return false
	}

	e := c.entry(key)
	if err != nil {
		// Keep the last good value so views can keep rendering it.
		e.err = err
	} else {
		e.value = v
		e.hasValue = true
		e.err = nil
		e.updatedAt = c.now()
		e.invalidated = false
	}
	c.mu.Unlock()

	c.publish(key)
	return true
}

func loadFromStore[T any](ctx context.Context, c *Cache, key Key) (T, bool) {
	var v T
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("Cache:Store:GetFailed", "key", key.String(), "error", err)
		}
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("Cache:Store:DecodeFailed", "key", key.String(), "error", err)
		return v, false
	}
	return v, true
}

func storeValue(ctx context.Context, c *Cache, key Key, v any) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Cache:Store:EncodeFailed", "key", key.String(), "error", err)
		return
	}
	if err := c.store.Set(context.WithoutCancel(ctx), key, data, c.storeTTL); err != nil {
		c.logger.Warn("Cache:Store:SetFailed", "key", key.String(), "error", err)
	}
}

// Invalidate marks every key under the given scopes as invalid. In-flight
// fetches for those scopes will not write their results.
func (c *Cache) Invalidate(ctx context.Context, scopes ...Scope) {
	var touched []Key

	c.mu.Lock()
	for _, scope := range scopes {
		c.generations[scope]++
		for k, e := range c.entries {
			if k.Scope == scope {
				e.invalidated = true
				touched = append(touched, k)
			}
		}
	}
	c.mu.Unlock()

	if c.store != nil {
		for _, scope := range scopes {
			if err := c.store.DeleteScope(ctx, scope); err != nil {
				c.logger.Warn("Cache:Store:DeleteScopeFailed", "scope", string(scope), "error", err)
			}
		}
	}

	for _, k := range touched {
		c.publish(k)
	}
}

// Peek returns the current state of key without fetching.
func (c *Cache) Peek(key Key) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return State{}, false
	}
	return State{
		Value:       e.value,
		Err:         e.err,
		UpdatedAt:   e.updatedAt,
		Fetching:    e.fetching > 0,
		Invalidated: e.invalidated,
	}, true
}

// Mutate runs fn and, on success, invalidates the scopes declared for m and
// emits a success notification. describe may override the default message
// from the result. On failure the cache is untouched and the error returned.
func Mutate[T any](ctx context.Context, c *Cache, m Mutation, fn func(context.Context) (T, error), describe func(T) string) (T, error) {
	out, err := fn(ctx)
	if err != nil {
		c.logger.Debug("Cache:Mutate:Failed", "mutation", string(m), "error", err)
		return out, err
	}

	c.Invalidate(ctx, m.Invalidates()...)

	msg := m.SuccessMessage()
	if describe != nil {
		if s := describe(out); s != "" {
			msg = s
		}
	}
	c.notifier.Success(msg)
	return out, nil
}

// Subscription delivers keys whose state changed. Deliveries are dropped
// when the buffer is full.
type Subscription struct {
	C <-chan Key

	ch     chan Key
	scopes map[Scope]bool
	id     int
	cache  *Cache
	once   sync.Once
}

// Subscribe watches the given scopes, or every scope when none are given.
func (c *Cache) Subscribe(scopes ...Scope) *Subscription {
	ch := make(chan Key, 16)
	s := &Subscription{C: ch, ch: ch, cache: c}
	if len(scopes) > 0 {
		s.scopes = make(map[Scope]bool, len(scopes))
		for _, scope := range scopes {
			s.scopes[scope] = true
		}
	}

	c.mu.Lock()
	s.id = c.nextSub
	c.nextSub++
	c.subs[s.id] = s
	c.mu.Unlock()
	return s
}

// Close stops deliveries. In-flight fetches are not cancelled.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.cache.mu.Lock()
		delete(s.cache.subs, s.id)
		close(s.ch)
		s.cache.mu.Unlock()
	})
}

func (c *Cache) publish(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.subs {
		if s.scopes != nil && !s.scopes[key.Scope] {
			continue
		}
		select {
		case s.ch <- key:
		default:
		}
	}
}

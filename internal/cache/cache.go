// Package cache persists the external portion of the event set with a
// time-to-live, so navigating back to the calendar does not refetch a
// window the provider served moments ago. Caching is an optimization:
// persistence failures are logged and swallowed, and a missing or
// corrupt envelope is simply a miss.
package cache

import (
	"encoding/json"
	"time"

	"sugarcal/internal/event"
	"sugarcal/internal/kvstore"
	appLog "sugarcal/internal/log"
)

// DefaultKey is the slot name the calendar writes its envelope under.
const DefaultKey = "sugarcal_events_cache"

// Envelope is the persisted shape: a write timestamp plus the
// external events grouped by date key.
type Envelope struct {
	Timestamp int64                       `json:"timestamp"` // epoch millis
	Payload   map[string][]event.Instance `json:"payload"`
}

type Option func(*Cache)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithKey overrides the storage slot name.
func WithKey(key string) Option {
	return func(c *Cache) { c.key = key }
}

// Cache wraps a kvstore slot with TTL semantics.
type Cache struct {
	kv  kvstore.Store
	key string
	ttl time.Duration
	now func() time.Time
}

func New(kv kvstore.Store, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		kv:  kv,
		key: DefaultKey,
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read returns the cached payload, or nil when the slot is absent,
// unparseable, or expired. An envelope aged exactly at the TTL counts
// as expired.
func (c *Cache) Read() map[string][]event.Instance {
	raw, ok, err := c.kv.Get(c.key)
	if err != nil {
		appLog.Warn("cache read failed", "key", c.key, "err", err)
		return nil
	}
	if !ok {
		return nil
	}

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		appLog.Warn("cache envelope unparseable, treating as miss", "key", c.key, "err", err)
		return nil
	}

	age := c.now().UnixMilli() - env.Timestamp
	if age >= c.ttl.Milliseconds() {
		appLog.Debug("cache expired", "key", c.key, "age_ms", age)
		return nil
	}
	return env.Payload
}

// Write persists the payload best-effort, keeping only external
// entries. Failures are logged, never returned.
func (c *Cache) Write(payload map[string][]event.Instance) {
	external := make(map[string][]event.Instance, len(payload))
	for key, list := range payload {
		for _, in := range list {
			if in.Origin == event.OriginExternal {
				external[key] = append(external[key], in)
			}
		}
	}

	env := Envelope{
		Timestamp: c.now().UnixMilli(),
		Payload:   external,
	}
	data, err := json.Marshal(env)
	if err != nil {
		appLog.Warn("cache envelope marshal failed", "key", c.key, "err", err)
		return
	}
	if err := c.kv.Set(c.key, string(data)); err != nil {
		appLog.Warn("cache write failed", "key", c.key, "err", err)
	}
}

// Invalidate removes the slot; used by forced refresh. Failures are
// logged, never returned.
func (c *Cache) Invalidate() {
	if err := c.kv.Delete(c.key); err != nil {
		appLog.Warn("cache invalidate failed", "key", c.key, "err", err)
	}
}

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/shopsignal/steadfast/observe"
	"github.com/shopsignal/steadfast/store"
)

// Layer identifies one storage tier in the fallback chain.
type Layer int

const (
	// LayerMemory is the bounded in-memory tier.
	LayerMemory Layer = iota
	// LayerKV is the durable small-value tier.
	LayerKV
	// LayerBlob is the durable large-object tier. Writes go there only
	// when callers opt in; it is the slowest tier.
	LayerBlob
)

// NoExpiry as a TTL stores an entry that never expires.
const NoExpiry time.Duration = -1

// RevalidateFunc loads a fresh value for a key whose cached entry has
// gone stale.
type RevalidateFunc func(ctx context.Context) ([]byte, error)

// Config configures a Manager.
type Config struct {
	// Namespace prefixes every key in the durable tiers so cache data
	// coexists safely with unrelated stored data.
	// Default: "cache:"
	Namespace string

	// Version gates entries: an entry persisted under a different
	// version reads as absent. Bump it to invalidate the old format.
	// Default: 1
	Version int

	// MemoryMaxSize bounds the in-memory tier.
	// Default: 100
	MemoryMaxSize int

	// Eviction selects the memory tier eviction policy.
	// Default: EvictLRU
	Eviction EvictionPolicy

	// DefaultTTL applies when Set is called without a TTL. NoExpiry
	// makes unspecified entries permanent.
	// Default: 5 minutes
	DefaultTTL time.Duration

	// KV is the durable small-value tier. Nil disables the tier.
	KV store.KV

	// Blob is the durable large-object tier. Nil disables the tier.
	Blob store.Blob

	// Logger receives background-task and tier-degradation failures.
	Logger observe.Logger

	// Metrics records hits and misses when set.
	Metrics observe.Metrics
}

// Manager serves cached values across up to three tiers, promoting
// hits toward the faster tiers and refreshing stale entries in the
// background. Cache operations never fail: a broken tier degrades to
// absence.
type Manager struct {
	config Config
	mem    *memoryTier
	events *eventBus

	// revalidations collapses concurrent background refreshes per key.
	revalidations singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// NewManager creates a cache manager.
func NewManager(config Config) *Manager {
	// Apply defaults
	if config.Namespace == "" {
		config.Namespace = "cache:"
	}
	if config.Version <= 0 {
		config.Version = 1
	}
	if config.MemoryMaxSize <= 0 {
		config.MemoryMaxSize = 100
	}
	if config.Eviction == "" {
		config.Eviction = EvictLRU
	}
	if config.DefaultTTL == 0 {
		config.DefaultTTL = 5 * time.Minute
	}
	if config.Logger == nil {
		config.Logger = observe.NewNopLogger()
	}
	if config.Metrics == nil {
		config.Metrics = observe.NewNopMetrics()
	}

	return &Manager{
		config: config,
		mem:    newMemoryTier(config.MemoryMaxSize, config.Eviction),
		events: newEventBus(),
	}
}

// Get retrieves the value for key, checking the tiers fastest-first. A
// hit in a slower tier is promoted to the tiers above it. An expired
// entry is served as-is when a revalidator is supplied, with exactly
// one background refresh in flight per key; without one it is evicted
// and the next tier is consulted.
func (m *Manager) Get(ctx context.Context, key string, revalidate RevalidateFunc) ([]byte, bool) {
	now := time.Now()

	// Tier 1: memory
	if entry, ok := m.mem.get(key); ok {
		if entry.usable(m.config.Version) {
			if !entry.Expired(now) {
				m.recordHit(ctx, "memory")
				return cloneBytes(entry.Value), true
			}
			if revalidate != nil {
				m.recordHit(ctx, "memory")
				m.refresh(key, revalidate)
				return cloneBytes(entry.Value), true
			}
		}
		m.mem.delete(key)
	}

	// Tier 2: durable small-value store
	if m.config.KV != nil {
		if entry := m.loadKV(ctx, key); entry != nil {
			if entry.usable(m.config.Version) {
				if !entry.Expired(now) {
					entry.touch(now)
					m.mem.set(entry)
					m.recordHit(ctx, "kv")
					return cloneBytes(entry.Value), true
				}
				if revalidate != nil {
					m.recordHit(ctx, "kv")
					m.refresh(key, revalidate)
					return cloneBytes(entry.Value), true
				}
			}
			m.deleteKV(ctx, key)
		}
	}

	// Tier 3: durable large-object store
	if m.config.Blob != nil {
		if entry := m.loadBlob(ctx, key); entry != nil {
			if entry.usable(m.config.Version) {
				if !entry.Expired(now) {
					entry.touch(now)
					m.mem.set(entry)
					m.writeKV(ctx, entry)
					m.recordHit(ctx, "blob")
					return cloneBytes(entry.Value), true
				}
				if revalidate != nil {
					m.recordHit(ctx, "blob")
					m.refresh(key, revalidate)
					return cloneBytes(entry.Value), true
				}
			}
			m.deleteBlob(ctx, key)
		}
	}

	m.recordMiss(ctx)
	return nil, false
}

// SetOptions tune one Set call.
type SetOptions struct {
	// TTL overrides the manager's default. Zero means "use the
	// default"; NoExpiry stores a permanent entry.
	TTL time.Duration

	// Layers selects the tiers to write. Nil writes memory and the
	// small-value store; the large-object tier is always opt-in.
	Layers []Layer
}

// Set writes the value to the selected tiers.
func (m *Manager) Set(ctx context.Context, key string, value []byte, opts SetOptions) {
	ttl := opts.TTL
	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}

	layers := opts.Layers
	if layers == nil {
		layers = []Layer{LayerMemory, LayerKV}
	}

	entry := newEntry(key, cloneBytes(value), ttl, m.config.Version)

	for _, layer := range layers {
		switch layer {
		case LayerMemory:
			m.mem.set(entry)
		case LayerKV:
			m.writeKV(ctx, entry)
		case LayerBlob:
			m.writeBlob(ctx, entry)
		}
	}
}

// Invalidate removes key from every tier.
func (m *Manager) Invalidate(ctx context.Context, key string) {
	m.mem.delete(key)
	if m.config.KV != nil {
		m.deleteKV(ctx, key)
	}
	if m.config.Blob != nil {
		m.deleteBlob(ctx, key)
	}
}

// InvalidateByPrefix removes every key starting with prefix from every
// tier. The large-object tier has no prefix query, so it is walked by
// cursor.
func (m *Manager) InvalidateByPrefix(ctx context.Context, prefix string) {
	m.mem.deleteByPrefix(prefix)

	if m.config.KV != nil {
		keys, err := m.config.KV.Keys(ctx, m.storageKey(prefix))
		if err != nil {
			m.logTierError(ctx, "kv", "list", err)
		}
		for _, k := range keys {
			if err := m.config.KV.Delete(ctx, k); err != nil {
				m.logTierError(ctx, "kv", "delete", err)
			}
		}
	}

	if m.config.Blob != nil {
		m.invalidateBlobByPrefix(ctx, m.storageKey(prefix))
	}
}

// Clear removes every cached entry from every tier.
func (m *Manager) Clear(ctx context.Context) {
	m.mem.clear()

	if m.config.KV != nil {
		keys, err := m.config.KV.Keys(ctx, m.config.Namespace)
		if err != nil {
			m.logTierError(ctx, "kv", "list", err)
		}
		for _, k := range keys {
			if err := m.config.KV.Delete(ctx, k); err != nil {
				m.logTierError(ctx, "kv", "delete", err)
			}
		}
	}

	if m.config.Blob != nil {
		m.invalidateBlobByPrefix(ctx, m.config.Namespace)
	}
}

// OnInvalidation registers a callback for an invalidation event key.
// The returned function deregisters it.
func (m *Manager) OnInvalidation(event string, fn func()) (unsubscribe func()) {
	return m.events.subscribe(event, fn)
}

// EmitInvalidation synchronously notifies all callbacks registered for
// the event. Callback panics are contained.
func (m *Manager) EmitInvalidation(event string) {
	m.events.emit(event)
}

// WarmupEntry names one key to pre-populate.
type WarmupEntry struct {
	Key    string
	TTL    time.Duration
	Layers []Layer
	Load   RevalidateFunc
}

// Warmup populates the given keys in parallel. A failed load is logged
// and skipped; it never prevents the other entries from populating.
func (m *Manager) Warmup(ctx context.Context, entries []WarmupEntry) {
	var wg sync.WaitGroup
	for _, we := range entries {
		wg.Add(1)
		go func(we WarmupEntry) {
			defer wg.Done()
			value, err := we.Load(ctx)
			if err != nil {
				m.config.Logger.Warn(ctx, "cache warmup load failed",
					observe.F("key", we.Key), observe.F("error", err.Error()))
				return
			}
			m.Set(ctx, we.Key, value, SetOptions{TTL: we.TTL, Layers: we.Layers})
		}(we)
	}
	wg.Wait()
}

// Stats is a point-in-time view of hit/miss counters.
type Stats struct {
	Hits   int64
	Misses int64
}

// Stats returns the current counters.
func (m *Manager) Stats() Stats {
	return Stats{Hits: m.hits.Load(), Misses: m.misses.Load()}
}

// MemoryLen reports how many entries the memory tier holds.
func (m *Manager) MemoryLen() int {
	return m.mem.len()
}

// Dispose clears all invalidation listeners so the manager can be torn
// down without leaking callbacks across tests or reloads.
func (m *Manager) Dispose() {
	m.events.clear()
}

// refresh kicks off a background revalidation for key. Concurrent
// refreshes for the same key collapse into one call; failures are
// logged and swallowed so staleness never surfaces as an error.
func (m *Manager) refresh(key string, revalidate RevalidateFunc) {
	go func() {
		m.revalidations.Do(key, func() (any, error) {
			ctx := context.Background()
			value, err := revalidate(ctx)
			if err != nil {
				m.config.Logger.Warn(ctx, "cache revalidation failed",
					observe.F("key", key), observe.F("error", err.Error()))
				return nil, nil
			}
			m.Set(ctx, key, value, SetOptions{})
			return nil, nil
		})
	}()
}

func (m *Manager) storageKey(key string) string {
	return m.config.Namespace + key
}

func (m *Manager) loadKV(ctx context.Context, key string) *Entry {
	raw, ok, err := m.config.KV.Get(ctx, m.storageKey(key))
	if err != nil {
		m.logTierError(ctx, "kv", "get", err)
		return nil
	}
	if !ok {
		return nil
	}
	entry, err := decodeEntry(raw)
	if err != nil {
		m.logTierError(ctx, "kv", "decode", err)
		return nil
	}
	return entry
}

func (m *Manager) writeKV(ctx context.Context, entry *Entry) {
	if m.config.KV == nil {
		return
	}
	raw, err := encodeEntry(entry)
	if err != nil {
		m.logTierError(ctx, "kv", "encode", err)
		return
	}
	if err := m.config.KV.Set(ctx, m.storageKey(entry.Key), raw); err != nil {
		m.logTierError(ctx, "kv", "set", err)
	}
}

func (m *Manager) deleteKV(ctx context.Context, key string) {
	if err := m.config.KV.Delete(ctx, m.storageKey(key)); err != nil {
		m.logTierError(ctx, "kv", "delete", err)
	}
}

func (m *Manager) loadBlob(ctx context.Context, key string) *Entry {
	raw, ok, err := m.config.Blob.Get(ctx, m.storageKey(key))
	if err != nil {
		m.logTierError(ctx, "blob", "get", err)
		return nil
	}
	if !ok {
		return nil
	}
	entry, err := decodeEntry(raw)
	if err != nil {
		m.logTierError(ctx, "blob", "decode", err)
		return nil
	}
	return entry
}

func (m *Manager) writeBlob(ctx context.Context, entry *Entry) {
	if m.config.Blob == nil {
		return
	}
	raw, err := encodeEntry(entry)
	if err != nil {
		m.logTierError(ctx, "blob", "encode", err)
		return
	}
	if err := m.config.Blob.Set(ctx, m.storageKey(entry.Key), raw); err != nil {
		m.logTierError(ctx, "blob", "set", err)
	}
}

func (m *Manager) deleteBlob(ctx context.Context, key string) {
	if err := m.config.Blob.Delete(ctx, m.storageKey(key)); err != nil {
		m.logTierError(ctx, "blob", "delete", err)
	}
}

func (m *Manager) invalidateBlobByPrefix(ctx context.Context, fullPrefix string) {
	var matched []string
	err := m.config.Blob.Scan(ctx, func(key string) bool {
		if len(key) >= len(fullPrefix) && key[:len(fullPrefix)] == fullPrefix {
			matched = append(matched, key)
		}
		return true
	})
	if err != nil {
		m.logTierError(ctx, "blob", "scan", err)
	}
	for _, k := range matched {
		if err := m.config.Blob.Delete(ctx, k); err != nil {
			m.logTierError(ctx, "blob", "delete", err)
		}
	}
}

func (m *Manager) recordHit(ctx context.Context, tier string) {
	m.hits.Add(1)
	m.config.Metrics.RecordCacheHit(ctx, tier)
}

func (m *Manager) recordMiss(ctx context.Context) {
	m.misses.Add(1)
	m.config.Metrics.RecordCacheMiss(ctx)
}

func (m *Manager) logTierError(ctx context.Context, tier, op string, err error) {
	m.config.Logger.Debug(ctx, "cache tier degraded",
		observe.F("tier", tier), observe.F("op", op), observe.F("error", err.Error()))
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

package cache

import (
	"context"
	"sync"
	"time"

	"StorefrontAPI/internal/metrics"
)

type memEntry struct {
	data    []byte
	version uint64
	expires time.Time
}

// MemoryViews is the in-process Views used when no redis is configured.
// Invalidating a path drops its entries, and expired entries are swept
// at most once per TTL on write.
type MemoryViews struct {
	mu        sync.Mutex
	ttl       time.Duration
	versions  map[string]uint64
	entries   map[string]map[string]memEntry
	nextSweep time.Time
	now       func() time.Time
}

func NewMemoryViews(ttl time.Duration) *MemoryViews {
	return &MemoryViews{
		ttl:      ttl,
		versions: map[string]uint64{},
		entries:  map[string]map[string]memEntry{},
		now:      time.Now,
	}
}

func (m *MemoryViews) Get(_ context.Context, path, variant string) ([]byte, uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ver := m.versions[path]
	e, ok := m.entries[path][variant]
	if !ok || e.version != ver {
		return nil, ver, false
	}
	if m.ttl > 0 && m.now().After(e.expires) {
		m.drop(path, variant)
		return nil, ver, false
	}
	return e.data, ver, true
}

func (m *MemoryViews) Set(_ context.Context, path, variant string, version uint64, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.versions[path] != version {
		return
	}
	now := m.now()
	if m.ttl > 0 && now.After(m.nextSweep) {
		m.sweep(now)
		m.nextSweep = now.Add(m.ttl)
	}

	byVariant, ok := m.entries[path]
	if !ok {
		byVariant = map[string]memEntry{}
		m.entries[path] = byVariant
	}
	byVariant[variant] = memEntry{
		data:    data,
		version: version,
		expires: now.Add(m.ttl),
	}
}

func (m *MemoryViews) Invalidate(_ context.Context, paths ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range paths {
		m.versions[p]++
		delete(m.entries, p)
	}
	metrics.CacheInvalidated(len(paths))
}

// Version reports the current counter for path.
func (m *MemoryViews) Version(path string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versions[path]
}

// Len reports how many entries are held.
func (m *MemoryViews) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, byVariant := range m.entries {
		n += len(byVariant)
	}
	return n
}

func (m *MemoryViews) drop(path, variant string) {
	delete(m.entries[path], variant)
	if len(m.entries[path]) == 0 {
		delete(m.entries, path)
	}
}

func (m *MemoryViews) sweep(now time.Time) {
	for path, byVariant := range m.entries {
		for variant, e := range byVariant {
			if now.After(e.expires) {
				m.drop(path, variant)
			}
		}
	}
}

package builtin

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCacheBackend adapts patrickmn/go-cache to CacheBackend — an
// in-process cache with the same per-key TTL and janitor-based eviction
// the teacher's caches/ package relies on for its non-Redis tier.
type MemoryCacheBackend struct {
	cache *gocache.Cache
}

// NewMemoryCacheBackend builds a backend whose janitor sweeps expired
// entries every cleanupInterval.
func NewMemoryCacheBackend(defaultTTL, cleanupInterval time.Duration) *MemoryCacheBackend {
	return &MemoryCacheBackend{cache: gocache.New(defaultTTL, cleanupInterval)}
}

func (m *MemoryCacheBackend) Get(key string) ([]byte, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return data, true, nil
}

func (m *MemoryCacheBackend) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.cache.Set(key, value, ttl)
	return nil
}

var _ CacheBackend = (*MemoryCacheBackend)(nil)

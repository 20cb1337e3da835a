package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/campusbooks/bookcycle-backend/internal/goroutine"
)

// MemoryCache provides an in-memory Cache implementation with TTL support.
// Used in development mode (no Redis) and in tests.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	sets    map[string]*memorySet
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero value means no expiry
}

type memorySet struct {
	members   map[string]struct{}
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func (s *memorySet) expired(now time.Time) bool {
	return !s.expiresAt.IsZero() && now.After(s.expiresAt)
}

// NewMemory creates a new in-memory cache and starts a background cleanup goroutine.
func NewMemory() *MemoryCache {
	mc := &MemoryCache{
		entries: make(map[string]*memoryEntry),
		sets:    make(map[string]*memorySet),
	}

	goroutine.SafeGo(mc.cleanup)

	return mc
}

func (mc *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	entry, exists := mc.entries[key]
	if !exists || entry.expired(time.Now()) {
		return "", ErrCacheMiss
	}
	return entry.value, nil
}

func (mc *MemoryCache) SetWithExpire(ctx context.Context, key, value string, ttl time.Duration) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	entry := &memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	mc.entries[key] = entry
	return nil
}

func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	delete(mc.entries, key)
	delete(mc.sets, key)
	return nil
}

func (mc *MemoryCache) Has(ctx context.Context, key string) (bool, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	now := time.Now()
	if entry, ok := mc.entries[key]; ok && !entry.expired(now) {
		return true, nil
	}
	if set, ok := mc.sets[key]; ok && !set.expired(now) {
		return true, nil
	}
	return false, nil
}

func (mc *MemoryCache) AddToSet(ctx context.Context, key string, members ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	set, ok := mc.sets[key]
	if !ok || set.expired(time.Now()) {
		set = &memorySet{members: make(map[string]struct{})}
		mc.sets[key] = set
	}
	for _, m := range members {
		set.members[m] = struct{}{}
	}
	return nil
}

func (mc *MemoryCache) SetMembers(ctx context.Context, key string) ([]string, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	set, ok := mc.sets[key]
	if !ok || set.expired(time.Now()) {
		return nil, nil
	}
	members := make([]string, 0, len(set.members))
	for m := range set.members {
		members = append(members, m)
	}
	return members, nil
}

func (mc *MemoryCache) RemoveFromSet(ctx context.Context, key string, members ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	set, ok := mc.sets[key]
	if !ok {
		return nil
	}
	for _, m := range members {
		delete(set.members, m)
	}
	return nil
}

func (mc *MemoryCache) RefreshExpire(ctx context.Context, key string, ttl time.Duration) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	expiresAt := time.Time{}
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	if entry, ok := mc.entries[key]; ok {
		entry.expiresAt = expiresAt
	}
	if set, ok := mc.sets[key]; ok {
		set.expiresAt = expiresAt
	}
	return nil
}

func (mc *MemoryCache) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	current := int64(0)
	if entry, ok := mc.entries[key]; ok && !entry.expired(time.Now()) {
		parsed, err := strconv.ParseInt(entry.value, 10, 64)
		if err == nil {
			current = parsed
		}
	}
	current += delta
	mc.entries[key] = &memoryEntry{value: strconv.FormatInt(current, 10)}
	return current, nil
}

// cleanup removes expired entries periodically.
func (mc *MemoryCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		mc.mu.Lock()
		now := time.Now()
		for key, entry := range mc.entries {
			if entry.expired(now) {
				delete(mc.entries, key)
			}
		}
		for key, set := range mc.sets {
			if set.expired(now) {
				delete(mc.sets, key)
			}
		}
		mc.mu.Unlock()
	}
}

package cache

import (
	"context"
	"sync"
	"time"
)

const (
	defaultMemoryTTL     = 15 * time.Minute
	defaultMaxEntries    = 1024
	defaultCleanupPeriod = 5 * time.Minute
)

type memoryEntry struct {
	expiry time.Time
	value  []byte
}

// Memory is an in-process response cache with per-entry expiry.
type Memory struct {
	entries    map[string]memoryEntry
	stopCh     chan struct{}
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	mu         sync.RWMutex
	closeOnce  sync.Once
}

// NewMemory creates a cache whose entries default to ttl and which holds at
// most maxEntries values.
func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	if ttl <= 0 {
		ttl = defaultMemoryTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	m := &Memory{
		entries:    make(map[string]memoryEntry),
		stopCh:     make(chan struct{}),
		now:        time.Now,
		ttl:        ttl,
		maxEntries: maxEntries,
	}

	go m.cleanup(defaultCleanupPeriod)

	return m
}

// Get returns the value for key if present and not expired.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok || m.now().After(entry.expiry) {
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores value under key. A non-positive ttl uses the cache default.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.ttl
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictOldest()
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	m.entries[key] = memoryEntry{value: stored, expiry: m.now().Add(ttl)}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close stops the cleanup goroutine.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() { close(m.stopCh) })
	return nil
}

// evictOldest drops the entry closest to expiry. Callers hold the lock.
func (m *Memory) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range m.entries {
		if oldestKey == "" || entry.expiry.Before(oldest) {
			oldestKey = key
			oldest = entry.expiry
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

func (m *Memory) removeExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, entry := range m.entries {
		if now.After(entry.expiry) {
			delete(m.entries, key)
		}
	}
}

func (m *Memory) cleanup(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.removeExpired()
		}
	}
}

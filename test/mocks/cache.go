// Package mocks provides shared in-memory test doubles.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockCache is an in-memory implementation of the cache.Cache interface.
// Used for testing without requiring a real Redis instance. Entries honor
// their expiration, and Err forces every call to fail for error-path tests.
type MockCache struct {
	mu      sync.RWMutex
	data    map[string]string
	expires map[string]time.Time

	// Err, when set, is returned by every operation.
	Err error
}

// NewMockCache creates a new mock cache instance.
func NewMockCache() *MockCache {
	return &MockCache{
		data:    make(map[string]string),
		expires: make(map[string]time.Time),
	}
}

// Get retrieves a value. Missing or expired keys return an empty string and
// no error, matching the Redis-backed implementation.
func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if deadline, ok := m.expires[key]; ok && time.Now().After(deadline) {
		return "", nil
	}

	return m.data[key], nil
}

// Set stores a value with an expiration. A zero expiration means no TTL.
func (m *MockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = fmt.Sprintf("%v", value)
	if expiration > 0 {
		m.expires[key] = time.Now().Add(expiration)
	} else {
		delete(m.expires, key)
	}
	return nil
}

// Del deletes keys.
func (m *MockCache) Del(ctx context.Context, keys ...string) error {
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.data, key)
		delete(m.expires, key)
	}
	return nil
}

// Health reports the injected error, if any.
func (m *MockCache) Health(ctx context.Context) error {
	return m.Err
}

// Close is a no-op.
func (m *MockCache) Close() error {
	return nil
}

// Clear resets the mock cache (useful between test cases).
func (m *MockCache) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]string)
	m.expires = make(map[string]time.Time)
}

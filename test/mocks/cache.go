package mocks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/skillnexus/reputation-service/internal/cache"
)

// MockCache is an in-memory mock implementation of the Cache interface
// Used for testing without requiring a real Redis instance
type MockCache struct {
	data map[string]interface{}
	mu   sync.RWMutex

	// Err, when set, is returned by every operation to simulate an outage.
	Err error
}

var _ cache.Cache = (*MockCache)(nil)

// ErrUnavailable simulates a Redis outage.
var ErrUnavailable = errors.New("cache unavailable")

// NewMockCache creates a new mock cache instance
func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string]interface{}),
	}
}

// Get retrieves a value from the mock cache
func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return "", m.Err
	}

	val, exists := m.data[key]
	if !exists {
		return "", cache.ErrMiss
	}

	switch v := val.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	return "", nil
}

// Set stores a value in the mock cache
func (m *MockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.data[key] = value
	// Note: expiration is ignored in mock (no TTL implementation)
	return nil
}

// Del deletes keys from the mock cache
func (m *MockCache) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

// SetNX sets a key only if it doesn't exist (for distributed locking)
func (m *MockCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return false, m.Err
	}
	if _, exists := m.data[key]; exists {
		return false, nil
	}

	m.data[key] = value
	return true, nil
}

// Has reports whether key is present.
func (m *MockCache) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok
}

// Ping returns Err.
func (m *MockCache) Ping(ctx context.Context) error {
	return m.Err
}

// Close is a no-op.
func (m *MockCache) Close() error {
	return nil
}

package comparison

import (
	"context"
	"time"

	"github.com/kailas-cloud/labcompare/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	data       map[string][]byte
	ttls       map[string]time.Duration
	getFn      func(ctx context.Context, key string) ([]byte, error)
	setFn      func(ctx context.Context, key string, value []byte) error
	scanFn     func(ctx context.Context, pattern string) ([]string, error)
	delFn      func(ctx context.Context, key string) error
	lastPrefix string
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.data[key] = value
	return nil
}

func (m *mockStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.ttls[key] = ttl
	return m.Set(ctx, key, value)
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	delete(m.data, key)
	return nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	m.lastPrefix = pattern
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

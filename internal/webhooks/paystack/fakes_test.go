package paystackwebhook

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type memoryStore struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	failGet error
	failSet error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return "", m.failGet
	}
	value, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return false, m.failSet
	}
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = toString(value)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return strings.Join([]string{"sf", "idempotency", scope, id}, ":")
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return "1"
}

type stubReferences struct {
	exists bool
	err    error
	calls  int
}

func (s *stubReferences) ExistsByReference(context.Context, string) (bool, error) {
	s.calls++
	return s.exists, s.err
}

var errRedisDown = errors.New("redis: connection refused")

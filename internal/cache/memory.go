package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// memoryCache keeps entries in an expiring LRU. The LRU has a single TTL
// for every entry; the ttl argument of Set and SetNX is honoured only when
// it is shorter, by storing the deadline next to the value.
type memoryCache struct {
	mu     sync.Mutex
	lru    *expirable.LRU[string, entry]
	prefix string
	now    func() time.Time
}

type entry struct {
	value    string
	deadline time.Time
}

// NewMemory returns an in-process Cache holding at most size entries for at
// most ttl each.
func NewMemory(size int, ttl time.Duration, prefix string) Cache {
	return &memoryCache{
		lru:    expirable.NewLRU[string, entry](size, nil, ttl),
		prefix: prefix,
		now:    time.Now,
	}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(key)
	return e.value, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Add(key, m.entry(value, ttl))
	return nil
}

func (m *memoryCache) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookup(key); ok {
		return false, nil
	}
	m.lru.Add(key, m.entry(value, ttl))
	return true, nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Remove(key)
	return nil
}

func (m *memoryCache) Key(operation, key string) string {
	return generateKey(m.prefix, operation, key)
}

// lookup must be called with mu held.
func (m *memoryCache) lookup(key string) (entry, bool) {
	e, ok := m.lru.Get(key)
	if !ok {
		return entry{}, false
	}
	if !e.deadline.IsZero() && !m.now().Before(e.deadline) {
		m.lru.Remove(key)
		return entry{}, false
	}
	return e, true
}

func (m *memoryCache) entry(value string, ttl time.Duration) entry {
	e := entry{value: value}
	if ttl > 0 {
		e.deadline = m.now().Add(ttl)
	}
	return e
}

package cache

import (
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry struct {
	data      json.RawMessage
	expiresAt time.Time
}

// Memory is an in-memory LRU cache with TTL expiry.
type Memory struct {
	lru  *lru.Cache[string, *entry]
	ttl  time.Duration
	stop chan struct{}
}

// NewMemory creates a memory cache holding up to size entries, each
// valid for ttl.
func NewMemory(size int, ttl time.Duration) (*Memory, error) {
	c, err := lru.New[string, *entry](size)
	if err != nil {
		return nil, err
	}

	m := &Memory{
		lru:  c,
		ttl:  ttl,
		stop: make(chan struct{}),
	}
	go m.janitor()
	return m, nil
}

// Get returns the cached value when present and not expired.
func (m *Memory) Get(key string) (json.RawMessage, bool) {
	e, ok := m.lru.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.lru.Remove(key)
		return nil, false
	}
	return e.data, true
}

// Set stores a value with the cache's TTL.
func (m *Memory) Set(key string, value json.RawMessage) {
	m.lru.Add(key, &entry{
		data:      value,
		expiresAt: time.Now().Add(m.ttl),
	})
}

// Close stops the expiry janitor.
func (m *Memory) Close() {
	close(m.stop)
}

func (m *Memory) janitor() {
	ticker := time.NewTicker(m.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			now := time.Now()
			for _, key := range m.lru.Keys() {
				if e, ok := m.lru.Peek(key); ok && now.After(e.expiresAt) {
					m.lru.Remove(key)
				}
			}
		}
	}
}

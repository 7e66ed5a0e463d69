package cache

import (
	"sync"
	"time"
)

const defaultTTL = 5 * time.Minute

type entry struct {
	value   any
	expires time.Time
}

// Store is a small in-process TTL cache keyed by string. It backs the
// read-side listing cache; structural changes invalidate the affected key.
type Store struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]entry
}

func New(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{ttl: ttl, items: make(map[string]entry)}
}

func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expires) {
		s.Invalidate(key)
		return nil, false
	}
	return e.value, true
}

func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	s.items[key] = entry{value: value, expires: time.Now().Add(s.ttl)}
	s.mu.Unlock()
}

func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

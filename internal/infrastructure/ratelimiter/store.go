package ratelimiter

import (
	"errors"
	"sync"
	"time"
)

var ErrMiss = errors.New("rate limiter store miss")

// Store keeps per-source bucket state. Entries expire so idle sources
// cost nothing.
type Store interface {
	Get(key string) (int64, error)
	Set(key string, value int64, ttl time.Duration) error
	Close() error
}

type memoryEntry struct {
	value     int64
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	stop    chan struct{}
	once    sync.Once
}

func NewMemoryStore() Store {
	s := &memoryStore{
		entries: make(map[string]memoryEntry),
		stop:    make(chan struct{}),
	}

	go s.janitor()

	return s
}

func (s *memoryStore) Get(key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return 0, ErrMiss
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		return 0, ErrMiss
	}

	return entry.value, nil
}

func (s *memoryStore) Set(key string, value int64, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = memoryEntry{value: value, expiresAt: expiresAt}
	s.mu.Unlock()

	return nil
}

func (s *memoryStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *memoryStore) sweep() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.entries {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
}

func (s *memoryStore) Close() error {
	s.once.Do(func() {
		close(s.stop)
	})
	return nil
}

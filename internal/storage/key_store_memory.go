package storage

import (
	"context"
	"sync"
	"time"
)

type keyStoreEntry struct {
	entry     KeyEntry
	expiresAt time.Time
}

var _ KeyStore = (*MemoryKeyStore)(nil)

type MemoryKeyStore struct {
	mu      sync.RWMutex
	entries map[string]keyStoreEntry

	done      chan struct{}
	closeOnce sync.Once
	interval  time.Duration
}

func NewMemoryKeyStore(cleanupInterval time.Duration) *MemoryKeyStore {
	s := &MemoryKeyStore{
		entries:  make(map[string]keyStoreEntry),
		done:     make(chan struct{}),
		interval: cleanupInterval,
	}
	go s.cleanupLoop()
	return s
}

func (s *MemoryKeyStore) Get(_ context.Context, keyID string) (KeyEntry, error) {
	s.mu.RLock()
	e, ok := s.entries[keyID]
	s.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return KeyEntry{}, ErrNotFound
	}
	return e.entry, nil
}

func (s *MemoryKeyStore) Set(_ context.Context, entry KeyEntry, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[entry.KeyID] = keyStoreEntry{
		entry:     entry,
		expiresAt: time.Now().Add(ttl),
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryKeyStore) cleanupLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryKeyStore) cleanup() {
	now := time.Now()
	s.mu.Lock()
	for kid, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, kid)
		}
	}
	s.mu.Unlock()
}

func (s *MemoryKeyStore) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

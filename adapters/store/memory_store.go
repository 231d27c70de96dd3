package store

import (
	"context"
	"sync"

	"github.com/solrisk/mwabridge/core"
)

// MemoryStore implements the SessionStore interface using process memory.
// This is primarily intended for testing and for running the shell without
// Redis; sessions do not survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	sess  core.WalletSession
	found bool
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored session, if any.
func (s *MemoryStore) Load(ctx context.Context) (core.WalletSession, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sess, s.found, nil
}

// Save replaces the stored session.
func (s *MemoryStore) Save(ctx context.Context, sess core.WalletSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sess = sess
	s.found = true
	return nil
}

// Delete removes the stored session.
func (s *MemoryStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sess = core.WalletSession{}
	s.found = false
	return nil
}

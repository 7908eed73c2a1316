// Package sessions records admin session tokens revoked by logout. Tokens
// are signed and self-contained, so a revoked token stays listed until it
// would have expired anyway.
package sessions

import (
	"context"
	"sync"
	"time"
)

// Store tracks revoked token identifiers.
type Store interface {
	// Revoke lists tokenID as revoked until expires
	Revoke(ctx context.Context, tokenID string, expires time.Time) error

	// IsRevoked reports whether tokenID was revoked and has not yet expired
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryStore keeps revocations in process memory. Revocations are lost on
// restart and are not shared between instances.
type MemoryStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{revoked: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryStore) Revoke(ctx context.Context, tokenID string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, until := range s.revoked {
		if !until.After(now) {
			delete(s.revoked, id)
		}
	}
	if expires.After(now) {
		s.revoked[tokenID] = expires
	}
	return nil
}

func (s *MemoryStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.revoked[tokenID]
	return ok && until.After(s.now()), nil
}

// Len returns the number of tracked revocations, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.revoked)
}

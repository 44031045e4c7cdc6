package memory

import (
	"context"
	"sync"
	"time"

	"slotguard/backend/internal/store"
)

// CredentialStore keeps linked calendar accounts unsealed in memory.
type CredentialStore struct {
	mu    sync.RWMutex
	now   func() time.Time
	creds map[string]store.ExternalCredentials
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		now:   time.Now,
		creds: make(map[string]store.ExternalCredentials),
	}
}

func (s *CredentialStore) GetExternalCredentials(ctx context.Context, ownerID string) (store.ExternalCredentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.creds[ownerID]
	if !ok {
		return store.ExternalCredentials{}, store.ErrNotFound
	}
	return c, nil
}

func (s *CredentialStore) SaveExternalCredentials(ctx context.Context, ownerID string, creds store.ExternalCredentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.creds[ownerID]
	if ok {
		creds.ConnectedAt = prev.ConnectedAt
		if creds.RefreshToken == "" {
			creds.RefreshToken = prev.RefreshToken
		}
	} else if creds.ConnectedAt.IsZero() {
		creds.ConnectedAt = s.now().UTC()
	}
	if !creds.Expiry.IsZero() {
		creds.Expiry = creds.Expiry.UTC()
	}
	s.creds[ownerID] = creds
	return nil
}

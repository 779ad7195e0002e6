package store

import (
	"context"
	"sync"

	"github.com/kenislabs/arka-gateway/internal/oauth"
)

// MemoryStore is an in-process CredentialStore for tests and ephemeral
// runs. Grants vanish on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[memoryKey]*oauth.Credential
}

type memoryKey struct {
	providerKey string
	principal   string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[memoryKey]*oauth.Credential)}
}

func (s *MemoryStore) Load(_ context.Context, providerKey, principal string) (*oauth.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[memoryKey{providerKey: providerKey, principal: principal}]
	if !ok {
		return nil, oauth.ErrCredentialNotFound
	}
	copied := *cred
	return &copied, nil
}

func (s *MemoryStore) Save(_ context.Context, cred *oauth.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *cred
	s.creds[memoryKey{providerKey: cred.ProviderKey, principal: cred.Principal}] = &copied
	return nil
}

func (s *MemoryStore) Revoke(_ context.Context, providerKey, principal string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, memoryKey{providerKey: providerKey, principal: principal})
	return nil
}

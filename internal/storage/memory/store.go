package memory

import (
	"context"
	"sync"

	"github.com/yndnr/authsession-go/internal/core/domain"
)

// Store holds the two token values in a map.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

const (
	accessKey  = "accessToken"
	refreshKey = "refreshToken"
)

// New creates an empty store.
func New() *Store {
	return &Store{values: make(map[string]string, 2)}
}

// Save stores both tokens.
func (s *Store) Save(_ context.Context, pair domain.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[accessKey] = pair.AccessToken
	s.values[refreshKey] = pair.RefreshToken
	return nil
}

// Get returns the pair when both values are present.
func (s *Store) Get(_ context.Context) (*domain.TokenPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pair := domain.TokenPair{
		AccessToken:  s.values[accessKey],
		RefreshToken: s.values[refreshKey],
	}
	if !pair.Complete() {
		return nil, nil
	}
	return &pair, nil
}

// AccessToken returns the access token or "".
func (s *Store) AccessToken(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[accessKey], nil
}

// Clear removes both values.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, accessKey)
	delete(s.values, refreshKey)
	return nil
}

// SetRaw writes a single key, bypassing the pair contract.
// Used to model a store left half-written.
func (s *Store) SetRaw(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

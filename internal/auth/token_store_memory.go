package auth

import (
	"context"
	"errors"
	"sync"
)

// ErrUserUnknown is returned by the in-memory store for users it has never
// seen. The PostgreSQL-backed store returns repositories.ErrNotFound instead.
var ErrUserUnknown = errors.New("user unknown")

// NewInMemoryTokenStore returns a RefreshTokenStore backed by a map, for
// tests and local development.
func NewInMemoryTokenStore() *InMemoryTokenStore {
	return &InMemoryTokenStore{tokens: make(map[string]string)}
}

// InMemoryTokenStore implements RefreshTokenStore without a database.
type InMemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// SetRefreshToken stores the current refresh token for the user,
// overwriting any previous one.
func (s *InMemoryTokenStore) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	s.tokens[userID] = token
	s.mu.Unlock()
	return nil
}

// ClearRefreshToken removes the stored token for the user.
func (s *InMemoryTokenStore) ClearRefreshToken(_ context.Context, userID string) error {
	s.mu.Lock()
	s.tokens[userID] = ""
	s.mu.Unlock()
	return nil
}

// GetRefreshToken returns the stored token, or the empty string after a
// clear.
func (s *InMemoryTokenStore) GetRefreshToken(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	token, ok := s.tokens[userID]
	s.mu.RUnlock()
	if !ok {
		return "", ErrUserUnknown
	}
	return token, nil
}

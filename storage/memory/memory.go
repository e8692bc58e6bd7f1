// Package memory provides an in-memory implementation of the
// allersafe.TokenStore interface. This implementation is primarily
// intended for testing and development; credentials do not survive a
// process restart.
package memory

import (
	"context"
	"sync"
)

// Store implements allersafe.TokenStore in process memory
type Store struct {
	mu    sync.RWMutex
	token string
}

// New creates a new in-memory token store
func New() *Store {
	return &Store{}
}

// Load implements allersafe.TokenStore
func (s *Store) Load(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// Save implements allersafe.TokenStore
func (s *Store) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Clear implements allersafe.TokenStore
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

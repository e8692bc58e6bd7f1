// Package redis provides a Redis implementation of the
// allersafe.TokenStore interface, for clients that share a credential
// across instances or want it to survive restarts.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store implements allersafe.TokenStore using Redis
type Store struct {
	client redis.UniversalClient
	config Config
}

// Config holds Redis token store configuration
type Config struct {
	// KeyPrefix is prepended to the credential key (default: "allersafe:")
	KeyPrefix string

	// Owner distinguishes credentials of different device or profile
	// identities under the same prefix (required)
	Owner string

	// TokenTTL expires stale credentials (0 = no expiration)
	TokenTTL time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		KeyPrefix: "allersafe:",
		TokenTTL:  30 * 24 * time.Hour,
	}
}

// New creates a new Redis token store.
// The client can be *redis.Client, *redis.ClusterClient, or *redis.Ring.
func New(client redis.UniversalClient, config Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config.Owner == "" {
		return nil, fmt.Errorf("owner is required")
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "allersafe:"
	}
	return &Store{client: client, config: config}, nil
}

// Load implements allersafe.TokenStore
func (s *Store) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	return token, nil
}

// Save implements allersafe.TokenStore
func (s *Store) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key(), token, s.config.TokenTTL).Err(); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Clear implements allersafe.TokenStore
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

func (s *Store) key() string {
	return s.config.KeyPrefix + "token:" + s.config.Owner
}

// Package postgres provides a PostgreSQL implementation of the
// allersafe.TokenStore interface, for server-side integrations that
// hold credentials on behalf of many device identities.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements allersafe.TokenStore using PostgreSQL
type Store struct {
	pool   *pgxpool.Pool
	config Config
}

// Config holds PostgreSQL token store configuration
type Config struct {
	// ConnectionString is the PostgreSQL connection string (used when
	// Pool is nil)
	ConnectionString string

	// Pool is an existing connection pool to reuse (optional)
	Pool *pgxpool.Pool

	// Owner distinguishes credentials of different device or profile
	// identities (required)
	Owner string

	// Table is the credential table name (default: "allersafe_tokens")
	Table string

	// Pool configuration, applied when a pool is created here
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Table:           "allersafe_tokens",
		MaxConns:        4,
		MaxConnLifetime: time.Hour,
	}
}

// New creates a new PostgreSQL token store and verifies connectivity
func New(ctx context.Context, config Config) (*Store, error) {
	if config.Owner == "" {
		return nil, fmt.Errorf("owner is required")
	}
	if config.Table == "" {
		config.Table = "allersafe_tokens"
	}

	pool := config.Pool
	if pool == nil {
		if config.ConnectionString == "" {
			return nil, fmt.Errorf("connection string is required")
		}
		poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("failed to parse connection string: %w", err)
		}
		if config.MaxConns > 0 {
			poolConfig.MaxConns = config.MaxConns
		}
		if config.MaxConnLifetime > 0 {
			poolConfig.MaxConnLifetime = config.MaxConnLifetime
		}
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
	}

	if err := pool.Ping(ctx); err != nil {
		if config.Pool == nil {
			pool.Close()
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool, config: config}, nil
}

// InitSchema creates the credential table if it does not exist
func (s *Store) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			owner      TEXT PRIMARY KEY,
			token      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.config.Table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create credential table: %w", err)
	}
	return nil
}

// Load implements allersafe.TokenStore
func (s *Store) Load(ctx context.Context) (string, error) {
	query := fmt.Sprintf("SELECT token FROM %s WHERE owner = $1", s.config.Table)

	var token string
	err := s.pool.QueryRow(ctx, query, s.config.Owner).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	return token, nil
}

// Save implements allersafe.TokenStore
func (s *Store) Save(ctx context.Context, token string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner, token, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (owner)
		DO UPDATE SET token = EXCLUDED.token, updated_at = now()`, s.config.Table)
	if _, err := s.pool.Exec(ctx, query, s.config.Owner, token); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Clear implements allersafe.TokenStore
func (s *Store) Clear(ctx context.Context) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE owner = $1", s.config.Table)
	if _, err := s.pool.Exec(ctx, query, s.config.Owner); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// Close releases the connection pool when it was created by New
func (s *Store) Close() {
	if s.config.Pool == nil {
		s.pool.Close()
	}
}

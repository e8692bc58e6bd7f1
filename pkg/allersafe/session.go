package allersafe

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Credentials is a login request
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is an account-creation request
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// AuthResult is the backend's response to login and register
type AuthResult struct {
	AccessToken string     `json:"access_token"`
	User        *Principal `json:"user"`
}

// Authenticator is the slice of the backend gateway the session needs.
// *gateway.Client implements it.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)
	Register(ctx context.Context, reg Registration) (*AuthResult, error)
	Me(ctx context.Context) (*Principal, error)
}

// SessionConfig holds session configuration
type SessionConfig struct {
	// Auth performs the authentication calls (required)
	Auth Authenticator

	// Store persists the bearer credential across sessions (optional)
	Store TokenStore

	// Logger is used for structured logging (default: NoopLogger)
	Logger Logger

	// Metrics tracks session operations (default: NoopMetrics)
	Metrics Metrics
}

// Session owns the authenticated principal and the bearer credential.
// The principal snapshot is replaced wholesale on login, refresh, and
// logout; no other component writes to it. Session implements the
// gateway's CredentialSource.
type Session struct {
	auth    Authenticator
	store   TokenStore
	logger  Logger
	metrics Metrics

	mu        sync.RWMutex
	token     string
	principal *Principal
	listeners []func(*Principal)

	refreshGroup singleflight.Group
}

// NewSession creates a session store
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Auth == nil {
		return nil, &ValidationError{Field: "auth", Reason: "authenticator is required"}
	}
	if cfg.Logger == nil {
		cfg.Logger = &NoopLogger{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &NoopMetrics{}
	}
	return &Session{
		auth:    cfg.Auth,
		store:   cfg.Store,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// Init restores a persisted credential, if any, and validates it by
// fetching the current principal. An invalid or expired credential is
// cleared from the store rather than surfaced as an error.
func (s *Session) Init(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	token, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	principal, err := s.auth.Me(ctx)
	if err != nil {
		s.logger.Warn("stored credential rejected, clearing", Field{Key: "error", Value: err.Error()})
		s.clear(ctx)
		return nil
	}
	s.replace(ctx, token, principal)
	return nil
}

// Login authenticates and installs the returned principal and credential
func (s *Session) Login(ctx context.Context, creds Credentials) (*Principal, error) {
	res, err := s.auth.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	s.replace(ctx, res.AccessToken, res.User)
	return s.Current(), nil
}

// Register creates an account and installs the returned principal and
// credential
func (s *Session) Register(ctx context.Context, reg Registration) (*Principal, error) {
	res, err := s.auth.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	s.replace(ctx, res.AccessToken, res.User)
	return s.Current(), nil
}

// Refresh re-fetches the principal from the backend and replaces the
// snapshot wholesale. Concurrent refreshes are collapsed into a single
// backend call.
func (s *Session) Refresh(ctx context.Context) (*Principal, error) {
	v, err, _ := s.refreshGroup.Do("refresh", func() (interface{}, error) {
		principal, err := s.auth.Me(ctx)
		if err != nil {
			s.metrics.RecordSessionRefresh(false)
			return nil, err
		}
		s.mu.RLock()
		token := s.token
		s.mu.RUnlock()
		s.replace(ctx, token, principal)
		s.metrics.RecordSessionRefresh(true)
		return principal, nil
	})
	if err != nil {
		return nil, err
	}
	p := v.(*Principal)
	cp := *p
	return &cp, nil
}

// Logout destroys the principal and credential
func (s *Session) Logout(ctx context.Context) {
	s.clear(ctx)
}

// Current returns a copy of the principal snapshot, or nil when logged
// out
func (s *Session) Current() *Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.principal == nil {
		return nil
	}
	cp := *s.principal
	return &cp
}

// Token returns the current bearer credential, or empty string.
// Implements the gateway's CredentialSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// OnChange registers a listener invoked after every wholesale principal
// replacement, including logout (with nil)
func (s *Session) OnChange(fn func(*Principal)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) replace(ctx context.Context, token string, principal *Principal) {
	s.mu.Lock()
	s.token = token
	s.principal = principal
	listeners := append(([]func(*Principal))(nil), s.listeners...)
	s.mu.Unlock()

	if s.store != nil && token != "" {
		if err := s.store.Save(ctx, token); err != nil {
			s.logger.Warn("failed to persist credential", Field{Key: "error", Value: err.Error()})
		}
	}
	for _, fn := range listeners {
		fn(principal)
	}
}

func (s *Session) clear(ctx context.Context) {
	s.mu.Lock()
	s.token = ""
	s.principal = nil
	listeners := append(([]func(*Principal))(nil), s.listeners...)
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Clear(ctx); err != nil {
			s.logger.Warn("failed to clear persisted credential", Field{Key: "error", Value: err.Error()})
		}
	}
	for _, fn := range listeners {
		fn(nil)
	}
}

// Package session holds the authenticated identity derived from a persisted
// credential.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"taskdesk/internal/service"
	"taskdesk/internal/storage"
)

// Persisted keys.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// Store is the Session Store. The zero value is not usable; call NewStore.
//
// A Store starts "unrestored": Restored reports false until Restore has run,
// so route decisions can wait instead of redirecting early.
type Store struct {
	auth service.AuthService
	kv   storage.Store
	log  zerolog.Logger

	mu       sync.RWMutex
	restored bool
	identity *service.Identity
	token    string
}

// NewStore creates a Store over the given auth service and local storage.
func NewStore(auth service.AuthService, kv storage.Store, logger zerolog.Logger) *Store {
	return &Store{
		auth: auth,
		kv:   kv,
		log:  logger,
	}
}

// Restore loads the persisted token and identity. The session becomes
// authenticated only if both are present and the identity decodes.
// The store is marked restored even when an error is returned.
func (s *Store) Restore() error {
	token, identity, err := s.load()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.restored = true
	s.token = ""
	s.identity = nil
	if err != nil {
		return err
	}
	if identity != nil {
		s.token = token
		s.identity = identity
		s.log.Debug().Str("email", identity.Email).Msg("session restored")
	}
	return nil
}

func (s *Store) load() (string, *service.Identity, error) {
	token, hasToken, err := s.kv.Get(TokenKey)
	if err != nil {
		return "", nil, err
	}
	raw, hasUser, err := s.kv.Get(UserKey)
	if err != nil {
		return "", nil, err
	}
	if !hasToken || !hasUser || token == "" {
		return "", nil, nil
	}

	var identity service.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return "", nil, fmt.Errorf("invalid persisted user: %w", err)
	}
	return token, &identity, nil
}

// Restored reports whether Restore has completed.
func (s *Store) Restored() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restored
}

// IsAuthenticated reports whether an identity is set.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

// Identity returns the current identity.
func (s *Store) Identity() (service.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return service.Identity{}, false
	}
	return *s.identity, true
}

// CredentialToken returns the opaque session token, or "" when unauthenticated.
func (s *Store) CredentialToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Token implements oauth2.TokenSource so transports can attach the session
// credential as a bearer token.
func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil || s.token == "" {
		return nil, service.ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: s.token, TokenType: "Bearer"}, nil
}

// Login verifies the credentials with the auth service and persists the
// resulting session. On failure nothing is persisted.
func (s *Store) Login(ctx context.Context, email, password string) error {
	res, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.log.Debug().Err(err).Str("email", email).Msg("login rejected")
		return err
	}
	if res.Token == "" {
		return &service.APIError{Kind: service.ErrAuth, Message: "login response did not include a token"}
	}

	identity := res.User
	if identity == nil {
		identity = &service.Identity{Email: email}
	}
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	if err := s.kv.Set(TokenKey, res.Token); err != nil {
		return err
	}
	if err := s.kv.Set(UserKey, string(data)); err != nil {
		if delErr := s.kv.Delete(TokenKey); delErr != nil {
			s.log.Warn().Err(delErr).Msg("failed to roll back token")
		}
		return err
	}

	s.mu.Lock()
	s.token = res.Token
	s.identity = identity
	s.restored = true
	s.mu.Unlock()

	s.log.Debug().Str("email", identity.Email).Msg("logged in")
	return nil
}

// Signup creates an account. The caller must still log in afterwards.
func (s *Store) Signup(ctx context.Context, email, password string) error {
	if err := s.auth.Signup(ctx, email, password); err != nil {
		s.log.Debug().Err(err).Str("email", email).Msg("signup rejected")
		return err
	}
	return nil
}

// Logout notifies the auth service (best-effort) and clears the session.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.auth.Logout(ctx); err != nil {
		s.log.Warn().Err(err).Msg("server logout failed; clearing local session anyway")
	}
	return s.Clear()
}

// Clear drops the session locally without contacting the auth service.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.identity = nil
	s.mu.Unlock()

	return errors.Join(s.kv.Delete(TokenKey), s.kv.Delete(UserKey))
}

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrExpired means the stored token is past its exp claim and no refresh
// callback is configured.
var ErrExpired = errors.New("session: token expired")

// RefreshFunc obtains a fresh bearer token from the external session store.
type RefreshFunc func(ctx context.Context) (string, error)

// Store holds the bearer token attached to edge function calls. When the
// token is a JWT its exp claim is probed so a refresh happens before the
// server starts rejecting requests.
type Store struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	refresh   RefreshFunc
	leeway    time.Duration
}

// NewStore creates a token store. refresh may be nil for static tokens.
func NewStore(initial string, refresh RefreshFunc) *Store {
	s := &Store{refresh: refresh, leeway: 30 * time.Second}
	s.Set(initial)
	return s
}

// Set replaces the stored token and re-probes its expiry.
func (s *Store) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiresAt = probeExpiry(token)
}

// Token returns the current bearer token, refreshing first when the stored
// one is within leeway of its expiry. An empty token with no refresh
// callback means anonymous access and is returned as-is.
func (s *Store) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	token := s.token
	expiresAt := s.expiresAt
	s.mu.Unlock()

	if expiresAt.IsZero() || time.Until(expiresAt) > s.leeway {
		return token, nil
	}
	if s.refresh == nil {
		return "", ErrExpired
	}
	fresh, err := s.refresh(ctx)
	if err != nil {
		return "", err
	}
	s.Set(fresh)
	return fresh, nil
}

// probeExpiry extracts the exp claim without verifying the signature.
// Verification is the server's job; the client only wants the deadline.
// Opaque (non-JWT) tokens are treated as non-expiring.
func probeExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

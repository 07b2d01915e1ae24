package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smartnex-ai/backend/internal/models"
)

const sessionKeyPrefix = "session:"

// SessionStore keeps the set of live session ids in Redis. A token is only honoured while
// its id is present.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

// Create records a live session for subject until ttl elapses.
func (s *SessionStore) Create(ctx context.Context, id, subject string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(id), subject, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Exists reports whether the session is still live for subject.
func (s *SessionStore) Exists(ctx context.Context, id, subject string) (bool, error) {
	v, err := s.client.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	return v == subject, nil
}

// Revoke deletes the session. Revoking an unknown session is not an error.
func (s *SessionStore) Revoke(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Sessions issues tokens and checks them against the session store.
type Sessions struct {
	jwt   *JWTService
	store *SessionStore
}

// NewSessions creates the token issuer used by login handlers and the auth middleware.
func NewSessions(jwt *JWTService, store *SessionStore) *Sessions {
	return &Sessions{jwt: jwt, store: store}
}

// Issue signs a token for subject and registers its session.
func (s *Sessions) Issue(ctx context.Context, p models.Principal) (string, error) {
	token, claims, err := s.jwt.Generate(p.ID, p.Role, p.ProductKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	if err := s.store.Create(ctx, claims.ID, claims.Subject, s.jwt.Expiry()); err != nil {
		return "", err
	}
	return token, nil
}

// Authenticate validates the signature and expiry, then requires the session to be live.
func (s *Sessions) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return nil, err
	}
	ok, err := s.store.Exists(ctx, claims.ID, claims.Subject)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionGone
	}
	return claims.Principal()
}

// Revoke ends the caller's session.
func (s *Sessions) Revoke(ctx context.Context, p models.Principal) error {
	return s.store.Revoke(ctx, p.SessionID)
}

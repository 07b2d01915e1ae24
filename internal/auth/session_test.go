package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartnex-ai/backend/internal/models"
)

func newTestSessions(t *testing.T) (*Sessions, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessions(NewJWTService("secret", 2), NewSessionStore(client)), mr
}

func TestSessionsIssueAuthenticateRevoke(t *testing.T) {
	sessions, mr := newTestSessions(t)
	ctx := context.Background()
	admin := models.Principal{ID: uuid.New(), Role: models.RoleAdmin, ProductKey: models.ProductPGManagement}

	token, err := sessions.Issue(ctx, admin)
	require.NoError(t, err)

	p, err := sessions.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, p.ID)
	require.NotEmpty(t, p.SessionID)
	assert.True(t, mr.Exists("session:"+p.SessionID))
	assert.Equal(t, 2*time.Hour, mr.TTL("session:"+p.SessionID))

	require.NoError(t, sessions.Revoke(ctx, *p))
	_, err = sessions.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrSessionGone)
}

func TestSessionExpiresWithTTL(t *testing.T) {
	sessions, mr := newTestSessions(t)
	ctx := context.Background()
	token, err := sessions.Issue(ctx, models.Principal{ID: uuid.New(), Role: models.RoleTenant})
	require.NoError(t, err)

	mr.FastForward(3 * time.Hour)
	_, err = sessions.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrSessionGone)
}

func TestSessionBoundToSubject(t *testing.T) {
	sessions, mr := newTestSessions(t)
	ctx := context.Background()
	token, err := sessions.Issue(ctx, models.Principal{ID: uuid.New(), Role: models.RoleTenant})
	require.NoError(t, err)

	claims, err := sessions.jwt.Validate(token)
	require.NoError(t, err)
	require.NoError(t, mr.Set("session:"+claims.ID, uuid.New().String()))

	_, err = sessions.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrSessionGone)
}

package managers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevokeAndIsRevoked(t *testing.T) {
	store := NewMemoryRevocationStore()
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "token-a", time.Now().Add(time.Hour)))

	assert.True(t, store.IsRevoked(ctx, "token-a"))
	assert.False(t, store.IsRevoked(ctx, "token-b"))
}

func TestRevokeExpiredTokenIsNoop(t *testing.T) {
	store := NewMemoryRevocationStore()
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "stale", time.Now().Add(-time.Minute)))
	assert.False(t, store.IsRevoked(ctx, "stale"))
	assert.Empty(t, store.revoked)
}

func TestIsRevokedPurgesLazily(t *testing.T) {
	store := NewMemoryRevocationStore()
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Revoke(ctx, "short", now.Add(time.Minute)))
	require.NoError(t, store.Revoke(ctx, "long", now.Add(time.Hour)))
	assert.True(t, store.IsRevoked(ctx, "short"))

	// Past the short token's expiry the read purges it and keeps the other
	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.False(t, store.IsRevoked(ctx, "short"))
	assert.True(t, store.IsRevoked(ctx, "long"))
	assert.Len(t, store.revoked, 1)
}

func TestJWTRoundTrip(t *testing.T) {
	jwtMgr := NewJWTManager([]byte("test-secret"), NewMemoryRevocationStore())

	token, err := jwtMgr.GenerateJWT("user-1", "laura@unisabana.edu.co")
	require.NoError(t, err)

	claims, err := jwtMgr.ValidateJWT(token)
	require.NoError(t, err)

	subject, err := claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "user-1", subject)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	jwtMgr := NewJWTManager([]byte("test-secret"), nil)
	other := NewJWTManager([]byte("other-secret"), nil)

	token, err := jwtMgr.GenerateJWT("user-1", "laura@unisabana.edu.co")
	require.NoError(t, err)

	_, err = other.ValidateJWT(token)
	assert.Error(t, err)
}

func TestJWTSecretRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := NewJWTManagerFromEnv(nil)
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "configured")
	_, err = NewJWTManagerFromEnv(nil)
	assert.NoError(t, err)
}

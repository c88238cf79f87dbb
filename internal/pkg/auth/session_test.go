package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
	"golang.org/x/crypto/bcrypt"
)

func newTestSessions() *SessionManager {
	return NewSessionManager(SessionConfig{SecretKey: "test-secret", TTL: time.Hour, Issuer: "gradebook-test"})
}

func TestSessionManager_RoundTrip(t *testing.T) {
	sm := newTestSessions()

	token, expiresAt, err := sm.Issue(42)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := sm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
}

func TestSessionManager_Rejects(t *testing.T) {
	sm := newTestSessions()
	token, _, err := sm.Issue(7)
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := sm.Validate("")
		assert.ErrorIs(t, err, apperrors.ErrSessionInvalid)
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewSessionManager(SessionConfig{SecretKey: "other", TTL: time.Hour, Issuer: "gradebook-test"})
		_, err := other.Validate(token)
		assert.ErrorIs(t, err, apperrors.ErrSessionInvalid)
	})

	t.Run("tampered", func(t *testing.T) {
		_, err := sm.Validate(token + "x")
		assert.ErrorIs(t, err, apperrors.ErrSessionInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		late := newTestSessions()
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Validate(token)
		assert.ErrorIs(t, err, apperrors.ErrSessionExpired)
	})
}

func TestPasswordHashing(t *testing.T) {
	BcryptCost = bcrypt.MinCost

	hash, err := HashPassword("p1")
	require.NoError(t, err)

	assert.NotEqual(t, "p1", hash)
	assert.True(t, CheckPassword(hash, "p1"))
	assert.False(t, CheckPassword(hash, "p2"))
}

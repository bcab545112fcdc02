package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	token := "some-refresh-token"
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	noSession := Account{}
	assert.False(t, noSession.SessionExpired(now), "no session, nothing to expire")

	live := Account{RefreshToken: &token, RefreshExpiresAt: &future}
	assert.False(t, live.SessionExpired(now), "unexpired session survives the sweep")

	expired := Account{RefreshToken: &token, RefreshExpiresAt: &past}
	assert.True(t, expired.SessionExpired(now), "lapsed session is swept")

	// A token without a recorded expiry is left for exact-match checks.
	noExpiry := Account{RefreshToken: &token}
	assert.False(t, noExpiry.SessionExpired(now))
}

func TestSanitizedStripsSecrets(t *testing.T) {
	token := "refresh"
	expiry := time.Now()
	account := Account{
		ID:               "acc_1",
		Username:         "alice",
		PasswordHash:     "$argon2id$...",
		RefreshToken:     &token,
		RefreshExpiresAt: &expiry,
	}

	out := account.Sanitized()
	assert.Empty(t, out.PasswordHash)
	assert.Nil(t, out.RefreshToken)
	assert.Nil(t, out.RefreshExpiresAt)
	assert.Equal(t, "acc_1", out.ID)
	assert.Equal(t, "alice", out.Username)

	assert.NotEmpty(t, account.PasswordHash, "receiver is untouched")
	assert.NotNil(t, account.RefreshToken)
}

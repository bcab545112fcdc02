package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profilehub/api/internal/models"
)

const (
	accessSecret  = "access-secret"
	refreshSecret = "refresh-secret"
)

func testAccount() models.Account {
	return models.Account{
		ID:         "acc_123",
		Username:   "alice",
		Email:      "alice@x.com",
		Role:       models.AccountRoleUser,
		Status:     models.AccountStatusActive,
		IsVerified: false,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(accessSecret, testAccount(), 15*time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, accessSecret)
	require.NoError(t, err)
	assert.Equal(t, "acc_123", claims.AccountID)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "active", claims.Status)
	assert.False(t, claims.IsVerified)
	assert.Equal(t, "acc_123", claims.Subject)
}

func TestRefreshTokenCarriesOnlyID(t *testing.T) {
	token, err := GenerateRefreshToken(refreshSecret, "acc_123", time.Hour)
	require.NoError(t, err)

	claims, err := ParseRefreshToken(token, refreshSecret)
	require.NoError(t, err)
	assert.Equal(t, "acc_123", claims.AccountID)
}

func TestTokenSecretsAreIndependent(t *testing.T) {
	access, err := GenerateAccessToken(accessSecret, testAccount(), 15*time.Minute)
	require.NoError(t, err)
	refresh, err := GenerateRefreshToken(refreshSecret, "acc_123", time.Hour)
	require.NoError(t, err)

	_, err = ParseAccessToken(access, refreshSecret)
	assert.Error(t, err, "access token must not verify under the refresh secret")

	_, err = ParseRefreshToken(refresh, accessSecret)
	assert.Error(t, err, "refresh token must not verify under the access secret")
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateAccessToken(accessSecret, testAccount(), -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, accessSecret)
	assert.Error(t, err)
}

func TestMalformedTokenRejected(t *testing.T) {
	_, err := ParseAccessToken("definitely.not.a-jwt", accessSecret)
	assert.Error(t, err)

	_, err = ParseRefreshToken("", refreshSecret)
	assert.Error(t, err)
}

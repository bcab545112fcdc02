package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordIsSalted(t *testing.T) {
	first, err := HashPassword("Abcdef1!")
	require.NoError(t, err)
	second, err := HashPassword("Abcdef1!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "fresh salt per call")
	assert.NotContains(t, first, "Abcdef1!")
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Abcdef1!")
	require.NoError(t, err)

	ok, err := VerifyPassword("Abcdef1!", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("Wrongpass1!", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordMalformedDigest(t *testing.T) {
	for _, digest := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$t=3,m=65536,p=2$only-four-parts",
		"$bcrypt$v=19$t=3,m=65536,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$t=3,m=65536,p=2$!!!$aGFzaA",
	} {
		ok, err := VerifyPassword("Abcdef1!", digest)
		assert.False(t, ok, "digest %q", digest)
		assert.Error(t, err, "digest %q", digest)
	}
}

func TestHashPasswordCustomParams(t *testing.T) {
	params := Argon2Params{Time: 1, Memory: 16 * 1024, Threads: 1, KeyLen: 16, SaltLen: 8}

	hash, err := HashPasswordWithParams("Abcdef1!", params)
	require.NoError(t, err)

	ok, err := VerifyPassword("Abcdef1!", hash)
	require.NoError(t, err)
	assert.True(t, ok, "verify derives params from the digest itself")
}

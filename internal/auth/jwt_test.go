package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	signed, err := GenerateToken("u1", "Ana", "test-secret", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := ParseToken(signed, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, "timeroster", claims.Issuer)
}

func TestParseTokenWrongSecret(t *testing.T) {
	signed, err := GenerateToken("u1", "", "test-secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(signed, "other-secret")
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	signed, err := GenerateToken("u1", "", "test-secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(signed, "test-secret")
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken("not-a-token", "test-secret")
	assert.Error(t, err)
}

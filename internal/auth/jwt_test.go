package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentvault_backend/internal/config"
)

func init() {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.TTL = 60
	config.AppConfig = cfg
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("u-1", "agent")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "agent", claims.Role)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", hash)

	assert.True(t, CheckPasswordHash("correct-horse", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.NoError(t, ValidatePassword("longenough"))
}

package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlug(t *testing.T) {
	assert.Equal(t, "puzzle-master", GenerateSlug("Puzzle Master"))
	assert.Equal(t, "algorithm-specialist", GenerateSlug("  Algorithm   Specialist! "))
	assert.Equal(t, "3day-streak", GenerateSlug("3-Day Streak"))
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", "user-1", "ADMIN", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.True(t, IsUUID(claims.ID))

	_, err = ValidateToken("other-secret", token)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateToken("secret", "user-1", "USER", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken("secret", token)
	assert.Error(t, err)
}

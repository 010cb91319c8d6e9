package auth

import (
	"testing"

	"printlab-be/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateJWT("maria", "Maria", user.RoleSeller)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseJWT(token)
	require.NoError(t, err)

	actor := claims.Actor()
	assert.Equal(t, "maria", actor.Username)
	assert.Equal(t, "Maria", actor.Name)
	assert.Equal(t, user.RoleSeller, actor.Role)
}

func TestParseJWT_Rejects(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	t.Run("Garbage", func(t *testing.T) {
		_, err := ParseJWT("not-a-token")
		assert.Error(t, err)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, err := GenerateJWT("maria", "Maria", user.RoleSeller)
		require.NoError(t, err)

		t.Setenv("JWT_SECRET", "another-secret")
		_, err = ParseJWT(token)
		assert.Error(t, err)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		token, err := GenerateJWT("maria", "Maria", user.Role("manager"))
		require.NoError(t, err)

		_, err = ParseJWT(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestGenerateJWT_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := GenerateJWT("maria", "Maria", user.RoleSeller)
	assert.Error(t, err)
}

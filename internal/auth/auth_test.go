package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-123",
		"email": "jane@example.com",
		"user_metadata": map[string]any{
			"name": "Jane Doe",
		},
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestTokenFromHeader(t *testing.T) {
	token, err := TokenFromHeader("Bearer abc.def.ghi")
	assert.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = TokenFromHeader("")
	assert.Error(t, err)

	_, err = TokenFromHeader("Basic abc")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	verifier := NewJWTVerifier("super-secret")

	user, err := verifier.Verify(context.Background(), signToken(t, "super-secret"))
	require.NoError(t, err)
	assert.Equal(t, "user-123", user.ID)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, "Jane Doe", user.Name)
}

func TestVerifyWrongSecret(t *testing.T) {
	verifier := NewJWTVerifier("super-secret")

	_, err := verifier.Verify(context.Background(), signToken(t, "other-secret"))
	assert.Error(t, err)
}

func TestVerifyGarbageToken(t *testing.T) {
	verifier := NewJWTVerifier("super-secret")

	_, err := verifier.Verify(context.Background(), "not-a-jwt")
	assert.Error(t, err)
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// User is the identity resolved from a bearer token.
type User struct {
	ID    string
	Email string
	Name  string
}

// Verifier resolves a bearer token into a user identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*User, error)
}

// TokenFromHeader extracts the bearer token from an Authorization header value.
func TokenFromHeader(authorization string) (string, error) {
	if authorization == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("auth header is not 'Bearer {token}'")
	}
	return parts[1], nil
}

// JWTVerifier verifies HS256 tokens issued by the identity provider.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for the given shared secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

type userClaims struct {
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	jwt.RegisteredClaims
}

// Verify parses and validates the token and returns the user it identifies.
func (v *JWTVerifier) Verify(_ context.Context, token string) (*User, error) {
	var claims userClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}

	name, _ := claims.UserMetadata["name"].(string)
	return &User{ID: claims.Subject, Email: claims.Email, Name: name}, nil
}

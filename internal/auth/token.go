// Package auth issues and validates the HS256 identity tokens that bind API
// callers to a payer, agent or administrator identity. Mutation of owned
// records (payments, policies) always uses the identity extracted here, never
// a request parameter.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
)

// Caller roles.
const (
	RolePayer = "payer"
	RoleAgent = "agent"
	RoleAdmin = "admin"
)

// DefaultTokenExpiry bounds the lifetime of issued tokens.
const DefaultTokenExpiry = 24 * time.Hour

// Claims is the authenticated caller identity carried by a token.
type Claims struct {
	Identity string
	Role     string
}

// GenerateToken signs an identity token for the given role.
func GenerateToken(secret, identity, role string, expiry time.Duration) (string, error) {
	if role != RolePayer && role != RoleAgent && role != RoleAdmin {
		return "", fmt.Errorf("unknown role %q: %w", role, domain.ErrInvalidInput)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  identity,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(expiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ParseToken validates a token and extracts the caller claims.
func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims: %w", domain.ErrUnauthorized)
	}

	identity, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if identity == "" || role == "" {
		return nil, fmt.Errorf("token missing identity or role: %w", domain.ErrUnauthorized)
	}

	return &Claims{Identity: identity, Role: role}, nil
}

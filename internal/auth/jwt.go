package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
)

// Claims follows the Supabase access token layout; the marketplace role lives in user_metadata.
type Claims struct {
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

type UserMetadata struct {
	Role        model.Role `json:"role"`
	DisplayName string     `json:"display_name"`
}

// Gate resolves bearer tokens signed with a shared HS256 secret.
type Gate struct {
	Secret []byte
}

func NewGate(secret string) *Gate {
	return &Gate{Secret: []byte(secret)}
}

// Resolve returns the caller's identity or an Unauthorized error.
func (g *Gate) Resolve(r *http.Request) (Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Identity{}, appErrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return Identity{}, appErrors.NewUnauthorized("invalid authorization header format")
	}

	return g.ParseToken(strings.TrimSpace(parts[1]))
}

func (g *Gate) ParseToken(tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return g.Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, appErrors.NewUnauthorized("token expired")
		}
		return Identity{}, appErrors.NewUnauthorized("invalid token")
	}
	if !token.Valid {
		return Identity{}, appErrors.NewUnauthorized("invalid token")
	}

	if claims.Subject == "" {
		return Identity{}, appErrors.NewUnauthorized("token has no subject")
	}
	if !claims.UserMetadata.Role.Valid() {
		return Identity{}, appErrors.NewUnauthorized("token has no marketplace role")
	}

	return Identity{
		UserID:      claims.Subject,
		Role:        claims.UserMetadata.Role,
		Email:       claims.Email,
		DisplayName: claims.UserMetadata.DisplayName,
	}, nil
}

// IssueToken signs a token for id. Used by the seeder and tests.
func (g *Gate) IssueToken(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: id.Email,
		UserMetadata: UserMetadata{
			Role:        id.Role,
			DisplayName: id.DisplayName,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

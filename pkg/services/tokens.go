package services

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"time"

	"fabula/pkg/models"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer mints the two credentials a session hands out: a signed
// short-lived access token and an opaque single-use refresh token.
type TokenIssuer struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

func NewTokenIssuer() *TokenIssuer {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-key-change-in-production"
	}
	return &TokenIssuer{
		secret:    []byte(secret),
		accessTTL: 1 * time.Hour,
		now:       time.Now,
	}
}

func (t *TokenIssuer) MintAccessToken(user models.User, sessionID int) string {
	now := t.now()
	claims := jwt.MapClaims{
		"user_id":    user.ID,
		"role":       user.Role,
		"session_id": sessionID,
		"exp":        now.Add(t.accessTTL).Unix(),
		"iat":        now.Unix(),
		"token_type": "access",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, _ := token.SignedString(t.secret)
	return s
}

// MintRefreshToken returns 32 random bytes hex-encoded. Uniqueness is
// enforced by the refresh_token constraint, never pre-checked here.
func MintRefreshToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

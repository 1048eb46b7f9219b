package services

import (
	"testing"
	"time"

	"fabula/pkg/models"

	"github.com/golang-jwt/jwt/v5"
)

func TestMintAccessTokenClaims(t *testing.T) {
	issuer := NewTokenIssuer()
	issued := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issued }

	user := models.User{ID: 42, Role: "editor"}
	tokenStr := issuer.MintAccessToken(user, 7)

	token, err := jwt.ParseWithClaims(tokenStr, &jwt.MapClaims{}, func(tok *jwt.Token) (interface{}, error) {
		return issuer.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return issued }))
	if err != nil || !token.Valid {
		t.Fatalf("minted token does not parse: %v", err)
	}

	claims := *token.Claims.(*jwt.MapClaims)
	if int(claims["user_id"].(float64)) != 42 {
		t.Errorf("user_id = %v, want 42", claims["user_id"])
	}
	if claims["role"].(string) != "editor" {
		t.Errorf("role = %v, want editor", claims["role"])
	}
	if int(claims["session_id"].(float64)) != 7 {
		t.Errorf("session_id = %v, want 7", claims["session_id"])
	}
	if claims["token_type"].(string) != "access" {
		t.Errorf("token_type = %v, want access", claims["token_type"])
	}
	if int64(claims["exp"].(float64)) != issued.Add(time.Hour).Unix() {
		t.Errorf("exp = %v, want issued+1h", claims["exp"])
	}
}

func TestMintRefreshToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := MintRefreshToken()
		if len(token) != 64 {
			t.Fatalf("refresh token length = %d, want 64 hex chars", len(token))
		}
		if seen[token] {
			t.Fatal("refresh token repeated")
		}
		seen[token] = true
	}
}

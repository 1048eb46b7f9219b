package models

import "time"

type User struct {
	ID                int       `json:"id"`
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	Password          string    `json:"-"`
	NotificationToken string    `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
}

type LoginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Fingerprint string `json:"fingerprint"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
	Fingerprint  string `json:"fingerprint"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenPair is the response body for login and refresh. UserID is only
// populated on refresh.
type TokenPair struct {
	UserID       int    `json:"userId,omitempty"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

package models

import "time"

// Session binds a user to one refresh token, fingerprint and expiry.
// ExpiredAt is epoch seconds; a session is valid while ExpiredAt > now.
type Session struct {
	ID           int       `json:"id"`
	UserID       int       `json:"userId"`
	RefreshToken string    `json:"-"`
	UserAgent    string    `json:"userAgent"`
	IP           string    `json:"ip"`
	Fingerprint  string    `json:"-"`
	ExpiredAt    int64     `json:"expiredAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (s Session) Expired(now time.Time) bool {
	return s.ExpiredAt <= now.Unix()
}

// SessionView is the session-list entry returned by GET /auth/sessions.
type SessionView struct {
	IP        string    `json:"ip"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
	UserAgent string    `json:"userAgent"`
	IsCurrent bool      `json:"isCurrent"`
}

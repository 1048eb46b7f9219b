package services

import "time"

// Cache is the advisory read-acceleration layer backing both the
// per-user session mirror and the story listings. Implementations are
// best effort: Get reports false on miss or failure and callers fall
// back to the repository, which stays the source of truth.
type Cache interface {
	Get(key string, dest interface{}) bool
	Set(key string, value interface{}, ttl time.Duration)
	Del(keys ...string)
	DelPattern(pattern string)
}

// Notifier pushes revocation events to a user's live connections.
type Notifier interface {
	SessionsRevoked(userID int, reason string)
}

// Locator resolves an IP to a coarse human-readable location.
type Locator interface {
	Lookup(ip string) string
}

package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"fabula/pkg/metrics"
	"fabula/pkg/models"
	"fabula/pkg/repository"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrAccessDenied covers every refresh rejection: unknown token,
	// fingerprint mismatch, expired session. One error on purpose, so
	// the response never tells an attacker which check tripped.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidCredentials is a bad email/password pair on login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const (
	// MaxSessionsCount caps concurrently valid sessions per user. At
	// the cap the policy wipes everything and starts over; it does not
	// trim oldest-first.
	MaxSessionsCount = 5

	refreshTokenTTL = 30 * 24 * time.Hour
	sessionCacheTTL = 15 * time.Minute
)

type AuthService interface {
	Login(req models.LoginRequest, userAgent, ip string) (models.TokenPair, error)
	Refresh(req models.RefreshRequest, userAgent, ip string) (models.TokenPair, error)
	Logout(refreshToken string) error
	LogoutAll(userID int) error
	Sessions(userID, currentSessionID int) ([]models.SessionView, error)
}

type authService struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	redis    Cache
	hub      Notifier
	geo      Locator
	issuer   *TokenIssuer

	now func() time.Time
}

func NewAuthService(
	sessions repository.SessionRepository,
	users repository.UserRepository,
	redis Cache,
	hub Notifier,
	geo Locator,
	issuer *TokenIssuer,
) AuthService {
	return &authService{
		sessions: sessions,
		users:    users,
		redis:    redis,
		hub:      hub,
		geo:      geo,
		issuer:   issuer,
		now:      time.Now,
	}
}

func sessionCacheKey(userID int) string {
	return fmt.Sprintf("sessions:user:%d", userID)
}

func (s *authService) Login(req models.LoginRequest, userAgent, ip string) (models.TokenPair, error) {
	if req.Email == "" || req.Password == "" {
		return models.TokenPair{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("denied").Inc()
			return models.TokenPair{}, ErrInvalidCredentials
		}
		return models.TokenPair{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		metrics.LoginsTotal.WithLabelValues("denied").Inc()
		return models.TokenPair{}, ErrInvalidCredentials
	}

	session, err := s.createSession(user.ID, req.Fingerprint, userAgent, ip)
	if err != nil {
		return models.TokenPair{}, err
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	return models.TokenPair{
		AccessToken:  s.issuer.MintAccessToken(user, session.ID),
		RefreshToken: session.RefreshToken,
	}, nil
}

func (s *authService) Refresh(req models.RefreshRequest, userAgent, ip string) (models.TokenPair, error) {
	if req.RefreshToken == "" {
		return models.TokenPair{}, ErrAccessDenied
	}

	session, err := s.sessions.GetByRefreshToken(req.RefreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			metrics.RefreshesTotal.WithLabelValues("denied").Inc()
			return models.TokenPair{}, ErrAccessDenied
		}
		return models.TokenPair{}, err
	}

	// Burn the token before verifying anything: a stolen token that was
	// already presented once can never succeed again. The flip side is
	// that a failure below leaves the user logged out; that trade is
	// intentional and nothing restores the old row.
	// TODO: span delete+verify+create with one DB transaction so a
	// crash mid-rotation rolls back instead of stranding the user.
	if err := s.sessions.DeleteByRefreshToken(req.RefreshToken); err != nil {
		return models.TokenPair{}, err
	}
	s.redis.Del(sessionCacheKey(session.UserID))

	if err := s.verify(session, req.Fingerprint); err != nil {
		metrics.RefreshesTotal.WithLabelValues("denied").Inc()
		return models.TokenPair{}, err
	}

	user, err := s.users.GetByID(session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			metrics.RefreshesTotal.WithLabelValues("denied").Inc()
			return models.TokenPair{}, ErrAccessDenied
		}
		return models.TokenPair{}, err
	}

	next, err := s.createSession(user.ID, req.Fingerprint, userAgent, ip)
	if err != nil {
		return models.TokenPair{}, err
	}

	metrics.RefreshesTotal.WithLabelValues("ok").Inc()
	return models.TokenPair{
		UserID:       user.ID,
		AccessToken:  s.issuer.MintAccessToken(user, next.ID),
		RefreshToken: next.RefreshToken,
	}, nil
}

// verify gates a refresh on the held (already deleted) row. Every
// rejection is ErrAccessDenied; callers must not learn which check
// failed.
func (s *authService) verify(session models.Session, fingerprint string) error {
	if session.Fingerprint != fingerprint {
		return ErrAccessDenied
	}
	if session.Expired(s.now()) {
		return ErrAccessDenied
	}
	return nil
}

// Logout is idempotent: an unknown or already-consumed token succeeds.
func (s *authService) Logout(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	session, err := s.sessions.GetByRefreshToken(refreshToken)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.sessions.DeleteByRefreshToken(refreshToken); err != nil {
		return err
	}
	s.redis.Del(sessionCacheKey(session.UserID))

	if err := s.users.ClearNotificationToken(session.UserID); err != nil {
		log.Printf("[AUTH] clear notification token failed user_id=%d: %v", session.UserID, err)
	}

	metrics.LogoutsTotal.Inc()
	return nil
}

// LogoutAll wipes every session for the user, the caller's included.
func (s *authService) LogoutAll(userID int) error {
	if err := s.sessions.DeleteAllByUserID(userID); err != nil {
		return err
	}
	s.redis.Del(sessionCacheKey(userID))
	s.hub.SessionsRevoked(userID, "logout_all")
	metrics.LogoutsTotal.Inc()
	return nil
}

func (s *authService) Sessions(userID, currentSessionID int) ([]models.SessionView, error) {
	var list []models.Session
	if !s.redis.Get(sessionCacheKey(userID), &list) {
		var err error
		list, err = s.sessions.ListActive(userID, s.now())
		if err != nil {
			return nil, err
		}
		s.redis.Set(sessionCacheKey(userID), list, sessionCacheTTL)
	}

	views := make([]models.SessionView, 0, len(list))
	for _, sess := range list {
		views = append(views, models.SessionView{
			IP:        sess.IP,
			Location:  s.geo.Lookup(sess.IP),
			CreatedAt: sess.CreatedAt,
			UserAgent: sess.UserAgent,
			IsCurrent: sess.ID == currentSessionID,
		})
	}
	return views, nil
}

// createSession admits the user under the session cap, inserts the row
// and refreshes the per-user cache mirror.
func (s *authService) createSession(userID int, fingerprint, userAgent, ip string) (models.Session, error) {
	if err := s.admit(userID); err != nil {
		return models.Session{}, err
	}

	session := models.Session{
		UserID:       userID,
		RefreshToken: MintRefreshToken(),
		UserAgent:    userAgent,
		IP:           ip,
		Fingerprint:  fingerprint,
		ExpiredAt:    s.now().Add(refreshTokenTTL).Unix(),
	}

	created, err := s.sessions.Create(session)
	if err != nil {
		return models.Session{}, err
	}

	s.mirror(userID)
	return created, nil
}

// admit enforces MaxSessionsCount. Note the count-then-insert window:
// two concurrent logins can both pass the check and overshoot the cap
// until the next admit wipes it back down. Accepted, not serialized.
func (s *authService) admit(userID int) error {
	count, err := s.sessions.CountActive(userID, s.now())
	if err != nil {
		return err
	}
	if count < MaxSessionsCount {
		return nil
	}

	if err := s.sessions.DeleteAllByUserID(userID); err != nil {
		return err
	}
	s.redis.Del(sessionCacheKey(userID))
	s.hub.SessionsRevoked(userID, "session_limit")
	metrics.EvictionsTotal.Inc()
	log.Printf("[AUTH] session cap hit, wiped sessions user_id=%d", userID)
	return nil
}

// mirror write-throughs the denormalized session list after a store
// write. The mirror is advisory; on error it is dropped, not stale.
func (s *authService) mirror(userID int) {
	list, err := s.sessions.ListActive(userID, s.now())
	if err != nil {
		s.redis.Del(sessionCacheKey(userID))
		return
	}
	s.redis.Set(sessionCacheKey(userID), list, sessionCacheTTL)
}

package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fabula/pkg/models"

	"github.com/lib/pq"
)

var (
	// ErrSessionNotFound is returned when no row matches the lookup.
	// Callers decide whether "absent" means expired, revoked or stolen;
	// this layer does not.
	ErrSessionNotFound = errors.New("session not found")

	// ErrDuplicateRefreshToken surfaces the unique constraint on
	// refresh_token. With 256 bits of token entropy a collision is
	// effectively a bug, but it must fail loudly, not silently.
	ErrDuplicateRefreshToken = errors.New("duplicate refresh token")
)

// SessionRepository is the durable source of truth for sessions.
// Deletes are idempotent: removing zero rows is not an error.
type SessionRepository interface {
	Create(s models.Session) (models.Session, error)
	GetByRefreshToken(token string) (models.Session, error)
	DeleteByRefreshToken(token string) error
	DeleteAllByUserID(userID int) error
	CountActive(userID int, now time.Time) (int, error)
	ListActive(userID int, now time.Time) ([]models.Session, error)
}

type sessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) SessionRepository {
	return &sessionRepository{db: db}
}

const uniqueViolation = "23505"

func (r *sessionRepository) Create(s models.Session) (models.Session, error) {
	err := r.db.QueryRow(
		`INSERT INTO sessions (user_id, refresh_token, ua, ip, fingerprint, expired_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		s.UserID, s.RefreshToken, s.UserAgent, s.IP, s.Fingerprint, s.ExpiredAt,
	).Scan(&s.ID, &s.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.Session{}, ErrDuplicateRefreshToken
		}
		return models.Session{}, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

func (r *sessionRepository) GetByRefreshToken(token string) (models.Session, error) {
	var s models.Session
	err := r.db.QueryRow(
		`SELECT id, user_id, refresh_token, ua, ip, fingerprint, expired_at, created_at
		 FROM sessions WHERE refresh_token = $1`, token,
	).Scan(&s.ID, &s.UserID, &s.RefreshToken, &s.UserAgent, &s.IP, &s.Fingerprint, &s.ExpiredAt, &s.CreatedAt)

	if err == sql.ErrNoRows {
		return models.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

func (r *sessionRepository) DeleteByRefreshToken(token string) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE refresh_token = $1`, token)
	return err
}

func (r *sessionRepository) DeleteAllByUserID(userID int) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

func (r *sessionRepository) CountActive(userID int, now time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM sessions WHERE user_id = $1 AND expired_at > $2`,
		userID, now.Unix(),
	).Scan(&n)
	return n, err
}

func (r *sessionRepository) ListActive(userID int, now time.Time) ([]models.Session, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, ua, ip, expired_at, created_at FROM sessions
		 WHERE user_id = $1 AND expired_at > $2 ORDER BY created_at DESC`,
		userID, now.Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.UserAgent, &s.IP, &s.ExpiredAt, &s.CreatedAt); err == nil {
			sessions = append(sessions, s)
		}
	}
	return sessions, rows.Err()
}

// DeleteExpired is used by the background sweeper in cmd/server.
func DeleteExpired(db *sql.DB, now time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM sessions WHERE expired_at <= $1`, now.Unix())
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

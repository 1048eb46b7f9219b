package repository

import (
	"database/sql"
	"errors"
	"strings"

	"fabula/pkg/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	GetByEmail(email string) (models.User, error)
	GetByID(id int) (models.User, error)
	ClearNotificationToken(userID int) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByEmail(email string) (models.User, error) {
	var user models.User
	err := r.db.QueryRow(
		`SELECT id, email, role, password, COALESCE(notification_token, ''), created_at
		 FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&user.ID, &user.Email, &user.Role, &user.Password, &user.NotificationToken, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

func (r *userRepository) GetByID(id int) (models.User, error) {
	var user models.User
	err := r.db.QueryRow(
		`SELECT id, email, role, COALESCE(notification_token, ''), created_at
		 FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Email, &user.Role, &user.NotificationToken, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

func (r *userRepository) ClearNotificationToken(userID int) error {
	_, err := r.db.Exec(
		`UPDATE users SET notification_token = NULL, updated_at = NOW() WHERE id = $1`, userID,
	)
	return err
}

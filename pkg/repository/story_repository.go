package repository

import (
	"database/sql"
	"errors"

	"fabula/pkg/models"
)

var ErrStoryNotFound = errors.New("story not found")

type StoryRepository interface {
	List(limit, offset int) ([]models.Story, error)
	GetByID(id int) (models.Story, error)
	Create(title, body string, authorID int) (models.Story, error)
}

type storyRepository struct {
	db *sql.DB
}

func NewStoryRepository(db *sql.DB) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) List(limit, offset int) ([]models.Story, error) {
	rows, err := r.db.Query(
		`SELECT id, title, body, author_id, created_at, updated_at FROM stories
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stories []models.Story
	for rows.Next() {
		var s models.Story
		if err := rows.Scan(&s.ID, &s.Title, &s.Body, &s.AuthorID, &s.CreatedAt, &s.UpdatedAt); err == nil {
			stories = append(stories, s)
		}
	}
	return stories, rows.Err()
}

func (r *storyRepository) GetByID(id int) (models.Story, error) {
	var s models.Story
	err := r.db.QueryRow(
		`SELECT id, title, body, author_id, created_at, updated_at FROM stories WHERE id = $1`, id,
	).Scan(&s.ID, &s.Title, &s.Body, &s.AuthorID, &s.CreatedAt, &s.UpdatedAt)

	if err == sql.ErrNoRows {
		return models.Story{}, ErrStoryNotFound
	}
	return s, err
}

func (r *storyRepository) Create(title, body string, authorID int) (models.Story, error) {
	var s models.Story
	err := r.db.QueryRow(
		`INSERT INTO stories (title, body, author_id) VALUES ($1, $2, $3)
		 RETURNING id, title, body, author_id, created_at, updated_at`,
		title, body, authorID,
	).Scan(&s.ID, &s.Title, &s.Body, &s.AuthorID, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

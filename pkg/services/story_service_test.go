package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"fabula/pkg/models"
	"fabula/pkg/repository"
)

type memStoryRepo struct {
	mu        sync.Mutex
	nextID    int
	stories   []models.Story
	listCalls int
}

func (r *memStoryRepo) List(limit, offset int) ([]models.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	if offset >= len(r.stories) {
		return nil, nil
	}
	end := offset + limit
	if end > len(r.stories) {
		end = len(r.stories)
	}
	return append([]models.Story(nil), r.stories[offset:end]...), nil
}

func (r *memStoryRepo) GetByID(id int) (models.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.stories {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Story{}, repository.ErrStoryNotFound
}

func (r *memStoryRepo) Create(title, body string, authorID int) (models.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s := models.Story{ID: r.nextID, Title: title, Body: body, AuthorID: authorID, CreatedAt: time.Now()}
	r.stories = append(r.stories, s)
	return s, nil
}

func TestStoryListCachedAndInvalidated(t *testing.T) {
	repo := &memStoryRepo{}
	cache := newMemCache()
	svc := NewStoryService(repo, cache)

	if _, err := svc.Submit(models.SubmitStoryRequest{Title: "The Lighthouse", Body: "..."}, 1); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.List(20, 0); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := svc.List(20, 0); err != nil {
		t.Fatalf("cached list: %v", err)
	}
	if repo.listCalls != 1 {
		t.Fatalf("second list must hit the cache, repo calls = %d", repo.listCalls)
	}

	// A new submission invalidates every cached page.
	if _, err := svc.Submit(models.SubmitStoryRequest{Title: "The Harbour", Body: "..."}, 1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	stories, err := svc.List(20, 0)
	if err != nil {
		t.Fatalf("list after submit: %v", err)
	}
	if repo.listCalls != 2 {
		t.Fatalf("list after submit must bypass stale cache, repo calls = %d", repo.listCalls)
	}
	if len(stories) != 2 {
		t.Fatalf("want 2 stories, got %d", len(stories))
	}
}

func TestSubmitValidation(t *testing.T) {
	svc := NewStoryService(&memStoryRepo{}, newMemCache())

	cases := []models.SubmitStoryRequest{
		{Title: "ab", Body: "fine"},
		{Title: "A Valid Title", Body: "   "},
	}
	for _, req := range cases {
		if _, err := svc.Submit(req, 1); !errors.Is(err, ErrInvalidStory) {
			t.Errorf("Submit(%+v) = %v, want ErrInvalidStory", req, err)
		}
	}
}

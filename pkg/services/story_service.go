package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fabula/pkg/models"
	"fabula/pkg/repository"
)

var ErrInvalidStory = errors.New("invalid story")

type StoryService interface {
	List(limit, offset int) ([]models.Story, error)
	GetByID(id int) (models.Story, error)
	Submit(req models.SubmitStoryRequest, authorID int) (models.Story, error)
}

type storyService struct {
	repo  repository.StoryRepository
	redis Cache
}

func NewStoryService(repo repository.StoryRepository, redis Cache) StoryService {
	return &storyService{repo: repo, redis: redis}
}

func (s *storyService) List(limit, offset int) ([]models.Story, error) {
	cacheKey := fmt.Sprintf("stories:list:%d:%d", limit, offset)
	var cached []models.Story
	if s.redis.Get(cacheKey, &cached) {
		return cached, nil
	}

	stories, err := s.repo.List(limit, offset)
	if err != nil {
		return nil, err
	}

	s.redis.Set(cacheKey, stories, 30*time.Second)
	return stories, nil
}

func (s *storyService) GetByID(id int) (models.Story, error) {
	cacheKey := fmt.Sprintf("stories:item:%d", id)
	var cached models.Story
	if s.redis.Get(cacheKey, &cached) {
		return cached, nil
	}

	story, err := s.repo.GetByID(id)
	if err != nil {
		return story, err
	}

	s.redis.Set(cacheKey, story, time.Minute)
	return story, nil
}

func (s *storyService) Submit(req models.SubmitStoryRequest, authorID int) (models.Story, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Body = strings.TrimSpace(req.Body)

	if len(req.Title) < 3 || len(req.Title) > 200 {
		return models.Story{}, fmt.Errorf("%w: title must be 3-200 characters", ErrInvalidStory)
	}
	if req.Body == "" {
		return models.Story{}, fmt.Errorf("%w: body is required", ErrInvalidStory)
	}

	story, err := s.repo.Create(req.Title, req.Body, authorID)
	if err != nil {
		return models.Story{}, err
	}

	s.redis.DelPattern("stories:list:*")
	return story, nil
}

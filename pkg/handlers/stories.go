package handlers

import (
	"errors"
	"log"

	"fabula/pkg/models"
	"fabula/pkg/repository"
	"fabula/pkg/services"

	"github.com/gofiber/fiber/v2"
)

type StoriesHandler struct {
	svc services.StoryService
}

func NewStories(svc services.StoryService) *StoriesHandler {
	return &StoriesHandler{svc: svc}
}

// GET /stories?limit=20&offset=0
func (h *StoriesHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)

	stories, err := h.svc.List(limit, offset)
	if err != nil {
		log.Printf("[STORIES] list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "internal error"})
	}
	if stories == nil {
		stories = []models.Story{}
	}
	return c.JSON(stories)
}

// GET /stories/:id
func (h *StoriesHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid id"})
	}

	story, err := h.svc.GetByID(id)
	if errors.Is(err, repository.ErrStoryNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "story not found"})
	}
	if err != nil {
		log.Printf("[STORIES] get failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(story)
}

// POST /stories (auth)
func (h *StoriesHandler) Submit(c *fiber.Ctx) error {
	var req models.SubmitStoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	userID := c.Locals("user_id").(int)

	story, err := h.svc.Submit(req, userID)
	if errors.Is(err, services.ErrInvalidStory) {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		log.Printf("[STORIES] submit failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(201).JSON(story)
}

// services/quest_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"quest-game-system/models"
	"quest-game-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// QuestService covers the authoring side: quest CRUD with ordered checkpoints and
// the draft → scheduled → published → archived lifecycle the engine serves from.
type QuestService struct {
	DB *gorm.DB
}

func NewQuestService(db *gorm.DB) *QuestService {
	return &QuestService{DB: db}
}

type questPointReq struct {
	OrderIndex    int             `json:"order_index"`
	Latitude      float64         `json:"latitude"`
	Longitude     float64         `json:"longitude"`
	TaskType      models.TaskType `json:"task_type"`
	Task          string          `json:"task"`
	CorrectAnswer string          `json:"correct_answer"`
	RewardPoints  int64           `json:"reward_points"`
}

// CreateQuest creates a draft quest with its checkpoint sequence (Admin only).
func (s *QuestService) CreateQuest(c *fiber.Ctx) error {
	var req struct {
		Title       string                 `json:"title"`
		Description string                 `json:"description"`
		City        string                 `json:"city"`
		Difficulty  models.QuestDifficulty `json:"difficulty"`
		Points      []questPointReq        `json:"points"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title is required"})
	}
	if !models.ValidDifficulty(req.Difficulty) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("Unknown difficulty %q", req.Difficulty)})
	}
	if len(req.Points) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "At least one checkpoint is required"})
	}
	for i, p := range req.Points {
		if p.OrderIndex != i {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Checkpoint order_index values must be contiguous from 0"})
		}
		if !models.ValidTaskType(p.TaskType) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("Unknown task type %q", p.TaskType)})
		}
		switch p.TaskType {
		case models.TaskTypeQuiz, models.TaskTypeText, models.TaskTypeTextInput, models.TaskTypeMultipleChoice:
			if p.CorrectAnswer == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("Checkpoint %d needs a correct answer", i)})
			}
		}
	}

	quest := models.Quest{
		ID:          uuid.NewString(),
		Slug:        s.uniqueSlug(req.Title),
		Title:       req.Title,
		Description: req.Description,
		City:        req.City,
		Difficulty:  req.Difficulty,
		Status:      models.QuestStatusDraft,
	}
	for _, p := range req.Points {
		quest.Points = append(quest.Points, models.QuestPoint{
			ID:            uuid.NewString(),
			QuestID:       quest.ID,
			OrderIndex:    p.OrderIndex,
			Latitude:      p.Latitude,
			Longitude:     p.Longitude,
			TaskType:      p.TaskType,
			Task:          p.Task,
			CorrectAnswer: p.CorrectAnswer,
			RewardPoints:  p.RewardPoints,
		})
	}

	if err := s.DB.Create(&quest).Error; err != nil {
		log.Printf("DB Error creating quest: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create quest"})
	}
	return c.Status(fiber.StatusCreated).JSON(quest)
}

// uniqueSlug derives a URL slug from the title, suffixing on collision.
func (s *QuestService) uniqueSlug(title string) string {
	base := slug.Make(title)
	candidate := base
	for i := 2; ; i++ {
		var count int64
		s.DB.Model(&models.Quest{}).Where("slug = ?", candidate).Count(&count)
		if count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// UpdateQuest updates quest metadata (Admin only). Checkpoints are immutable once
// the quest leaves draft.
func (s *QuestService) UpdateQuest(c *fiber.Ctx) error {
	id := c.Params("id")
	var quest models.Quest
	if err := s.DB.First(&quest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quest not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		Title       *string                 `json:"title"`
		Description *string                 `json:"description"`
		City        *string                 `json:"city"`
		Difficulty  *models.QuestDifficulty `json:"difficulty"`
		CoverURL    *string                 `json:"cover_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Title != nil {
		quest.Title = *req.Title
	}
	if req.Description != nil {
		quest.Description = *req.Description
	}
	if req.City != nil {
		quest.City = *req.City
	}
	if req.Difficulty != nil {
		if !models.ValidDifficulty(*req.Difficulty) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("Unknown difficulty %q", *req.Difficulty)})
		}
		if quest.Status != models.QuestStatusDraft {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Difficulty is frozen once a quest leaves draft"})
		}
		quest.Difficulty = *req.Difficulty
	}
	if req.CoverURL != nil {
		quest.CoverURL = *req.CoverURL
	}

	if err := s.DB.Save(&quest).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update quest"})
	}
	return c.JSON(quest)
}

// UploadQuestCover stores a cover image on R2 and attaches its URL (Admin only).
func (s *QuestService) UploadQuestCover(c *fiber.Ctx) error {
	id := c.Params("id")
	var quest models.Quest
	if err := s.DB.First(&quest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quest not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	fileHeader, err := c.FormFile("cover")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cover file is required"})
	}
	url, err := utils.UploadPhotoToR2(fileHeader, fmt.Sprintf("covers/%s-%s", quest.Slug, uuid.NewString()[:8]))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "upload failed", "cause": err.Error()})
	}

	quest.CoverURL = url
	if err := s.DB.Save(&quest).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save cover URL"})
	}
	return c.JSON(fiber.Map{"cover_url": url})
}

// GetPublishedQuests lists the player-facing catalog.
func (s *QuestService) GetPublishedQuests(c *fiber.Ctx) error {
	q := s.DB.Where("status = ?", models.QuestStatusPublished)
	if city := c.Query("city"); city != "" {
		q = q.Where("city = ?", city)
	}
	if d := c.Query("difficulty"); d != "" {
		q = q.Where("difficulty = ?", d)
	}
	var quests []models.Quest
	if err := q.Order("created_at DESC").Find(&quests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list quests"})
	}
	return c.JSON(quests)
}

// GetPublishedQuestByID returns one published quest with its checkpoints.
// Correct answers never serialize (json:"-" on the model).
func (s *QuestService) GetPublishedQuestByID(c *fiber.Ctx) error {
	var quest models.Quest
	err := s.DB.Preload("Points", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index ASC")
	}).Where("id = ? AND status = ?", c.Params("id"), models.QuestStatusPublished).First(&quest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quest not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(quest)
}

// GetAllQuests is the admin view — every status.
func (s *QuestService) GetAllQuests(c *fiber.Ctx) error {
	var quests []models.Quest
	if err := s.DB.Preload("Points", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index ASC")
	}).Order("created_at DESC").Find(&quests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list quests"})
	}
	return c.JSON(quests)
}

// PublishNow publishes immediately (Admin only).
func (s *QuestService) PublishNow(c *fiber.Ctx) error {
	return s.setPublishState(c, models.QuestStatusPublished, nil)
}

// SchedulePublish marks a quest for the publish scheduler (Admin only).
func (s *QuestService) SchedulePublish(c *fiber.Ctx) error {
	var req struct {
		PublishAt time.Time `json:"publish_at"`
	}
	if err := c.BodyParser(&req); err != nil || req.PublishAt.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "publish_at is required"})
	}
	return s.setPublishState(c, models.QuestStatusScheduled, &req.PublishAt)
}

// CancelScheduledPublish reverts a scheduled quest to draft (Admin only).
func (s *QuestService) CancelScheduledPublish(c *fiber.Ctx) error {
	return s.setPublishState(c, models.QuestStatusDraft, nil)
}

// ArchiveQuest retires a quest from the catalog (Admin only). Running sessions
// keep their loaded checkpoints and finish normally.
func (s *QuestService) ArchiveQuest(c *fiber.Ctx) error {
	return s.setPublishState(c, models.QuestStatusArchived, nil)
}

func (s *QuestService) setPublishState(c *fiber.Ctx, status models.QuestStatus, publishAt *time.Time) error {
	id := c.Params("id")
	var quest models.Quest
	if err := s.DB.First(&quest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quest not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	quest.Status = status
	quest.PublishAt = publishAt
	if err := s.DB.Save(&quest).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update quest status"})
	}
	log.Printf("📦 Quest %s → %s", quest.Slug, status)
	return c.JSON(quest)
}

// services/achievement_admin.go
package services

import (
	"errors"
	"fmt"
	"log"

	"quest-game-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Admin-side authoring of achievement definitions. Completed progress rows keep
// pointing at their definition, so targets of live definitions only tighten going
// forward — existing completions are never revoked.

// CreateDefinition registers a new achievement definition (Admin only).
func (s *AchievementService) CreateDefinition(c *fiber.Ctx) error {
	var req struct {
		Code            string                      `json:"code"`
		Name            string                      `json:"name"`
		Description     string                      `json:"description"`
		IconURL         string                      `json:"icon_url"`
		ConditionType   models.AchievementCondition `json:"condition_type"`
		ConditionTarget int64                       `json:"condition_target"`
		RewardPoints    int64                       `json:"reward_points"`
		RewardCoins     int64                       `json:"reward_coins"`
		IsSecret        bool                        `json:"is_secret"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Code == "" || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "code and name are required"})
	}
	if !models.ValidCondition(req.ConditionType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("Unknown condition type %q", req.ConditionType)})
	}
	if req.ConditionTarget <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "condition_target must be positive"})
	}
	if req.RewardPoints < 0 || req.RewardCoins < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "rewards cannot be negative"})
	}

	def := models.AchievementDefinition{
		ID:              uuid.NewString(),
		Code:            req.Code,
		Name:            req.Name,
		Description:     req.Description,
		IconURL:         req.IconURL,
		ConditionType:   req.ConditionType,
		ConditionTarget: req.ConditionTarget,
		RewardPoints:    req.RewardPoints,
		RewardCoins:     req.RewardCoins,
		IsSecret:        req.IsSecret,
	}
	if err := s.DB.Create(&def).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": fmt.Sprintf("achievement code %q already exists", req.Code)})
		}
		log.Printf("DB Error creating achievement: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create achievement"})
	}
	return c.Status(fiber.StatusCreated).JSON(def)
}

// ListDefinitions is the admin view of every definition, secrets included.
func (s *AchievementService) ListDefinitions(c *fiber.Ctx) error {
	var defs []models.AchievementDefinition
	if err := s.DB.Order("created_at ASC").Find(&defs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list achievements"})
	}
	return c.JSON(defs)
}

// UpdateDefinition edits presentation fields and rewards (Admin only). Code and
// condition type are frozen — changing what an achievement measures would
// invalidate every progress row pointing at it.
func (s *AchievementService) UpdateDefinition(c *fiber.Ctx) error {
	var def models.AchievementDefinition
	if err := s.DB.First(&def, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Achievement not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		Name            *string `json:"name"`
		Description     *string `json:"description"`
		IconURL         *string `json:"icon_url"`
		ConditionTarget *int64  `json:"condition_target"`
		RewardPoints    *int64  `json:"reward_points"`
		RewardCoins     *int64  `json:"reward_coins"`
		IsSecret        *bool   `json:"is_secret"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Name != nil {
		def.Name = *req.Name
	}
	if req.Description != nil {
		def.Description = *req.Description
	}
	if req.IconURL != nil {
		def.IconURL = *req.IconURL
	}
	if req.ConditionTarget != nil {
		if *req.ConditionTarget <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "condition_target must be positive"})
		}
		def.ConditionTarget = *req.ConditionTarget
	}
	if req.RewardPoints != nil {
		def.RewardPoints = *req.RewardPoints
	}
	if req.RewardCoins != nil {
		def.RewardCoins = *req.RewardCoins
	}
	if req.IsSecret != nil {
		def.IsSecret = *req.IsSecret
	}

	if err := s.DB.Save(&def).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update achievement"})
	}
	return c.JSON(def)
}

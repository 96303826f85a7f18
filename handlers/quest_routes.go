// handlers/quest_routes.go
package handlers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"quest-game-system/middleware"
	"quest-game-system/services"
	"quest-game-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func SetupQuestRoutes(app *fiber.App, questService *services.QuestService, sessionService *services.QuestSessionService, accountService *services.AccountService, achievementService *services.AchievementService) {
	// 🔓 Public catalog — published quests only, answers never serialize
	app.Get("/quests", questService.GetPublishedQuests)
	app.Get("/quests/:id", questService.GetPublishedQuestByID)

	// 🔐 Player routes — require resolved user context from the gateway
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/quests/:id/start", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		if _, err := accountService.EnsureAccount(userID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to provision account",
				"cause": err.Error(),
			})
		}

		session, err := sessionService.StartQuest(userID, c.Params("id"))
		if err != nil {
			return questError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	secured.Get("/sessions/:id", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		session, err := sessionService.GetSession(c.Params("id"), userID)
		if err != nil {
			return questError(c, err)
		}
		return c.JSON(session)
	})

	secured.Post("/sessions/:id/answer", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var sub services.AnswerSubmission
		if err := c.BodyParser(&sub); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		result, err := sessionService.SubmitAnswer(c.Params("id"), userID, sub)
		if err != nil {
			return questError(c, err)
		}
		return c.JSON(result)
	})

	secured.Post("/sessions/:id/abandon", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		if err := sessionService.Abandon(c.Params("id"), userID); err != nil {
			return questError(c, err)
		}
		return c.JSON(fiber.Map{"message": "session abandoned"})
	})

	// Photo/selfie submissions: multipart upload → R2 → opaque URL the answer
	// endpoint accepts as photo_url.
	secured.Post("/submissions/photo", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		fileHeader, err := c.FormFile("photo")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "photo file is required"})
		}
		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		key := fmt.Sprintf("submissions/%s/%s%s", userID, uuid.NewString(), ext)
		url, err := utils.UploadPhotoToR2(fileHeader, key)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "upload failed",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"photo_url": url})
	})

	// 🔒 Admin-only authoring routes
	admin := secured.Group("/admin", middleware.RequireAdmin())
	admin.Post("/quests", questService.CreateQuest)
	admin.Get("/quests", questService.GetAllQuests)
	admin.Put("/quests/:id", questService.UpdateQuest)
	admin.Post("/quests/:id/cover", questService.UploadQuestCover)
	admin.Post("/quests/:id/publish/now", questService.PublishNow)
	admin.Post("/quests/:id/publish/schedule", questService.SchedulePublish)
	admin.Post("/quests/:id/publish/cancel", questService.CancelScheduledPublish)
	admin.Post("/quests/:id/archive", questService.ArchiveQuest)

	admin.Post("/achievements", achievementService.CreateDefinition)
	admin.Get("/achievements", achievementService.ListDefinitions)
	admin.Put("/achievements/:id", achievementService.UpdateDefinition)
}

// questError maps the service error taxonomy onto HTTP statuses.
func questError(c *fiber.Ctx, err error) error {
	var iee *services.InsufficientEnergyError
	switch {
	case errors.As(err, &iee):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":    "insufficient energy",
			"required": iee.Required,
			"balance":  iee.Balance,
		})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidArgument):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrSessionFinished):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrOutOfRange):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrConcurrencyConflict):
		// Safe for the caller to retry the whole operation.
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "retryable": true})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error", "cause": err.Error()})
	}
}

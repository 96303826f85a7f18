// handlers/progression_routes.go
package handlers

import (
	"quest-game-system/middleware"
	"quest-game-system/models"
	"quest-game-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupProgressionRoutes wires the player-facing progression views: account
// snapshot, achievement progress, session history.
func SetupProgressionRoutes(app *fiber.App, accounts *services.AccountService, achievements *services.AchievementService, sessions *services.QuestSessionService, tables *models.RewardTables) {
	user := app.Group("/user", middleware.UserContextMiddleware())

	// Snapshot applies lazy regeneration before returning, so the caller always
	// sees the current energy balance without any background timer involved.
	user.Get("/account", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		acc, err := accounts.GetSnapshot(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load account",
				"cause": err.Error(),
			})
		}

		nextXP := int64(-1)
		if next, ok := nextLevelXP(tables, acc.Level); ok {
			nextXP = next
		}
		return c.JSON(fiber.Map{
			"account":       acc,
			"title":         tables.TitleFor(acc.Level),
			"next_level_xp": nextXP, // -1 at level cap
		})
	})

	user.Get("/achievements", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		progress, err := achievements.ListProgress(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load achievements",
				"cause": err.Error(),
			})
		}
		return c.JSON(progress)
	})

	user.Get("/sessions", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		list, err := sessions.ListSessions(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load sessions",
				"cause": err.Error(),
			})
		}
		return c.JSON(list)
	})
}

func nextLevelXP(tables *models.RewardTables, level int) (int64, bool) {
	for _, lc := range tables.Levels {
		if lc.Level == level+1 {
			return lc.RequiredXP, true
		}
	}
	return 0, false
}

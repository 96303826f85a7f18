// middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware extracts the already-resolved user identity set by the
// Gateway after Telegram init-data validation. The engine never sees raw Telegram
// credentials — only the resolved user id.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		var roles []string
		if rolesStr := c.Get("X-User-Roles"); rolesStr != "" {
			for _, r := range strings.Split(rolesStr, ",") {
				if r = strings.TrimSpace(r); r != "" {
					roles = append(roles, r)
				}
			}
		}

		c.Locals("user_id", userID)
		c.Locals("user_roles", roles)
		return c.Next()
	}
}

// RequireAdmin gates authoring endpoints on the gateway-supplied role list.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles, _ := c.Locals("user_roles").([]string)
		for _, r := range roles {
			if r == "admin" {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "admin role required",
		})
	}
}

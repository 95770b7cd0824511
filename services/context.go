package services

import "github.com/gofiber/fiber/v2"

// currentUserID returns the user id the gateway resolved for this request,
// or "" when the request is anonymous.
func currentUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}

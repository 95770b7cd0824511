// handlers/user_routes.go
package handlers

import (
	"goblin-backend/middleware"
	"goblin-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, userService *services.UserService) {
	// Called by the auth service on sign-in (gateway-internal)
	app.Post("/users/register", userService.Register)

	app.Get("/users/:username", userService.GetProfile)
	app.Post("/users/:username/wallet", middleware.RequireUser(), userService.SaveWallet)

	admin := app.Group("/admin", middleware.RequireUser(), middleware.RequireAdmin())
	admin.Post("/update-points", userService.UpdatePoints)
}

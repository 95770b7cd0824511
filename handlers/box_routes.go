// handlers/box_routes.go
package handlers

import (
	"goblin-backend/middleware"
	"goblin-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupBoxRoutes(app *fiber.App, boxService *services.BoxService, templateService *services.TemplateService) {
	// Public reads. /box/status must register before /box/:id
	app.Get("/box", boxService.GetActiveBoxes)
	app.Get("/box/status", middleware.RequireUser(), boxService.GetMyBoxStatus)
	app.Get("/box/:id", boxService.GetBox)

	// Mining lifecycle, auth required
	secured := app.Group("/box", middleware.RequireUser())
	secured.Post("/:id/start", boxService.StartMining)
	secured.Post("/:id/mission", boxService.CompleteMission)
	secured.Post("/:id/promo", boxService.ApplyPromo)
	secured.Post("/:id/claim", boxService.ClaimBox)

	// Admin back office
	admin := app.Group("/admin/box", middleware.RequireUser(), middleware.RequireAdmin())
	admin.Get("/", templateService.GetAllTemplates)
	admin.Post("/", templateService.CreateTemplate)
	admin.Put("/:id", templateService.UpdateTemplate)
	admin.Delete("/:id", templateService.DeleteTemplate)
}

// handlers/gallery_routes.go
package handlers

import (
	"goblin-backend/middleware"
	"goblin-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGalleryRoutes(app *fiber.App, galleryService *services.GalleryService) {
	app.Get("/gallery", galleryService.GetGallery)

	admin := app.Group("/gallery", middleware.RequireUser(), middleware.RequireAdmin())
	admin.Post("/", galleryService.CreateEntry)
	admin.Post("/upload", galleryService.UploadImage)
}

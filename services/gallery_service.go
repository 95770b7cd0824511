// services/gallery_service.go
package services

import (
	"log"
	"path/filepath"

	"goblin-backend/models"
	"goblin-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxGalleryImageSize = 10 * 1024 * 1024 // 10MB

// GalleryService manages the marketing-site image gallery.
type GalleryService struct {
	DB *gorm.DB
}

func NewGalleryService(db *gorm.DB) *GalleryService {
	return &GalleryService{DB: db}
}

// GetGallery lists gallery images, newest first (public).
func (s *GalleryService) GetGallery(c *fiber.Ctx) error {
	var images []models.GalleryImage
	if err := s.DB.Order("created_at DESC").Find(&images).Error; err != nil {
		log.Printf("DB Error fetching gallery: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch gallery"})
	}

	return c.JSON(images)
}

// CreateEntry registers an already-hosted image in the gallery (Admin only)
func (s *GalleryService) CreateEntry(c *fiber.Ctx) error {
	var req struct {
		Title    string `json:"title"`
		ImageURL string `json:"imageUrl"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Title == "" || req.ImageURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing fields"})
	}

	entry := &models.GalleryImage{
		ID:       uuid.NewString(),
		Title:    req.Title,
		ImageURL: req.ImageURL,
	}
	if err := s.DB.Create(entry).Error; err != nil {
		log.Printf("DB Error creating gallery entry: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create entry"})
	}

	return c.Status(fiber.StatusCreated).JSON(entry)
}

// UploadImage proxies a multipart image upload to R2 and returns the public
// URL (Admin only). Pairing it with CreateEntry is the client's job.
func (s *GalleryService) UploadImage(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file provided"})
	}
	if fileHeader.Size > maxGalleryImageSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file too large (max 10MB)"})
	}

	ext := filepath.Ext(fileHeader.Filename)
	if ext == "" {
		ext = ".png"
	}
	key := "gallery/" + uuid.NewString() + ext

	url, err := utils.UploadImageToR2(fileHeader, key)
	if err != nil {
		log.Printf("R2 upload failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload image"})
	}

	return c.JSON(fiber.Map{"url": url})
}

// services/template_service.go
package services

import (
	"errors"
	"log"
	"time"

	"goblin-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// TemplateService is the admin back office for box templates.
type TemplateService struct {
	DB *gorm.DB
}

func NewTemplateService(db *gorm.DB) *TemplateService {
	return &TemplateService{DB: db}
}

// GetAllTemplates fetches every template, active or not (Admin only)
func (s *TemplateService) GetAllTemplates(c *fiber.Ctx) error {
	var templates []models.BoxTemplate
	if err := s.DB.Find(&templates).Error; err != nil {
		log.Printf("DB Error fetching templates: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch templates"})
	}

	return c.JSON(fiber.Map{"templates": templates})
}

// CreateTemplate creates a new box template (Admin only)
func (s *TemplateService) CreateTemplate(c *fiber.Ctx) error {
	var req struct {
		Name         string     `json:"name"`
		NormalPrize  int64      `json:"normalPrize"`
		GoldenPrize  int64      `json:"goldenPrize"`
		GoldenChance float64    `json:"goldenChance"`
		Active       bool       `json:"active"`
		ActivateAt   *time.Time `json:"activateAt"`
		ImageURL     string     `json:"imageUrl"`
		MissionURL   string     `json:"missionUrl"`
		MissionDesc  string     `json:"missionDesc"`
		BoxType      string     `json:"boxType"`
		PromoCode    *string    `json:"promoCode"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name is required"})
	}
	if req.NormalPrize <= 0 || req.GoldenPrize <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Prize amounts must be positive"})
	}
	if req.GoldenChance < 0 || req.GoldenChance > 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "goldenChance must be between 0 and 1"})
	}

	boxType := models.BoxType(req.BoxType)
	if boxType == "" {
		boxType = models.BoxTypeNormal
	}
	if boxType != models.BoxTypeNormal && boxType != models.BoxTypePartner {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "boxType must be normal or partner"})
	}

	template := &models.BoxTemplate{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Slug:         slug.Make(req.Name),
		ImageURL:     req.ImageURL,
		MissionURL:   req.MissionURL,
		MissionDesc:  req.MissionDesc,
		NormalPrize:  req.NormalPrize,
		GoldenPrize:  req.GoldenPrize,
		GoldenChance: req.GoldenChance,
		Active:       req.Active,
		ActivateAt:   req.ActivateAt,
		BoxType:      boxType,
	}

	// Promo codes only mean anything on partner boxes.
	if boxType == models.BoxTypePartner {
		template.PromoCode = req.PromoCode
	}

	if err := s.DB.Create(template).Error; err != nil {
		log.Printf("DB Error creating template: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create template"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"template": template})
}

// UpdateTemplate partially updates a template (Admin only).
// In-flight boxes keep the prize computed when they started.
func (s *TemplateService) UpdateTemplate(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid template ID"})
	}

	var existing models.BoxTemplate
	if err := s.DB.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Template not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		Name         *string    `json:"name"`
		NormalPrize  *int64     `json:"normalPrize"`
		GoldenPrize  *int64     `json:"goldenPrize"`
		GoldenChance *float64   `json:"goldenChance"`
		Active       *bool      `json:"active"`
		ActivateAt   *time.Time `json:"activateAt"`
		ImageURL     *string    `json:"imageUrl"`
		MissionURL   *string    `json:"missionUrl"`
		MissionDesc  *string    `json:"missionDesc"`
		BoxType      *string    `json:"boxType"`
		PromoCode    *string    `json:"promoCode"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Name != nil {
		existing.Name = *req.Name
		existing.Slug = slug.Make(*req.Name)
	}
	if req.NormalPrize != nil {
		if *req.NormalPrize <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Prize amounts must be positive"})
		}
		existing.NormalPrize = *req.NormalPrize
	}
	if req.GoldenPrize != nil {
		if *req.GoldenPrize <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Prize amounts must be positive"})
		}
		existing.GoldenPrize = *req.GoldenPrize
	}
	if req.GoldenChance != nil {
		if *req.GoldenChance < 0 || *req.GoldenChance > 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "goldenChance must be between 0 and 1"})
		}
		existing.GoldenChance = *req.GoldenChance
	}
	if req.Active != nil {
		existing.Active = *req.Active
	}
	if req.ActivateAt != nil {
		existing.ActivateAt = req.ActivateAt
	}
	if req.ImageURL != nil {
		existing.ImageURL = *req.ImageURL
	}
	if req.MissionURL != nil {
		existing.MissionURL = *req.MissionURL
	}
	if req.MissionDesc != nil {
		existing.MissionDesc = *req.MissionDesc
	}
	if req.BoxType != nil {
		boxType := models.BoxType(*req.BoxType)
		if boxType != models.BoxTypeNormal && boxType != models.BoxTypePartner {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "boxType must be normal or partner"})
		}
		existing.BoxType = boxType
		if boxType == models.BoxTypeNormal {
			existing.PromoCode = nil
		}
	}
	if req.PromoCode != nil && existing.BoxType == models.BoxTypePartner {
		existing.PromoCode = req.PromoCode
	}

	if err := s.DB.Save(&existing).Error; err != nil {
		log.Printf("DB Error updating template %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update template"})
	}

	return c.JSON(fiber.Map{"template": existing})
}

// DeleteTemplate removes a template (Admin only). Soft delete — mining
// history referencing it stays intact.
func (s *TemplateService) DeleteTemplate(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid template ID"})
	}

	var template models.BoxTemplate
	if err := s.DB.First(&template, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Template not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if err := s.DB.Delete(&template).Error; err != nil {
		log.Printf("DB Error deleting template %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete template"})
	}

	return c.JSON(fiber.Map{"message": "Deleted."})
}

// services/box_service.go
package services

import (
	"errors"
	"log"
	"math/rand"
	"time"

	"goblin-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// State-machine precondition failures. Handlers translate these into the
// user-facing messages; tests assert against them.
var (
	ErrAlreadyMining     = errors.New("user already has an active box mining")
	ErrNoActiveBox       = errors.New("no active box")
	ErrNotReady          = errors.New("box is not ready yet")
	ErrMissionIncomplete = errors.New("mission not completed yet")
	ErrLedgerUpdate      = errors.New("failed to update user points")
)

// BoxService drives the mining lifecycle: start → wait 24h → mission →
// optional promo → claim. Rand and Now are injectable so tests can force
// tiers and travel time.
type BoxService struct {
	DB   *gorm.DB
	Rand func() float64
	Now  func() time.Time
}

func NewBoxService(db *gorm.DB) *BoxService {
	return &BoxService{
		DB:   db,
		Rand: rand.Float64,
		Now:  time.Now,
	}
}

// findUnopenedBox loads the caller's unopened box for one template.
func (s *BoxService) findUnopenedBox(userID, templateID string) (*models.UserBox, error) {
	var box models.UserBox
	err := s.DB.Where("user_id = ? AND template_id = ? AND opened = ?", userID, templateID, false).
		First(&box).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveBox
		}
		return nil, err
	}
	return &box, nil
}

// StartMining begins a mining attempt: one unopened box per user across all
// templates, prize tier drawn up front.
func (s *BoxService) StartMining(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	templateID := c.Params("id")
	if _, err := uuid.Parse(templateID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid box ID"})
	}

	// The one-active-box rule is global: any unopened box blocks a new
	// start, whichever template it belongs to.
	var existing models.UserBox
	err := s.DB.Where("user_id = ? AND opened = ?", userID, false).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You already have an active box mining."})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("DB Error checking active box for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start mining"})
	}

	var template models.BoxTemplate
	if err := s.DB.Where("id = ? AND active = ?", templateID, true).First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No box available."})
		}
		log.Printf("DB Error loading template %s: %v", templateID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start mining"})
	}

	prizeType, prizeAmount := determinePrize(&template, s.Rand())

	now := s.Now()
	box := models.UserBox{
		ID:               uuid.NewString(),
		UserID:           userID,
		TemplateID:       template.ID,
		StartTime:        now,
		ReadyAt:          now.Add(MiningDuration),
		PrizeType:        prizeType,
		PrizeAmount:      prizeAmount,
		MissionCompleted: false,
		Opened:           false,
	}

	if err := s.DB.Create(&box).Error; err != nil {
		log.Printf("DB Error creating user box: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start mining"})
	}

	return c.JSON(fiber.Map{
		"message": "Box mining started",
		"box": fiber.Map{
			"id":          box.ID,
			"startTime":   box.StartTime,
			"readyAt":     box.ReadyAt,
			"prizeType":   box.PrizeType,
			"prizeAmount": box.PrizeAmount,
		},
	})
}

// CompleteMission marks the box's mission done once the box has matured.
// Idempotent: repeating it while the box is unopened re-asserts true.
func (s *BoxService) CompleteMission(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	templateID := c.Params("id")
	if _, err := uuid.Parse(templateID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid box ID"})
	}

	box, err := s.findUnopenedBox(userID, templateID)
	if err != nil {
		if errors.Is(err, ErrNoActiveBox) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No active box to complete mission for."})
		}
		log.Printf("DB Error loading user box: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to complete mission"})
	}

	if !boxIsReady(box, s.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Box is not ready yet."})
	}

	if err := s.DB.Model(box).Update("mission_completed", true).Error; err != nil {
		log.Printf("DB Error marking mission complete for box %s: %v", box.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to complete mission"})
	}

	return c.JSON(fiber.Map{"message": "Mission marked as completed."})
}

// ApplyPromo validates a partner promo code against the template and flags
// the box; the prize boost itself happens at claim time.
func (s *BoxService) ApplyPromo(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	templateID := c.Params("id")
	if _, err := uuid.Parse(templateID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid box ID"})
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if normalizePromoCode(req.Code) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Promo code is required"})
	}

	var template models.BoxTemplate
	if err := s.DB.First(&template, "id = ?", templateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Box template not found"})
		}
		log.Printf("DB Error loading template %s: %v", templateID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to apply promo"})
	}

	if template.PromoCode == nil || *template.PromoCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "This box does not accept promo codes."})
	}

	box, err := s.findUnopenedBox(userID, templateID)
	if err != nil {
		if errors.Is(err, ErrNoActiveBox) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No active box to apply promo for."})
		}
		log.Printf("DB Error loading user box: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to apply promo"})
	}

	if !boxIsReady(box, s.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Box is not ready yet."})
	}

	code := normalizePromoCode(*template.PromoCode)
	if normalizePromoCode(req.Code) != code {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid promo code."})
	}

	if err := s.DB.Model(box).Updates(map[string]interface{}{
		"promo_valid":     true,
		"promo_code_used": code,
	}).Error; err != nil {
		log.Printf("DB Error saving promo on box %s: %v", box.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to apply promo"})
	}

	return c.JSON(fiber.Map{"message": "Promo code applied successfully!"})
}

// ClaimBox finalizes a matured, mission-complete box: the open flag and the
// point credit commit or roll back together, and the conditional update on
// opened=false makes a double claim lose the race cleanly.
func (s *BoxService) ClaimBox(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	templateID := c.Params("id")
	if _, err := uuid.Parse(templateID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid box ID"})
	}

	box, err := s.findUnopenedBox(userID, templateID)
	if err != nil {
		if errors.Is(err, ErrNoActiveBox) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No active box to open."})
		}
		log.Printf("DB Error loading user box: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to claim box"})
	}

	now := s.Now()
	if !boxIsReady(box, now) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Box is not ready yet."})
	}
	if !box.MissionCompleted {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Mission not completed yet."})
	}

	finalPrize := finalPrizeAmount(box.PrizeAmount, box.PromoValid)

	var newBalance int64
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Conditional update keyed on opened=false: zero rows means a
		// concurrent claim got there first.
		res := tx.Model(&models.UserBox{}).
			Where("id = ? AND opened = ?", box.ID, false).
			Updates(map[string]interface{}{
				"opened":       true,
				"opened_at":    now,
				"prize_amount": finalPrize,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoActiveBox
		}

		// Relative increment, never read-modify-write: referral bonuses
		// may be crediting the same user concurrently.
		inc := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("goblin_points", gorm.Expr("goblin_points + ?", finalPrize))
		if inc.Error != nil {
			return inc.Error
		}
		if inc.RowsAffected == 0 {
			return ErrLedgerUpdate
		}

		var user models.User
		if err := tx.Select("goblin_points").First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		newBalance = user.GoblinPoints
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoActiveBox) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No active box to open."})
		}
		log.Printf("Error claiming box %s for user %s: %v", box.ID, userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to claim box"})
	}

	return c.JSON(fiber.Map{
		"message":      "Box opened! Prize credited.",
		"prizeAmount":  finalPrize,
		"newBalance":   newBalance,
		"promoApplied": box.PromoValid,
	})
}

// GetBox returns a template's public details, plus the caller's mining state
// for it when the request carries a user. The :id accepts the template UUID
// or its slug.
func (s *BoxService) GetBox(c *fiber.Ctx) error {
	param := c.Params("id")

	var template models.BoxTemplate
	var err error
	if _, parseErr := uuid.Parse(param); parseErr == nil {
		err = s.DB.First(&template, "id = ?", param).Error
	} else {
		err = s.DB.First(&template, "slug = ?", param).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Box template not found"})
		}
		log.Printf("DB Error loading template %s: %v", param, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch box"})
	}

	details := fiber.Map{
		"_id":              template.ID,
		"name":             template.Name,
		"imageUrl":         template.ImageURL,
		"normalPrize":      template.NormalPrize,
		"missionUrl":       template.MissionURL,
		"missionDesc":      template.MissionDesc,
		"missionCompleted": false,
		"hasBox":           false,
		"isReady":          false,
		"opened":           false,
		"startTime":        nil,
		"readyAt":          nil,
	}

	if userID := currentUserID(c); userID != "" {
		box, err := s.findUnopenedBox(userID, template.ID)
		if err == nil {
			details["hasBox"] = true
			details["isReady"] = boxIsReady(box, s.Now())
			details["opened"] = box.Opened
			details["missionCompleted"] = box.MissionCompleted
			details["startTime"] = box.StartTime
			details["readyAt"] = box.ReadyAt
		} else if !errors.Is(err, ErrNoActiveBox) {
			log.Printf("DB Error loading user box: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch box"})
		}
	}

	return c.JSON(details)
}

// GetActiveBoxes lists the templates currently open for mining.
func (s *BoxService) GetActiveBoxes(c *fiber.Ctx) error {
	var boxes []models.BoxTemplate
	if err := s.DB.Where("active = ?", true).Find(&boxes).Error; err != nil {
		log.Printf("DB Error fetching active templates: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch boxes"})
	}

	return c.JSON(fiber.Map{"boxes": boxes})
}

// GetMyBoxStatus returns the caller's unopened box across all templates.
func (s *BoxService) GetMyBoxStatus(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var box models.UserBox
	err := s.DB.Where("user_id = ? AND opened = ?", userID, false).First(&box).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"hasBox": false})
		}
		log.Printf("DB Error loading user box: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch box status"})
	}

	return c.JSON(fiber.Map{
		"hasBox": true,
		"box": fiber.Map{
			"id":               box.ID,
			"startTime":        box.StartTime,
			"readyAt":          box.ReadyAt,
			"prizeType":        box.PrizeType,
			"prizeAmount":      box.PrizeAmount,
			"missionCompleted": box.MissionCompleted,
			"isReady":          boxIsReady(&box, s.Now()),
			"opened":           box.Opened,
		},
	})
}

// services/user_service.go
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

// referralBonusPercent of the referred user's starting points is credited
// to the referrer.
const referralBonusPercent = 0.05

const referralCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// UserService manages local user records, points and referrals. The auth
// service owns identity; it calls Register through the gateway on sign-in.
type UserService struct {
	DB   *gorm.DB
	Rand func() float64
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		DB:   db,
		Rand: rand.Float64,
	}
}

// startingGoblinPoints bands the signup grant by follower count.
func startingGoblinPoints(followers int64, r float64) int64 {
	switch {
	case followers >= 10000:
		return 100000 + int64(r*900001) // 100k to 1M
	case followers >= 1000:
		return 1000 + int64(r*9001) // 1k to 10k
	case followers >= 100:
		return 100 + int64(r*901) // 100 to 1000
	}
	return 0
}

func (s *UserService) generateReferralCode() string {
	code := make([]byte, 6)
	for i := range code {
		code[i] = referralCodeChars[int(s.Rand()*float64(len(referralCodeChars)))%len(referralCodeChars)]
	}
	return string(code)
}

// Register upserts a user on sign-in. New users get starting points, a
// referral code, and — when the signup carried a referral code — the
// referrer is credited a share of those points.
func (s *UserService) Register(c *fiber.Ctx) error {
	var req struct {
		XUsername      string  `json:"xUsername"`
		FollowersCount int64   `json:"followersCount"`
		ProfileImage   *string `json:"profileImage"`
		ReferralCode   string  `json:"referralCode"` // code of the referrer, if any
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.XUsername == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "xUsername is required"})
	}

	var user models.User
	err := s.DB.Where("x_username = ?", req.XUsername).First(&user).Error
	if err == nil {
		// Known user: refresh the profile snapshot, leave points alone.
		user.FollowersCount = req.FollowersCount
		user.ProfileImage = req.ProfileImage
		user.LastUpdated = time.Now()
		if err := s.DB.Save(&user).Error; err != nil {
			log.Printf("DB Error refreshing user %s: %v", req.XUsername, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
		}
		return c.JSON(fiber.Map{"user": user, "created": false})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("DB Error loading user %s: %v", req.XUsername, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	startingPoints := startingGoblinPoints(req.FollowersCount, s.Rand())

	user = models.User{
		ID:             uuid.NewString(),
		XUsername:      req.XUsername,
		FollowersCount: req.FollowersCount,
		GoblinPoints:   startingPoints,
		ReferralCode:   s.generateReferralCode(),
		ProfileImage:   req.ProfileImage,
		LastUpdated:    time.Now(),
	}
	if err := s.DB.Create(&user).Error; err != nil {
		log.Printf("DB Error creating user %s: %v", req.XUsername, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
	}

	if req.ReferralCode != "" {
		if err := s.creditReferrer(req.ReferralCode, user.ID, startingPoints); err != nil {
			// Signup still succeeds; the bonus is best-effort.
			log.Printf("Failed to credit referrer for code %s: %v", req.ReferralCode, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user, "created": true})
}

// creditReferrer adds the referral bonus to the owner of the code, using
// the same relative-increment primitive box claims use.
func (s *UserService) creditReferrer(code, referredID string, startingPoints int64) error {
	bonus := int64(float64(startingPoints) * referralBonusPercent)

	var referrer models.User
	if err := s.DB.Where("referral_code = ?", code).First(&referrer).Error; err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ?", referrer.ID).
			Updates(map[string]interface{}{
				"goblin_points":   gorm.Expr("goblin_points + ?", bonus),
				"referral_points": gorm.Expr("referral_points + ?", bonus),
			})
		if res.Error != nil {
			return res.Error
		}

		referral := models.Referral{
			ID:               uuid.NewString(),
			ReferrerID:       referrer.ID,
			ReferredID:       referredID,
			ReferralCodeUsed: code,
			BonusPoints:      bonus,
			AwardedAt:        time.Now(),
		}
		return tx.Create(&referral).Error
	})
}

// GetProfile returns a user's public profile plus their leaderboard rank
// (1 + number of users with strictly more points).
func (s *UserService) GetProfile(c *fiber.Ctx) error {
	username := c.Params("username")

	var user models.User
	if err := s.DB.Where("x_username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		log.Printf("DB Error loading user %s: %v", username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var ahead int64
	if err := s.DB.Model(&models.User{}).
		Where("goblin_points > ?", user.GoblinPoints).
		Count(&ahead).Error; err != nil {
		log.Printf("DB Error counting rank for %s: %v", username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	return c.JSON(fiber.Map{
		"xUsername":    user.XUsername,
		"goblinPoints": user.GoblinPoints,
		"profileImage": user.ProfileImage,
		"referralCode": user.ReferralCode,
		"rank":         ahead + 1,
	})
}

// SaveWallet stores the wallet address prizes will eventually pay out to.
func (s *UserService) SaveWallet(c *fiber.Ctx) error {
	username := c.Params("username")

	var req struct {
		WalletAddress string `json:"walletAddress"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if username == "" || req.WalletAddress == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing xUsername or walletAddress"})
	}

	res := s.DB.Model(&models.User{}).
		Where("x_username = ?", username).
		Update("metamask_wallet_address", req.WalletAddress)
	if res.Error != nil {
		log.Printf("DB Error saving wallet for %s: %v", username, res.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	return c.JSON(fiber.Map{"message": "Wallet saved successfully"})
}

// UpdatePoints bulk-sets balances from an external scoring job (Admin only).
func (s *UserService) UpdatePoints(c *fiber.Ctx) error {
	var req struct {
		Users []struct {
			ID           string `json:"_id"`
			GoblinPoints int64  `json:"goblinPoints"`
		} `json:"users"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for _, u := range req.Users {
			if err := tx.Model(&models.User{}).
				Where("id = ?", u.ID).
				Update("goblin_points", u.GoblinPoints).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("DB Error bulk-updating points: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update users"})
	}

	return c.JSON(fiber.Map{"message": "Goblin points updated successfully"})
}

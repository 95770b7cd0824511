package models

import "time"

// PrizeType is the tier drawn when mining starts
type PrizeType string

const (
	PrizeTypeNormal PrizeType = "NORMAL"
	PrizeTypeGolden PrizeType = "GOLDEN"
)

// UserBox is one mining attempt against a template.
// A user holds at most one unopened box at a time, across all templates.
// Once Opened is set the row is terminal and never mutated again.
type UserBox struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID     string `gorm:"type:uuid;not null;index:idx_user_boxes_user_opened" json:"user_id"`
	TemplateID string `gorm:"type:uuid;not null;index" json:"template_id"`

	StartTime time.Time `gorm:"not null" json:"startTime"`
	// ReadyAt = StartTime + 24h, fixed at creation, never recomputed.
	ReadyAt time.Time `gorm:"not null" json:"readyAt"`

	PrizeType PrizeType `gorm:"not null" json:"prizeType"`
	// PrizeAmount is fixed at start from the drawn tier; the claim rewrites
	// it once with the final (possibly promo-boosted) amount.
	PrizeAmount int64 `gorm:"not null;default:0" json:"prizeAmount"`

	MissionCompleted bool       `gorm:"not null;default:false" json:"missionCompleted"`
	Opened           bool       `gorm:"not null;default:false;index:idx_user_boxes_user_opened" json:"opened"`
	OpenedAt         *time.Time `json:"openedAt,omitempty"`

	PromoValid    bool    `gorm:"not null;default:false" json:"promoValid"`
	PromoCodeUsed *string `json:"promoCodeUsed,omitempty"`

	Timestamps
}

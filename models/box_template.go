package models

import "time"

// BoxType distinguishes campaign-owned boxes from partner ones
type BoxType string

const (
	BoxTypeNormal  BoxType = "normal"
	BoxTypePartner BoxType = "partner"
)

// BoxTemplate is the admin-managed prize configuration one or more mining
// attempts reference. Editing a template never touches the prize already
// computed on an in-flight UserBox.
type BoxTemplate struct {
	ID   string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"uniqueIndex" json:"slug"`

	ImageURL    string `gorm:"type:text" json:"imageUrl"`
	MissionURL  string `gorm:"type:text" json:"missionUrl"` // comma-joined list of mission links
	MissionDesc string `gorm:"type:text" json:"missionDesc"`

	NormalPrize  int64   `gorm:"not null;default:0" json:"normalPrize"`
	GoldenPrize  int64   `gorm:"not null;default:0" json:"goldenPrize"`
	GoldenChance float64 `gorm:"not null;default:0.01" json:"goldenChance"` // probability in [0,1]

	Active bool `gorm:"not null;default:true;index" json:"active"`
	// ActivateAt lets admins schedule a box drop; the scheduler flips
	// Active once it passes.
	ActivateAt *time.Time `json:"activateAt,omitempty"`

	BoxType   BoxType `gorm:"not null;default:'normal'" json:"boxType"`
	PromoCode *string `json:"promoCode,omitempty"` // partner boxes only

	Timestamps
}

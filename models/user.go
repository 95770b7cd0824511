package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the local profile + points ledger for a signed-in X account.
// Identity itself (OAuth, sessions) is owned by the auth service; we keep
// the fields the promo campaign needs.
type User struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	XUsername      string `gorm:"uniqueIndex;not null" json:"xUsername"`
	FollowersCount int64  `gorm:"default:0" json:"followersCount"`

	// GoblinPoints is mutated only via atomic relative increments
	// (box claims and referral bonuses share the same primitive).
	GoblinPoints   int64 `gorm:"default:0" json:"goblinPoints"`
	ReferralPoints int64 `gorm:"default:0" json:"referralPoints"`

	ReferralCode          string  `gorm:"uniqueIndex;size:12" json:"referralCode"`
	ProfileImage          *string `json:"profileImage,omitempty"`
	MetamaskWalletAddress *string `gorm:"size:128" json:"metamaskWalletAddress,omitempty"`

	LastUpdated time.Time `json:"lastUpdated"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

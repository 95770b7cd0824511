package models

import "time"

// Referral records a signup attributed to a referral code and the bonus
// credited to the referrer. The running totals live on User; this row is
// the audit trail.
type Referral struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ReferrerID string `gorm:"type:uuid;index;not null" json:"referrer_id"`
	ReferredID string `gorm:"type:uuid;uniqueIndex;not null" json:"referred_id"`

	ReferralCodeUsed string    `gorm:"not null" json:"referral_code_used"`
	BonusPoints      int64     `gorm:"not null;default:0" json:"bonus_points"`
	AwardedAt        time.Time `json:"awarded_at"`

	Timestamps
}

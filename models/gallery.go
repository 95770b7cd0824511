package models

// GalleryImage is an admin-curated image shown on the marketing site.
type GalleryImage struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Title    string `gorm:"not null" json:"title"`
	ImageURL string `gorm:"type:text;not null" json:"imageUrl"`

	Timestamps
}

package models

import "time"

// Announcement is a school-wide bulletin authored by administrators.
// Publishing one pushes a notification event to connected clients.
type Announcement struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Body        string     `gorm:"type:text" json:"body"`
	Audience    string     `gorm:"size:32;not null;default:all" json:"audience"`
	IsPinned    bool       `gorm:"not null;default:false" json:"is_pinned"`
	Published   bool       `gorm:"not null;default:false" json:"published"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

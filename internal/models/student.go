package models

import "time"

// Role values carried by JWT claims and checked at route boundaries.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// Student represents a registered member of the school community.
type Student struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Email      string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	ClassLevel string    `gorm:"size:32" json:"class_level"`
	Role       string    `gorm:"size:32;not null;default:student" json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

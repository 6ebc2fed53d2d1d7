package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// PortfolioTask is an assignment template created by an administrator and
// worked on by students through portfolio submissions.
type PortfolioTask struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Title        string         `gorm:"size:255;not null;uniqueIndex:idx_portfolio_task_title_class" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	ClassLevel   string         `gorm:"size:32;not null;uniqueIndex:idx_portfolio_task_title_class" json:"class_level"`
	Tags         string         `gorm:"type:text" json:"tags"`
	Instructions datatypes.JSON `gorm:"type:json" json:"instructions"`
	Active       bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	Submissions []PortfolioSubmission `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// TagsSlice returns the tags as a slice of strings.
func (t PortfolioTask) TagsSlice() []string {
	if t.Tags == "" {
		return nil
	}

	parts := strings.Split(t.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

package models

import "time"

// Evaluation outcomes. RETURNED sends the submission back for revision,
// GRADED closes it with a score.
const (
	EvaluationStatusGraded   = "GRADED"
	EvaluationStatusReturned = "RETURNED"
)

// PortfolioEvaluation records a reviewer's verdict for one locked version.
// Re-evaluating the same version replaces the row and its rubric scores.
type PortfolioEvaluation struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	VersionID    uint      `gorm:"not null;uniqueIndex" json:"version_id"`
	OverallScore int       `gorm:"not null" json:"overall_score"`
	Note         string    `gorm:"type:text" json:"note"`
	Status       string    `gorm:"size:16;not null" json:"status"`
	ReviewerID   uint      `gorm:"not null" json:"reviewer_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Version PortfolioVersion      `gorm:"foreignKey:VersionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Scores  []PortfolioRubricScore `gorm:"foreignKey:EvaluationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"scores"`
}

// PortfolioRubricScore is one criterion row of an evaluation. Every
// evaluation carries exactly one row per fixed rubric criterion.
type PortfolioRubricScore struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	EvaluationID uint      `gorm:"not null;index" json:"evaluation_id"`
	Criterion    string    `gorm:"size:32;not null" json:"criterion"`
	Score        int       `gorm:"not null" json:"score"`
	MaxScore     int       `gorm:"not null" json:"max_score"`
	Comment      string    `gorm:"type:text" json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
}

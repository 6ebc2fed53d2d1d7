package models

import (
	"time"

	"gorm.io/datatypes"
)

// PortfolioSubmissionStatus enumerates the lifecycle states of a submission.
const (
	PortfolioStatusDraft     = "DRAFT"
	PortfolioStatusSubmitted = "SUBMITTED"
	PortfolioStatusReturned  = "RETURNED"
	PortfolioStatusGraded    = "GRADED"
)

// Artifact types describe where the submission content originates.
const (
	PortfolioArtifactEditor  = "editor"
	PortfolioArtifactArchive = "archive"
)

// PortfolioSubmission tracks one student's work on a portfolio task. Draft
// fields are mutable only while the submission is in DRAFT or RETURNED state;
// submitting locks them into an immutable PortfolioVersion.
type PortfolioSubmission struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	TaskID        uint           `gorm:"not null;index" json:"task_id"`
	StudentID     uint           `gorm:"not null;index" json:"student_id"`
	Status        string         `gorm:"size:16;not null;default:DRAFT" json:"status"`
	ArtifactType  string         `gorm:"size:16;not null;default:editor" json:"artifact_type"`
	DraftHTML     string         `gorm:"type:text" json:"draft_html"`
	DraftCSS      string         `gorm:"type:text" json:"draft_css"`
	DraftJS       string         `gorm:"type:text" json:"draft_js"`
	ArchivePath   string         `gorm:"size:512" json:"archive_path"`
	ArchiveMeta   datatypes.JSON `gorm:"type:json" json:"archive_meta"`
	LastVersionID *uint          `json:"last_version_id"`
	OverallScore  *int           `json:"overall_score"`
	ReviewerID    *uint          `json:"reviewer_id"`
	SubmittedAt   *time.Time     `json:"submitted_at"`
	ReturnedAt    *time.Time     `json:"returned_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	Task     PortfolioTask      `gorm:"foreignKey:TaskID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"task"`
	Student  Student            `gorm:"foreignKey:StudentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Versions []PortfolioVersion `gorm:"foreignKey:SubmissionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// DraftMutable reports whether the submission's draft fields may be edited.
func (s PortfolioSubmission) DraftMutable() bool {
	return s.Status == PortfolioStatusDraft || s.Status == PortfolioStatusReturned
}

// HasArtifact reports whether the declared artifact is complete enough to submit.
func (s PortfolioSubmission) HasArtifact() bool {
	if s.ArtifactType == PortfolioArtifactArchive {
		return s.ArchivePath != ""
	}
	return s.DraftHTML != ""
}

// PortfolioVersion is an immutable snapshot of a submission's draft taken at
// submit time. Rows are never updated after creation.
type PortfolioVersion struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SubmissionID uint           `gorm:"not null;index" json:"submission_id"`
	ArtifactType string         `gorm:"size:16;not null" json:"artifact_type"`
	HTML         string         `gorm:"type:text" json:"html"`
	CSS          string         `gorm:"type:text" json:"css"`
	JS           string         `gorm:"type:text" json:"js"`
	ArchivePath  string         `gorm:"size:512" json:"archive_path"`
	ArchiveMeta  datatypes.JSON `gorm:"type:json" json:"archive_meta"`
	LockedAt     time.Time      `gorm:"not null" json:"locked_at"`
	CreatedAt    time.Time      `json:"created_at"`
}

package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/seka-portal-api/internal/models"
)

// PortfolioTaskCreateRequest describes the payload for creating a task.
type PortfolioTaskCreateRequest struct {
	Title        string          `json:"title" validate:"required,min=3,max=255"`
	Description  string          `json:"description"`
	ClassLevel   string          `json:"class_level" validate:"required,max=32"`
	Tags         []string        `json:"tags" validate:"omitempty,dive,min=1"`
	Instructions json.RawMessage `json:"instructions"`
	Active       *bool           `json:"active"`
}

// PortfolioTaskUpdateRequest describes a partial task update.
type PortfolioTaskUpdateRequest struct {
	Title        *string         `json:"title" validate:"omitempty,min=3,max=255"`
	Description  *string         `json:"description"`
	ClassLevel   *string         `json:"class_level" validate:"omitempty,max=32"`
	Tags         []string        `json:"tags" validate:"omitempty,dive,min=1"`
	Instructions json.RawMessage `json:"instructions"`
	Active       *bool           `json:"active"`
}

// PortfolioTaskResponse is returned to API clients when viewing tasks.
type PortfolioTaskResponse struct {
	ID           uint            `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	ClassLevel   string          `json:"class_level"`
	Tags         []string        `json:"tags"`
	Instructions json.RawMessage `json:"instructions,omitempty"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewPortfolioTaskResponse converts a PortfolioTask model into a DTO.
func NewPortfolioTaskResponse(model models.PortfolioTask) PortfolioTaskResponse {
	return PortfolioTaskResponse{
		ID:           model.ID,
		Title:        model.Title,
		Description:  model.Description,
		ClassLevel:   model.ClassLevel,
		Tags:         model.TagsSlice(),
		Instructions: json.RawMessage(model.Instructions),
		Active:       model.Active,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewPortfolioTaskResponseSlice converts task models into DTOs.
func NewPortfolioTaskResponseSlice(tasks []models.PortfolioTask) []PortfolioTaskResponse {
	responses := make([]PortfolioTaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, NewPortfolioTaskResponse(task))
	}

	return responses
}

// PortfolioSubmissionCreateRequest opens a new draft for a task.
type PortfolioSubmissionCreateRequest struct {
	TaskID uint `json:"task_id" validate:"required,gt=0"`
}

// PortfolioDraftUpdateRequest mutates the editor draft of a submission.
type PortfolioDraftUpdateRequest struct {
	ArtifactType *string `json:"artifact_type" validate:"omitempty,oneof=editor archive"`
	HTML         *string `json:"html"`
	CSS          *string `json:"css"`
	JS           *string `json:"js"`
}

// PortfolioSubmissionFilter describes query string filters for listings.
type PortfolioSubmissionFilter struct {
	TaskID    *uint   `query:"task_id"`
	StudentID *uint   `query:"student_id"`
	Status    *string `query:"status" validate:"omitempty,oneof=DRAFT SUBMITTED RETURNED GRADED"`
}

// PortfolioVersionResponse summarises a locked version.
type PortfolioVersionResponse struct {
	ID           uint            `json:"id"`
	SubmissionID uint            `json:"submission_id"`
	ArtifactType string          `json:"artifact_type"`
	HTML         string          `json:"html,omitempty"`
	CSS          string          `json:"css,omitempty"`
	JS           string          `json:"js,omitempty"`
	ArchivePath  string          `json:"archive_path,omitempty"`
	ArchiveMeta  json.RawMessage `json:"archive_meta,omitempty"`
	LockedAt     time.Time       `json:"locked_at"`
}

// NewPortfolioVersionResponse converts a version model into a DTO.
func NewPortfolioVersionResponse(model models.PortfolioVersion) PortfolioVersionResponse {
	return PortfolioVersionResponse{
		ID:           model.ID,
		SubmissionID: model.SubmissionID,
		ArtifactType: model.ArtifactType,
		HTML:         model.HTML,
		CSS:          model.CSS,
		JS:           model.JS,
		ArchivePath:  model.ArchivePath,
		ArchiveMeta:  json.RawMessage(model.ArchiveMeta),
		LockedAt:     model.LockedAt,
	}
}

// PortfolioSubmissionResponse is returned when viewing submissions.
type PortfolioSubmissionResponse struct {
	ID            uint              `json:"id"`
	TaskID        uint              `json:"task_id"`
	StudentID     uint              `json:"student_id"`
	Status        string            `json:"status"`
	ArtifactType  string            `json:"artifact_type"`
	DraftHTML     string            `json:"draft_html,omitempty"`
	DraftCSS      string            `json:"draft_css,omitempty"`
	DraftJS       string            `json:"draft_js,omitempty"`
	ArchivePath   string            `json:"archive_path,omitempty"`
	ArchiveMeta   json.RawMessage   `json:"archive_meta,omitempty"`
	LastVersionID *uint             `json:"last_version_id"`
	OverallScore  *int              `json:"overall_score"`
	ReviewerID    *uint             `json:"reviewer_id"`
	SubmittedAt   *time.Time        `json:"submitted_at"`
	ReturnedAt    *time.Time        `json:"returned_at"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Task          PortfolioTaskLite `json:"task"`
	Student       StudentLite       `json:"student"`
}

// PortfolioTaskLite summarises a task in submission responses.
type PortfolioTaskLite struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	ClassLevel string `json:"class_level"`
}

// StudentLite summarises a student without exposing full profile data.
type StudentLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewPortfolioSubmissionResponse converts a submission model into a DTO.
func NewPortfolioSubmissionResponse(model models.PortfolioSubmission) PortfolioSubmissionResponse {
	response := PortfolioSubmissionResponse{
		ID:            model.ID,
		TaskID:        model.TaskID,
		StudentID:     model.StudentID,
		Status:        model.Status,
		ArtifactType:  model.ArtifactType,
		DraftHTML:     model.DraftHTML,
		DraftCSS:      model.DraftCSS,
		DraftJS:       model.DraftJS,
		ArchivePath:   model.ArchivePath,
		ArchiveMeta:   json.RawMessage(model.ArchiveMeta),
		LastVersionID: model.LastVersionID,
		OverallScore:  model.OverallScore,
		ReviewerID:    model.ReviewerID,
		SubmittedAt:   model.SubmittedAt,
		ReturnedAt:    model.ReturnedAt,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}

	if model.Task.ID != 0 {
		response.Task = PortfolioTaskLite{
			ID:         model.Task.ID,
			Title:      model.Task.Title,
			ClassLevel: model.Task.ClassLevel,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	return response
}

// NewPortfolioSubmissionResponseSlice converts submission models into DTOs.
func NewPortfolioSubmissionResponseSlice(submissions []models.PortfolioSubmission) []PortfolioSubmissionResponse {
	responses := make([]PortfolioSubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewPortfolioSubmissionResponse(submission))
	}

	return responses
}

// PortfolioSubmitResponse is the result of a submit transition.
type PortfolioSubmitResponse struct {
	Submission PortfolioSubmissionResponse `json:"submission"`
	Version    PortfolioVersionResponse    `json:"version"`
}

// RubricScoreInput is one criterion score supplied by a reviewer.
type RubricScoreInput struct {
	Criterion string  `json:"criterion" validate:"required"`
	Score     float64 `json:"score"`
	Comment   string  `json:"comment"`
}

// PortfolioEvaluateRequest is the admin grading payload.
type PortfolioEvaluateRequest struct {
	Status      string             `json:"status" validate:"required,oneof=GRADED RETURNED"`
	VersionID   *uint              `json:"version_id" validate:"omitempty,gt=0"`
	OverallNote string             `json:"overall_note"`
	Scores      []RubricScoreInput `json:"scores" validate:"omitempty,dive"`
}

// RubricScoreResponse serialises one rubric row.
type RubricScoreResponse struct {
	Criterion string `json:"criterion"`
	Score     int    `json:"score"`
	MaxScore  int    `json:"max_score"`
	Comment   string `json:"comment,omitempty"`
}

// PortfolioEvaluationResponse is returned after grading.
type PortfolioEvaluationResponse struct {
	ID           uint                  `json:"id"`
	VersionID    uint                  `json:"version_id"`
	OverallScore int                   `json:"overall_score"`
	Note         string                `json:"note,omitempty"`
	Status       string                `json:"status"`
	ReviewerID   uint                  `json:"reviewer_id"`
	Scores       []RubricScoreResponse `json:"scores"`
	CreatedAt    time.Time             `json:"created_at"`
}

// NewPortfolioEvaluationResponse converts an evaluation model into a DTO.
func NewPortfolioEvaluationResponse(model models.PortfolioEvaluation) PortfolioEvaluationResponse {
	scores := make([]RubricScoreResponse, 0, len(model.Scores))
	for _, score := range model.Scores {
		scores = append(scores, RubricScoreResponse{
			Criterion: score.Criterion,
			Score:     score.Score,
			MaxScore:  score.MaxScore,
			Comment:   score.Comment,
		})
	}

	return PortfolioEvaluationResponse{
		ID:           model.ID,
		VersionID:    model.VersionID,
		OverallScore: model.OverallScore,
		Note:         model.Note,
		Status:       model.Status,
		ReviewerID:   model.ReviewerID,
		Scores:       scores,
		CreatedAt:    model.CreatedAt,
	}
}

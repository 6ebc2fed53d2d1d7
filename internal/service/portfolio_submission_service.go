package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/seka-portal-api/internal/archive"
	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/models"
	"github.com/noah-isme/seka-portal-api/internal/observability"
	"github.com/noah-isme/seka-portal-api/internal/repository"
)

var (
	// ErrSubmissionNotFound indicates the referenced submission does not exist.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrVersionNotFound indicates the referenced version does not exist.
	ErrVersionNotFound = errors.New("submission version not found")
	// ErrNotOwner indicates the actor does not own the submission.
	ErrNotOwner = errors.New("submission belongs to another student")
	// ErrSubmissionLocked indicates a draft mutation on a locked submission.
	ErrSubmissionLocked = errors.New("submission is locked for editing")
	// ErrArtifactIncomplete indicates a submit without a complete artifact.
	ErrArtifactIncomplete = errors.New("submission has no content to submit")
	// ErrUploadTooLarge indicates the uploaded archive exceeds the size limit.
	ErrUploadTooLarge = errors.New("uploaded archive exceeds the size limit")
	// ErrTaskInactive indicates a new submission against a deactivated task.
	ErrTaskInactive = errors.New("portfolio task is not accepting submissions")
)

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	UserID uint
	Role   string
}

func (a Actor) isStaff() bool {
	return a.Role == models.RoleTeacher || a.Role == models.RoleAdmin
}

// PortfolioSubmissionService manages submission drafts and the lock-on-submit
// lifecycle.
type PortfolioSubmissionService interface {
	Create(ctx context.Context, actor Actor, req dto.PortfolioSubmissionCreateRequest) (dto.PortfolioSubmissionResponse, error)
	List(ctx context.Context, actor Actor, filter dto.PortfolioSubmissionFilter) ([]dto.PortfolioSubmissionResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.PortfolioSubmissionResponse, error)
	UpdateDraft(ctx context.Context, actor Actor, id uint, req dto.PortfolioDraftUpdateRequest) (dto.PortfolioSubmissionResponse, error)
	UploadArchive(ctx context.Context, actor Actor, id uint, fileName string, data []byte) (dto.PortfolioSubmissionResponse, error)
	Submit(ctx context.Context, actor Actor, id uint) (dto.PortfolioSubmitResponse, error)
	Preview(ctx context.Context, actor Actor, id uint) (string, error)
	Versions(ctx context.Context, actor Actor, id uint) ([]dto.PortfolioVersionResponse, error)
}

type portfolioSubmissionService struct {
	submissions    repository.PortfolioSubmissionRepository
	tasks          repository.PortfolioTaskRepository
	storage        FileStorage
	validator      *validator.Validate
	uploadMaxBytes int64
	logger         zerolog.Logger
}

// NewPortfolioSubmissionService wires the submission service.
func NewPortfolioSubmissionService(
	submissions repository.PortfolioSubmissionRepository,
	tasks repository.PortfolioTaskRepository,
	storage FileStorage,
	validate *validator.Validate,
	uploadMaxBytes int64,
	logger zerolog.Logger,
) PortfolioSubmissionService {
	return &portfolioSubmissionService{
		submissions:    submissions,
		tasks:          tasks,
		storage:        storage,
		validator:      validate,
		uploadMaxBytes: uploadMaxBytes,
		logger:         logger.With().Str("component", "portfolio_submission_service").Logger(),
	}
}

// Create opens a draft for the task, or returns the student's existing
// submission for it. One submission per (student, task).
func (s *portfolioSubmissionService) Create(ctx context.Context, actor Actor, req dto.PortfolioSubmissionCreateRequest) (dto.PortfolioSubmissionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.PortfolioSubmissionResponse{}, err
	}

	task, err := s.tasks.GetByID(ctx, req.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PortfolioSubmissionResponse{}, ErrTaskNotFound
		}
		return dto.PortfolioSubmissionResponse{}, fmt.Errorf("failed to load task: %w", err)
	}

	if !task.Active {
		return dto.PortfolioSubmissionResponse{}, ErrTaskInactive
	}

	existing, err := s.submissions.GetByTaskAndStudent(ctx, req.TaskID, actor.UserID)
	if err == nil {
		return dto.NewPortfolioSubmissionResponse(existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.PortfolioSubmissionResponse{}, fmt.Errorf("failed to check existing submission: %w", err)
	}

	submission := models.PortfolioSubmission{
		TaskID:       req.TaskID,
		StudentID:    actor.UserID,
		Status:       models.PortfolioStatusDraft,
		ArtifactType: models.PortfolioArtifactEditor,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.PortfolioSubmissionResponse{}, fmt.Errorf("failed to create submission: %w", err)
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("task_id", req.TaskID).
		Uint("student_id", actor.UserID).
		Msg("portfolio draft opened")

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.NewPortfolioSubmissionResponse(submission), nil
	}

	return dto.NewPortfolioSubmissionResponse(created), nil
}

func (s *portfolioSubmissionService) List(ctx context.Context, actor Actor, filter dto.PortfolioSubmissionFilter) ([]dto.PortfolioSubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.PortfolioSubmissionFilter{
		TaskID:    filter.TaskID,
		StudentID: filter.StudentID,
		Status:    filter.Status,
	}

	// Students only ever see their own submissions.
	if !actor.isStaff() {
		studentID := actor.UserID
		repoFilter.StudentID = &studentID
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return dto.NewPortfolioSubmissionResponseSlice(submissions), nil
}

func (s *portfolioSubmissionService) Get(ctx context.Context, actor Actor, id uint) (dto.PortfolioSubmissionResponse, error) {
	submission, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return dto.PortfolioSubmissionResponse{}, err
	}

	return dto.NewPortfolioSubmissionResponse(submission), nil
}

func (s *portfolioSubmissionService) UpdateDraft(ctx context.Context, actor Actor, id uint, req dto.PortfolioDraftUpdateRequest) (dto.PortfolioSubmissionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.PortfolioSubmissionResponse{}, err
	}

	submission, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return dto.PortfolioSubmissionResponse{}, err
	}

	if !submission.DraftMutable() {
		return dto.PortfolioSubmissionResponse{}, ErrSubmissionLocked
	}

	update := repository.DraftUpdate{
		ArtifactType: submission.ArtifactType,
		HTML:         submission.DraftHTML,
		CSS:          submission.DraftCSS,
		JS:           submission.DraftJS,
		ArchivePath:  submission.ArchivePath,
		ArchiveMeta:  []byte(submission.ArchiveMeta),
	}

	if req.ArtifactType != nil {
		update.ArtifactType = *req.ArtifactType
	}
	if req.HTML != nil {
		update.HTML = *req.HTML
	}
	if req.CSS != nil {
		update.CSS = *req.CSS
	}
	if req.JS != nil {
		update.JS = *req.JS
	}

	if len(update.HTML) > archive.MaxContentChars ||
		len(update.CSS) > archive.MaxContentChars ||
		len(update.JS) > archive.MaxContentChars {
		return dto.PortfolioSubmissionResponse{}, archive.ErrContentTooLarge
	}

	if err := s.submissions.UpdateDraft(ctx, id, update); err != nil {
		return dto.PortfolioSubmissionResponse{}, fmt.Errorf("failed to update draft: %w", err)
	}

	updated, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return dto.PortfolioSubmissionResponse{}, fmt.Errorf("failed to reload submission: %w", err)
	}

	return dto.NewPortfolioSubmissionResponse(updated), nil
}

// UploadArchive validates and ingests a zip archive: the decode must succeed
// completely before anything is persisted, so a rejected archive never leaves
// a half-written draft.
func (s *portfolioSubmissionService) UploadArchive(ctx context.Context, actor Actor, id uint, fileName string, data []byte) (dto.PortfolioSubmissionResponse, error) {
	submission, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return dto.PortfolioSubmissionResponse{}, err
	}

	if !submission.DraftMutable() {
		return dto.PortfolioSubmissionResponse{}, ErrSubmissionLocked
	}

	if int64(len(data)) > s.uploadMaxBytes {
		observability.ArchiveRejected().WithLabelValues("too_large").Inc()
		return dto.PortfolioSubmissionResponse{}, ErrUploadTooLarge
	}

	if detected := mimetype.Detect(data); !detected.Is("application/zip") {
		observability.ArchiveRejected().WithLabelValues("not_zip").Inc()
		return dto.PortfolioSubmissionResponse{}, archive.ErrInvalidArchive
	}

	content, err := archive.Decode(data)
	if err != nil {
		observability.ArchiveRejected().WithLabelValues(archiveRejectReason(err)).Inc()
		return dto.PortfolioSubmissionResponse{}, err
	}

	storedName := fmt.Sprintf("portfolio/submissions/%d/%s", id, fileName)
	archivePath, err := s.storage.Save(ctx, storedName, bytes.NewReader(data))
	if err != nil {
		return dto.PortfolioSubmissionResponse{}, fmt.Errorf("failed to store archive: %w", err)
	}

	meta, err := json.Marshal(archive.Metadata{
		Entries:    content.Manifest,
		SizeBytes:  int64(len(data)),
		UploadedAt: time.Now().UTC(),
	})
	if err != nil {
		return dto.PortfolioSubmissionResponse{}, fmt.Errorf("failed to encode archive metadata: %w", err)
	}

	update := repository.DraftUpdate{
		ArtifactType: models.PortfolioArtifactArchive,
		HTML:         content.HTML,
		CSS:          content.CSS,
		JS:           content.JS,
		ArchivePath:  archivePath,
		ArchiveMeta:  meta,
	}

	if err := s.submissions.UpdateDraft(ctx, id, update); err != nil {
		return dto.PortfolioSubmissionResponse{}, fmt.Errorf("failed to persist archive draft: %w", err)
	}

	s.logger.Info().
		Uint("submission_id", id).
		Int("entries", len(content.Manifest)).
		Int("size_bytes", len(data)).
		Msg("portfolio archive ingested")

	updated, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return dto.PortfolioSubmissionResponse{}, fmt.Errorf("failed to reload submission: %w", err)
	}

	return dto.NewPortfolioSubmissionResponse(updated), nil
}

// Submit locks the current draft into a new immutable version and moves the
// submission to SUBMITTED. Concurrent duplicate submits lose the guarded
// update and surface as a state conflict.
func (s *portfolioSubmissionService) Submit(ctx context.Context, actor Actor, id uint) (dto.PortfolioSubmitResponse, error) {
	submission, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return dto.PortfolioSubmitResponse{}, err
	}

	if !submission.DraftMutable() {
		return dto.PortfolioSubmitResponse{}, repository.ErrStateConflict
	}

	if !submission.HasArtifact() {
		return dto.PortfolioSubmitResponse{}, ErrArtifactIncomplete
	}

	// Snapshot fields are filled inside the transaction from the row as it
	// stands at claim time.
	var version models.PortfolioVersion

	if err := s.submissions.Submit(ctx, id, &version, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			observability.SubmissionTransitions().WithLabelValues("submit_conflict").Inc()
			return dto.PortfolioSubmitResponse{}, err
		}
		return dto.PortfolioSubmitResponse{}, fmt.Errorf("failed to submit: %w", err)
	}

	observability.SubmissionTransitions().WithLabelValues("submitted").Inc()

	s.logger.Info().
		Uint("submission_id", id).
		Uint("version_id", version.ID).
		Msg("submission locked")

	updated, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return dto.PortfolioSubmitResponse{}, fmt.Errorf("failed to reload submission: %w", err)
	}

	return dto.PortfolioSubmitResponse{
		Submission: dto.NewPortfolioSubmissionResponse(updated),
		Version:    dto.NewPortfolioVersionResponse(version),
	}, nil
}

// Preview renders the submission's current draft as a sandboxed document.
func (s *portfolioSubmissionService) Preview(ctx context.Context, actor Actor, id uint) (string, error) {
	submission, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return "", err
	}

	return BuildPreview(submission.DraftHTML, submission.DraftCSS, submission.DraftJS), nil
}

func (s *portfolioSubmissionService) Versions(ctx context.Context, actor Actor, id uint) ([]dto.PortfolioVersionResponse, error) {
	if _, err := s.loadOwned(ctx, actor, id); err != nil {
		return nil, err
	}

	versions, err := s.submissions.ListVersions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}

	responses := make([]dto.PortfolioVersionResponse, 0, len(versions))
	for _, version := range versions {
		responses = append(responses, dto.NewPortfolioVersionResponse(version))
	}

	return responses, nil
}

// loadOwned fetches the submission and enforces ownership: students may only
// touch their own submissions, staff may touch any.
func (s *portfolioSubmissionService) loadOwned(ctx context.Context, actor Actor, id uint) (models.PortfolioSubmission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.PortfolioSubmission{}, ErrSubmissionNotFound
		}
		return models.PortfolioSubmission{}, fmt.Errorf("failed to load submission: %w", err)
	}

	if !actor.isStaff() && submission.StudentID != actor.UserID {
		return models.PortfolioSubmission{}, ErrNotOwner
	}

	return submission, nil
}

func archiveRejectReason(err error) string {
	switch {
	case errors.Is(err, archive.ErrUnsafeEntry):
		return "unsafe_entry"
	case errors.Is(err, archive.ErrDisallowedEntry):
		return "disallowed_entry"
	case errors.Is(err, archive.ErrMissingIndex):
		return "missing_index"
	case errors.Is(err, archive.ErrContentTooLarge):
		return "content_too_large"
	default:
		return "invalid"
	}
}

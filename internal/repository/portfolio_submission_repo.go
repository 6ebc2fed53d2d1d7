package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/seka-portal-api/internal/models"
)

// ErrStateConflict is returned when a guarded state transition matches no row,
// i.e. the submission was not in an eligible state at commit time.
var ErrStateConflict = errors.New("submission state conflict")

// PortfolioSubmissionFilter narrows submission listings.
type PortfolioSubmissionFilter struct {
	TaskID    *uint
	StudentID *uint
	Status    *string
}

// DraftUpdate carries the draft columns overwritten in a single statement so
// a failed ingestion can never leave a half-written draft behind.
type DraftUpdate struct {
	ArtifactType string
	HTML         string
	CSS          string
	JS           string
	ArchivePath  string
	ArchiveMeta  []byte
}

// PortfolioSubmissionRepository defines data operations for submissions and
// their locked versions.
type PortfolioSubmissionRepository interface {
	List(ctx context.Context, filter PortfolioSubmissionFilter) ([]models.PortfolioSubmission, error)
	GetByID(ctx context.Context, id uint) (models.PortfolioSubmission, error)
	GetByTaskAndStudent(ctx context.Context, taskID, studentID uint) (models.PortfolioSubmission, error)
	Create(ctx context.Context, submission *models.PortfolioSubmission) error
	UpdateDraft(ctx context.Context, id uint, update DraftUpdate) error
	Submit(ctx context.Context, id uint, version *models.PortfolioVersion, now time.Time) error
	GetVersionByID(ctx context.Context, id uint) (models.PortfolioVersion, error)
	ListVersions(ctx context.Context, submissionID uint) ([]models.PortfolioVersion, error)
}

type portfolioSubmissionRepository struct {
	db *gorm.DB
}

// NewPortfolioSubmissionRepository instantiates the repository.
func NewPortfolioSubmissionRepository(db *gorm.DB) PortfolioSubmissionRepository {
	return &portfolioSubmissionRepository{db: db}
}

func (r *portfolioSubmissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.PortfolioSubmission{}).
		Preload("Task").
		Preload("Student")
}

func (r *portfolioSubmissionRepository) List(ctx context.Context, filter PortfolioSubmissionFilter) ([]models.PortfolioSubmission, error) {
	query := r.baseQuery(ctx)

	if filter.TaskID != nil {
		query = query.Where("task_id = ?", *filter.TaskID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var submissions []models.PortfolioSubmission
	if err := query.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *portfolioSubmissionRepository) GetByID(ctx context.Context, id uint) (models.PortfolioSubmission, error) {
	var submission models.PortfolioSubmission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.PortfolioSubmission{}, err
	}

	return submission, nil
}

func (r *portfolioSubmissionRepository) GetByTaskAndStudent(ctx context.Context, taskID, studentID uint) (models.PortfolioSubmission, error) {
	var submission models.PortfolioSubmission
	if err := r.baseQuery(ctx).
		Where("task_id = ?", taskID).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		First(&submission).Error; err != nil {
		return models.PortfolioSubmission{}, err
	}

	return submission, nil
}

func (r *portfolioSubmissionRepository) Create(ctx context.Context, submission *models.PortfolioSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *portfolioSubmissionRepository) UpdateDraft(ctx context.Context, id uint, update DraftUpdate) error {
	columns := map[string]interface{}{
		"artifact_type": update.ArtifactType,
		"draft_html":    update.HTML,
		"draft_css":     update.CSS,
		"draft_js":      update.JS,
		"archive_path":  update.ArchivePath,
		"archive_meta":  update.ArchiveMeta,
	}

	return r.db.WithContext(ctx).
		Model(&models.PortfolioSubmission{}).
		Where("id = ?", id).
		Updates(columns).Error
}

// Submit performs the lock-on-submit transition in one transaction: a guarded
// status update claims the submission (the rows-affected check rejects a
// concurrent duplicate submit), the draft columns are re-read inside the
// transaction so the snapshot cannot trail a concurrent edit, then the version
// is inserted and the last-version pointer advanced.
func (r *portfolioSubmissionRepository) Submit(ctx context.Context, id uint, version *models.PortfolioVersion, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim := tx.Model(&models.PortfolioSubmission{}).
			Where("id = ? AND status IN ?", id, []string{models.PortfolioStatusDraft, models.PortfolioStatusReturned}).
			Updates(map[string]interface{}{
				"status":        models.PortfolioStatusSubmitted,
				"submitted_at":  now,
				"returned_at":   nil,
				"overall_score": nil,
				"reviewer_id":   nil,
			})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return ErrStateConflict
		}

		var current models.PortfolioSubmission
		if err := tx.First(&current, id).Error; err != nil {
			return err
		}

		version.SubmissionID = id
		version.ArtifactType = current.ArtifactType
		version.HTML = current.DraftHTML
		version.CSS = current.DraftCSS
		version.JS = current.DraftJS
		version.ArchivePath = current.ArchivePath
		version.ArchiveMeta = current.ArchiveMeta
		version.LockedAt = now
		if err := tx.Create(version).Error; err != nil {
			return err
		}

		return tx.Model(&models.PortfolioSubmission{}).
			Where("id = ?", id).
			Update("last_version_id", version.ID).Error
	})
}

func (r *portfolioSubmissionRepository) GetVersionByID(ctx context.Context, id uint) (models.PortfolioVersion, error) {
	var version models.PortfolioVersion
	if err := r.db.WithContext(ctx).First(&version, id).Error; err != nil {
		return models.PortfolioVersion{}, err
	}

	return version, nil
}

func (r *portfolioSubmissionRepository) ListVersions(ctx context.Context, submissionID uint) ([]models.PortfolioVersion, error) {
	var versions []models.PortfolioVersion
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("locked_at DESC").
		Find(&versions).Error; err != nil {
		return nil, err
	}

	return versions, nil
}

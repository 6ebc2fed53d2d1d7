package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/seka-portal-api/internal/models"
)

// PortfolioEvaluationRepository defines data operations for evaluations and
// their rubric score rows.
type PortfolioEvaluationRepository interface {
	GetByVersionID(ctx context.Context, versionID uint) (models.PortfolioEvaluation, error)
	ReplaceForVersion(ctx context.Context, evaluation *models.PortfolioEvaluation, scores []models.PortfolioRubricScore, submission *models.PortfolioSubmission) error
}

type portfolioEvaluationRepository struct {
	db *gorm.DB
}

// NewPortfolioEvaluationRepository instantiates the repository.
func NewPortfolioEvaluationRepository(db *gorm.DB) PortfolioEvaluationRepository {
	return &portfolioEvaluationRepository{db: db}
}

func (r *portfolioEvaluationRepository) GetByVersionID(ctx context.Context, versionID uint) (models.PortfolioEvaluation, error) {
	var evaluation models.PortfolioEvaluation
	if err := r.db.WithContext(ctx).
		Preload("Scores").
		Where("version_id = ?", versionID).
		First(&evaluation).Error; err != nil {
		return models.PortfolioEvaluation{}, err
	}

	return evaluation, nil
}

// ReplaceForVersion atomically swaps the evaluation for a version: any prior
// evaluation and its rubric rows are deleted, the new rows inserted and the
// submission's grading fields updated — all or nothing.
func (r *portfolioEvaluationRepository) ReplaceForVersion(ctx context.Context, evaluation *models.PortfolioEvaluation, scores []models.PortfolioRubricScore, submission *models.PortfolioSubmission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.PortfolioEvaluation
		err := tx.Where("version_id = ?", evaluation.VersionID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Where("evaluation_id = ?", existing.ID).Delete(&models.PortfolioRubricScore{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// First evaluation for this version.
		default:
			return err
		}

		if err := tx.Create(evaluation).Error; err != nil {
			return err
		}

		for i := range scores {
			scores[i].EvaluationID = evaluation.ID
		}
		if err := tx.Create(&scores).Error; err != nil {
			return err
		}

		return tx.Model(&models.PortfolioSubmission{}).
			Where("id = ?", submission.ID).
			Updates(map[string]interface{}{
				"status":        submission.Status,
				"overall_score": submission.OverallScore,
				"reviewer_id":   submission.ReviewerID,
				"returned_at":   submission.ReturnedAt,
			}).Error
	})
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/seka-portal-api/internal/models"
)

// PortfolioTaskFilter narrows task listings.
type PortfolioTaskFilter struct {
	ClassLevel *string
	Active     *bool
}

// PortfolioTaskRepository defines data operations for portfolio tasks.
type PortfolioTaskRepository interface {
	List(ctx context.Context, filter PortfolioTaskFilter) ([]models.PortfolioTask, error)
	GetByID(ctx context.Context, id uint) (models.PortfolioTask, error)
	Create(ctx context.Context, task *models.PortfolioTask) error
	Update(ctx context.Context, task *models.PortfolioTask) error
	Delete(ctx context.Context, id uint) error
}

type portfolioTaskRepository struct {
	db *gorm.DB
}

// NewPortfolioTaskRepository instantiates the repository.
func NewPortfolioTaskRepository(db *gorm.DB) PortfolioTaskRepository {
	return &portfolioTaskRepository{db: db}
}

func (r *portfolioTaskRepository) List(ctx context.Context, filter PortfolioTaskFilter) ([]models.PortfolioTask, error) {
	query := r.db.WithContext(ctx).Model(&models.PortfolioTask{})

	if filter.ClassLevel != nil {
		query = query.Where("class_level = ?", *filter.ClassLevel)
	}

	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}

	var tasks []models.PortfolioTask
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *portfolioTaskRepository) GetByID(ctx context.Context, id uint) (models.PortfolioTask, error) {
	var task models.PortfolioTask
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return models.PortfolioTask{}, err
	}

	return task, nil
}

func (r *portfolioTaskRepository) Create(ctx context.Context, task *models.PortfolioTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *portfolioTaskRepository) Update(ctx context.Context, task *models.PortfolioTask) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *portfolioTaskRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.PortfolioTask{}, id).Error
}

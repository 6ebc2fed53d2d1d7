package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/seka-portal-api/internal/models"
)

// AnnouncementFilter narrows announcement listings.
type AnnouncementFilter struct {
	Page          int
	PageSize      int
	PublishedOnly bool
}

// AnnouncementRepository defines data operations for announcements.
type AnnouncementRepository interface {
	List(ctx context.Context, filter AnnouncementFilter) ([]models.Announcement, int64, error)
	GetByID(ctx context.Context, id uint) (models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id uint) error
	Publish(ctx context.Context, id uint, at time.Time) (models.Announcement, error)
}

type announcementRepository struct {
	db *gorm.DB
}

// NewAnnouncementRepository instantiates the repository.
func NewAnnouncementRepository(db *gorm.DB) AnnouncementRepository {
	return &announcementRepository{db: db}
}

func (r *announcementRepository) List(ctx context.Context, filter AnnouncementFilter) ([]models.Announcement, int64, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	query := r.db.WithContext(ctx).Model(&models.Announcement{})
	if filter.PublishedOnly {
		query = query.Where("published = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Announcement
	if err := query.
		Order("is_pinned DESC, created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *announcementRepository) GetByID(ctx context.Context, id uint) (models.Announcement, error) {
	var announcement models.Announcement
	if err := r.db.WithContext(ctx).First(&announcement, id).Error; err != nil {
		return models.Announcement{}, err
	}

	return announcement, nil
}

func (r *announcementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	return r.db.WithContext(ctx).Create(announcement).Error
}

func (r *announcementRepository) Update(ctx context.Context, announcement *models.Announcement) error {
	return r.db.WithContext(ctx).Save(announcement).Error
}

func (r *announcementRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Announcement{}, id).Error
}

func (r *announcementRepository) Publish(ctx context.Context, id uint, at time.Time) (models.Announcement, error) {
	var announcement models.Announcement
	if err := r.db.WithContext(ctx).First(&announcement, id).Error; err != nil {
		return models.Announcement{}, err
	}

	announcement.Published = true
	announcement.PublishedAt = &at
	if err := r.db.WithContext(ctx).Save(&announcement).Error; err != nil {
		return models.Announcement{}, err
	}

	return announcement, nil
}

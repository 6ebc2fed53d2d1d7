package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/seka-portal-api/internal/models"
)

// ChatRepository defines data operations for chat messages.
type ChatRepository interface {
	Save(ctx context.Context, message *models.ChatMessage) error
	ListRecent(ctx context.Context, before time.Time, limit int) ([]models.ChatMessage, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository instantiates the repository.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Save(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *chatRepository) ListRecent(ctx context.Context, before time.Time, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Model(&models.ChatMessage{})
	if !before.IsZero() {
		query = query.Where("created_at < ?", before)
	}

	var messages []models.ChatMessage
	if err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, err
	}

	return messages, nil
}

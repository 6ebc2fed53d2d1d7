package dto

import (
	"time"

	"github.com/noah-isme/seka-portal-api/internal/models"
)

// AnnouncementCreateRequest creates a new announcement draft.
type AnnouncementCreateRequest struct {
	Title    string `json:"title" validate:"required,min=3,max=255"`
	Body     string `json:"body" validate:"required"`
	Audience string `json:"audience" validate:"omitempty,oneof=all students teachers"`
	IsPinned bool   `json:"is_pinned"`
}

// AnnouncementUpdateRequest partially updates an announcement.
type AnnouncementUpdateRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=3,max=255"`
	Body     *string `json:"body"`
	Audience *string `json:"audience" validate:"omitempty,oneof=all students teachers"`
	IsPinned *bool   `json:"is_pinned"`
}

// AnnouncementResponse serialises an announcement.
type AnnouncementResponse struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Audience    string     `json:"audience"`
	IsPinned    bool       `json:"is_pinned"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewAnnouncementResponse converts an announcement model into a DTO.
func NewAnnouncementResponse(model models.Announcement) AnnouncementResponse {
	return AnnouncementResponse{
		ID:          model.ID,
		Title:       model.Title,
		Body:        model.Body,
		Audience:    model.Audience,
		IsPinned:    model.IsPinned,
		Published:   model.Published,
		PublishedAt: model.PublishedAt,
		CreatedAt:   model.CreatedAt,
	}
}

// PaginationMeta describes list pagination.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// AnnouncementListResponse wraps a paginated announcement listing.
type AnnouncementListResponse struct {
	Items      []AnnouncementResponse `json:"items"`
	Pagination PaginationMeta         `json:"pagination"`
	CacheHit   bool                   `json:"cache_hit"`
}

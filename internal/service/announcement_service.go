package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/models"
	"github.com/noah-isme/seka-portal-api/internal/repository"
)

// EventAnnouncement is the stream frame type for published announcements.
const EventAnnouncement = "announcement"

// ErrAnnouncementNotFound indicates the announcement does not exist.
var ErrAnnouncementNotFound = errors.New("announcement not found")

// AnnouncementService manages community announcements. The public published
// listing is cached in Redis and the cache is invalidated on every write.
type AnnouncementService interface {
	List(ctx context.Context, page, pageSize int, publishedOnly bool) (dto.AnnouncementListResponse, error)
	Get(ctx context.Context, id uint) (dto.AnnouncementResponse, error)
	Create(ctx context.Context, req dto.AnnouncementCreateRequest) (dto.AnnouncementResponse, error)
	Update(ctx context.Context, id uint, req dto.AnnouncementUpdateRequest) (dto.AnnouncementResponse, error)
	Delete(ctx context.Context, id uint) error
	Publish(ctx context.Context, id uint) (dto.AnnouncementResponse, error)
}

type announcementService struct {
	announcements repository.AnnouncementRepository
	cache         *redis.Client
	cacheTTL      time.Duration
	notifier      NotificationService
	validator     *validator.Validate
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
}

// NewAnnouncementService wires the announcement service. cache may be nil,
// in which case every listing hits the database.
func NewAnnouncementService(
	announcements repository.AnnouncementRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	notifier NotificationService,
	validate *validator.Validate,
	logger zerolog.Logger,
) AnnouncementService {
	return &announcementService{
		announcements: announcements,
		cache:         cache,
		cacheTTL:      cacheTTL,
		notifier:      notifier,
		validator:     validate,
		sanitizer:     bluemonday.UGCPolicy(),
		logger:        logger.With().Str("component", "announcement_service").Logger(),
	}
}

func (s *announcementService) List(ctx context.Context, page, pageSize int, publishedOnly bool) (dto.AnnouncementListResponse, error) {
	// Normalize before deriving the cache key so page=0 and page=1 share one entry.
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	cacheKey := ""
	if publishedOnly && s.cache != nil {
		cacheKey = fmt.Sprintf("announcements:published:%d:%d", page, pageSize)
		if cached, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var response dto.AnnouncementListResponse
			if err := json.Unmarshal(cached, &response); err == nil {
				response.CacheHit = true
				return response, nil
			}
		}
	}

	items, total, err := s.announcements.List(ctx, repository.AnnouncementFilter{
		Page:          page,
		PageSize:      pageSize,
		PublishedOnly: publishedOnly,
	})
	if err != nil {
		return dto.AnnouncementListResponse{}, fmt.Errorf("failed to list announcements: %w", err)
	}

	responses := make([]dto.AnnouncementResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, dto.NewAnnouncementResponse(item))
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	response := dto.AnnouncementListResponse{
		Items: responses,
		Pagination: dto.PaginationMeta{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: totalPages,
		},
	}

	if cacheKey != "" {
		if encoded, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, encoded, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache announcement listing")
			}
		}
	}

	return response, nil
}

func (s *announcementService) Get(ctx context.Context, id uint) (dto.AnnouncementResponse, error) {
	announcement, err := s.announcements.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnnouncementResponse{}, ErrAnnouncementNotFound
		}
		return dto.AnnouncementResponse{}, fmt.Errorf("failed to load announcement: %w", err)
	}

	return dto.NewAnnouncementResponse(announcement), nil
}

func (s *announcementService) Create(ctx context.Context, req dto.AnnouncementCreateRequest) (dto.AnnouncementResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	audience := req.Audience
	if audience == "" {
		audience = "all"
	}

	announcement := models.Announcement{
		Title:    req.Title,
		Body:     s.sanitizer.Sanitize(req.Body),
		Audience: audience,
		IsPinned: req.IsPinned,
	}

	if err := s.announcements.Create(ctx, &announcement); err != nil {
		return dto.AnnouncementResponse{}, fmt.Errorf("failed to create announcement: %w", err)
	}

	s.invalidateCache(ctx)

	return dto.NewAnnouncementResponse(announcement), nil
}

func (s *announcementService) Update(ctx context.Context, id uint, req dto.AnnouncementUpdateRequest) (dto.AnnouncementResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	announcement, err := s.announcements.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnnouncementResponse{}, ErrAnnouncementNotFound
		}
		return dto.AnnouncementResponse{}, fmt.Errorf("failed to load announcement: %w", err)
	}

	if req.Title != nil {
		announcement.Title = *req.Title
	}
	if req.Body != nil {
		announcement.Body = s.sanitizer.Sanitize(*req.Body)
	}
	if req.Audience != nil {
		announcement.Audience = *req.Audience
	}
	if req.IsPinned != nil {
		announcement.IsPinned = *req.IsPinned
	}

	if err := s.announcements.Update(ctx, &announcement); err != nil {
		return dto.AnnouncementResponse{}, fmt.Errorf("failed to update announcement: %w", err)
	}

	s.invalidateCache(ctx)

	return dto.NewAnnouncementResponse(announcement), nil
}

func (s *announcementService) Delete(ctx context.Context, id uint) error {
	if _, err := s.announcements.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAnnouncementNotFound
		}
		return fmt.Errorf("failed to load announcement: %w", err)
	}

	if err := s.announcements.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}

	s.invalidateCache(ctx)

	return nil
}

// Publish marks the announcement live and pushes a community-wide
// notification. Notification failure never fails the publish.
func (s *announcementService) Publish(ctx context.Context, id uint) (dto.AnnouncementResponse, error) {
	announcement, err := s.announcements.Publish(ctx, id, time.Now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnnouncementResponse{}, ErrAnnouncementNotFound
		}
		return dto.AnnouncementResponse{}, fmt.Errorf("failed to publish announcement: %w", err)
	}

	s.invalidateCache(ctx)

	if s.notifier != nil {
		if _, err := s.notifier.Publish(ctx, dto.NotificationCreateRequest{
			Type:    EventAnnouncement,
			Message: announcement.Title,
		}); err != nil {
			s.logger.Warn().Err(err).Uint("announcement_id", id).Msg("failed to broadcast announcement")
		}
	}

	s.logger.Info().Uint("announcement_id", id).Msg("announcement published")

	return dto.NewAnnouncementResponse(announcement), nil
}

func (s *announcementService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}

	iter := s.cache.Scan(ctx, 0, "announcements:published:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.cache.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate announcement cache entry")
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("announcement cache invalidation scan failed")
	}
}

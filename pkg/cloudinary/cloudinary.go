package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service stores uploaded archives in Cloudinary and returns secure URLs.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: cfg.Folder,
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Save sends the file to Cloudinary and returns a secure URL.
func (s *Service) Save(ctx context.Context, name string, reader io.Reader) (string, error) {
	folder := strings.Trim(s.folder, "/")
	publicID := buildPublicID(name)

	params := uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: "auto",
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload archive: %w", err)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("archive uploaded to cloudinary")

	return result.SecureURL, nil
}

// buildPublicID keeps the directory component of the requested name as
// Cloudinary folders so stored archives stay keyed by submission.
func buildPublicID(name string) string {
	trimmed := strings.TrimSuffix(name, filepath.Ext(name))
	segments := strings.Split(path.Clean(filepath.ToSlash(trimmed)), "/")

	kept := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "." || segment == ".." {
			continue
		}
		if cleaned := sanitizeSegment(segment); cleaned != "" {
			kept = append(kept, cleaned)
		}
	}

	if len(kept) == 0 {
		return fmt.Sprintf("upload-%d", time.Now().Unix())
	}

	last := len(kept) - 1
	kept[last] = fmt.Sprintf("%s-%d", kept[last], time.Now().Unix())

	return strings.Join(kept, "/")
}

func sanitizeSegment(segment string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, segment)

	return strings.Trim(cleaned, "-")
}

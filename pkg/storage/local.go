package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Local stores uploads on the node's filesystem under a single directory and
// returns the public path they are served from.
type Local struct {
	dir        string
	publicPath string
	logger     zerolog.Logger
}

// NewLocal prepares the upload directory and returns the store.
func NewLocal(dir, publicPath string, logger zerolog.Logger) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &Local{
		dir:        dir,
		publicPath: strings.TrimSuffix(publicPath, "/"),
		logger:     logger.With().Str("component", "local_storage").Logger(),
	}, nil
}

// Save writes the file under a collision-free name, preserving the directory
// component of the requested name so stored archives stay keyed by submission,
// and returns the public path.
func (l *Local) Save(ctx context.Context, name string, reader io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	relPath := buildFilePath(name)
	target := filepath.Join(l.dir, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload subdirectory: %w", err)
	}

	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := io.Copy(file, reader); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	l.logger.Info().Str("file", relPath).Msg("file stored on local disk")

	return path.Join(l.publicPath, relPath), nil
}

// buildFilePath sanitizes every path segment, drops traversal segments, and
// suffixes the file name with a short random id for collision safety.
func buildFilePath(name string) string {
	segments := strings.Split(path.Clean(filepath.ToSlash(name)), "/")

	dirs := make([]string, 0, len(segments))
	for _, segment := range segments[:len(segments)-1] {
		if segment == "." || segment == ".." {
			continue
		}
		if cleaned := sanitizeSegment(segment); cleaned != "" {
			dirs = append(dirs, cleaned)
		}
	}

	last := segments[len(segments)-1]
	ext := strings.ToLower(path.Ext(last))
	base := sanitizeSegment(strings.TrimSuffix(last, path.Ext(last)))
	if base == "" {
		base = fmt.Sprintf("upload-%d", time.Now().Unix())
	}

	fileName := fmt.Sprintf("%s-%s%s", base, uuid.NewString()[:8], ext)

	return path.Join(append(dirs, fileName)...)
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

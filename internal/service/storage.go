package service

import (
	"context"
	"io"
)

// FileStorage persists uploaded archives and returns a stable reference the
// API can hand back to clients (a public path for local disk, a secure URL
// for remote storage).
type FileStorage interface {
	Save(ctx context.Context, name string, reader io.Reader) (string, error)
}

package storage_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seka-portal-api/pkg/storage"
)

func newTestStore(t *testing.T) (*storage.Local, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := storage.NewLocal(dir, "/uploads", zerolog.New(io.Discard))
	require.NoError(t, err)

	return store, dir
}

func TestLocal_SaveKeepsSubmissionKeying(t *testing.T) {
	store, dir := newTestStore(t)

	publicPath, err := store.Save(context.Background(), "portfolio/submissions/7/site.zip", strings.NewReader("zipbytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(publicPath, "/uploads/portfolio/submissions/7/"), publicPath)
	require.True(t, strings.HasSuffix(publicPath, ".zip"), publicPath)

	onDisk := filepath.Join(dir, strings.TrimPrefix(publicPath, "/uploads/"))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	require.Equal(t, "zipbytes", string(data))
}

func TestLocal_SaveRootLevelName(t *testing.T) {
	store, _ := newTestStore(t)

	publicPath, err := store.Save(context.Background(), "avatar.png", strings.NewReader("img"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(publicPath, "/uploads/avatar-"), publicPath)
	require.NotContains(t, strings.TrimPrefix(publicPath, "/uploads/"), "/")
}

func TestLocal_SaveStripsTraversalSegments(t *testing.T) {
	store, dir := newTestStore(t)

	publicPath, err := store.Save(context.Background(), "../../etc/passwd.txt", strings.NewReader("x"))
	require.NoError(t, err)
	require.NotContains(t, publicPath, "..")

	onDisk := filepath.Join(dir, strings.TrimPrefix(publicPath, "/uploads/"))
	rel, err := filepath.Rel(dir, onDisk)
	require.NoError(t, err)
	require.False(t, strings.HasPrefix(rel, ".."), "file escaped the upload root: %s", rel)
}

func TestLocal_SaveCollisionFreeNames(t *testing.T) {
	store, _ := newTestStore(t)

	first, err := store.Save(context.Background(), "portfolio/submissions/7/site.zip", strings.NewReader("a"))
	require.NoError(t, err)
	second, err := store.Save(context.Background(), "portfolio/submissions/7/site.zip", strings.NewReader("b"))
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

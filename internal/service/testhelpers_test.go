package service_test

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/seka-portal-api/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.PortfolioTask{},
		&models.PortfolioSubmission{},
		&models.PortfolioVersion{},
		&models.PortfolioEvaluation{},
		&models.PortfolioRubricScore{},
		&models.ChatMessage{},
		&models.Notification{},
		&models.Announcement{},
	))

	return db
}

func newTestValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func createTestStudent(t *testing.T, db *gorm.DB, role string) models.Student {
	t.Helper()

	student := models.Student{
		Name:  "Test Student",
		Email: fmt.Sprintf("student+%d@example.com", time.Now().UnixNano()),
		Role:  role,
	}
	require.NoError(t, db.Create(&student).Error)

	return student
}

func createTestTask(t *testing.T, db *gorm.DB) models.PortfolioTask {
	t.Helper()

	task := models.PortfolioTask{
		Title:      fmt.Sprintf("Landing Page %d", time.Now().UnixNano()),
		ClassLevel: "X",
		Active:     true,
	}
	require.NoError(t, db.Create(&task).Error)

	return task
}

type zipEntry struct {
	Name    string
	Content []byte
}

func buildZip(t *testing.T, entries []zipEntry) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	writer := zip.NewWriter(buf)

	for _, entry := range entries {
		w, err := writer.Create(entry.Name)
		require.NoError(t, err)
		_, err = w.Write(entry.Content)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	return buf.Bytes()
}

type fakeStorage struct {
	saved []string
	fail  bool
}

func (f *fakeStorage) Save(_ context.Context, name string, _ io.Reader) (string, error) {
	if f.fail {
		return "", fmt.Errorf("storage unavailable")
	}

	f.saved = append(f.saved, name)
	return "/uploads/" + name, nil
}

package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seka-portal-api/internal/archive"
	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/handler"
	"github.com/noah-isme/seka-portal-api/internal/repository"
	"github.com/noah-isme/seka-portal-api/internal/service"
)

// stubSubmissionService returns canned errors so the handler's status mapping
// can be exercised without a database.
type stubSubmissionService struct {
	service.PortfolioSubmissionService
	uploadErr  error
	submitErr  error
	getErr     error
	previewDoc string
}

func (s *stubSubmissionService) UploadArchive(context.Context, service.Actor, uint, string, []byte) (dto.PortfolioSubmissionResponse, error) {
	return dto.PortfolioSubmissionResponse{}, s.uploadErr
}

func (s *stubSubmissionService) Submit(context.Context, service.Actor, uint) (dto.PortfolioSubmitResponse, error) {
	return dto.PortfolioSubmitResponse{}, s.submitErr
}

func (s *stubSubmissionService) Get(context.Context, service.Actor, uint) (dto.PortfolioSubmissionResponse, error) {
	return dto.PortfolioSubmissionResponse{}, s.getErr
}

func (s *stubSubmissionService) Preview(context.Context, service.Actor, uint) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.previewDoc, nil
}

func newSubmissionTestApp(stub *stubSubmissionService) *fiber.App {
	app := fiber.New()

	// Inject an authenticated student identity the way the JWT middleware does.
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		c.Locals("user_role", "student")
		return c.Next()
	})

	h := handler.NewPortfolioSubmissionHandler(stub, zerolog.New(io.Discard))
	app.Post("/submissions/:id/upload", h.Upload)
	app.Post("/submissions/:id/submit", h.Submit)
	app.Get("/submissions/:id", h.Get)
	app.Get("/submissions/:id/preview", h.Preview)

	return app
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestSubmissionHandler_UploadStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"locked submission", service.ErrSubmissionLocked, fiber.StatusConflict},
		{"missing submission", service.ErrSubmissionNotFound, fiber.StatusNotFound},
		{"foreign submission", service.ErrNotOwner, fiber.StatusForbidden},
		{"oversized upload", service.ErrUploadTooLarge, fiber.StatusRequestEntityTooLarge},
		{"corrupt archive", archive.ErrInvalidArchive, fiber.StatusBadRequest},
		{"missing index", archive.ErrMissingIndex, fiber.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newSubmissionTestApp(&stubSubmissionService{uploadErr: tc.err})

			body, contentType := multipartBody(t, "file", "work.zip", []byte("zipbytes"))
			req := httptest.NewRequest("POST", "/submissions/1/upload", body)
			req.Header.Set("Content-Type", contentType)

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			var payload struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
			require.False(t, payload.Success)
			require.NotEmpty(t, payload.Error)
		})
	}
}

func TestSubmissionHandler_UploadRequiresFileField(t *testing.T) {
	app := newSubmissionTestApp(&stubSubmissionService{})

	body, contentType := multipartBody(t, "wrong_field", "work.zip", []byte("zipbytes"))
	req := httptest.NewRequest("POST", "/submissions/1/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionHandler_SubmitConflict(t *testing.T) {
	app := newSubmissionTestApp(&stubSubmissionService{submitErr: repository.ErrStateConflict})

	req := httptest.NewRequest("POST", "/submissions/1/submit", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestSubmissionHandler_InvalidIDParam(t *testing.T) {
	app := newSubmissionTestApp(&stubSubmissionService{})

	req := httptest.NewRequest("GET", "/submissions/abc", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionHandler_PreviewHeaders(t *testing.T) {
	doc := "<!DOCTYPE html>\n<html><body><h1>ok</h1></body></html>"
	app := newSubmissionTestApp(&stubSubmissionService{previewDoc: doc})

	req := httptest.NewRequest("GET", "/submissions/1/preview", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, service.PreviewContentPolicy, resp.Header.Get("Content-Security-Policy"))
	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	require.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	rendered, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, doc, string(rendered))
}

package handler_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/arpanpramanik2003/smart-student-hub/internal/dto"
	"github.com/arpanpramanik2003/smart-student-hub/internal/handler"
	"github.com/arpanpramanik2003/smart-student-hub/internal/models"
	"github.com/arpanpramanik2003/smart-student-hub/internal/service"
)

type stubActivityService struct {
	err             error
	lastPayload     dto.ActivitySubmitRequest
	lastCertificate *multipart.FileHeader
	lastActor       service.Actor
}

func (s *stubActivityService) Submit(_ context.Context, actor service.Actor, payload dto.ActivitySubmitRequest, certificate *multipart.FileHeader) (dto.ActivityResponse, error) {
	s.lastActor = actor
	s.lastPayload = payload
	s.lastCertificate = certificate
	if s.err != nil {
		return dto.ActivityResponse{}, s.err
	}
	return dto.ActivityResponse{ID: 11, Title: payload.Title, Status: "pending", StudentID: actor.ID}, nil
}

func (s *stubActivityService) ListMine(_ context.Context, actor service.Actor, _ dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	s.lastActor = actor
	return dto.ActivityListResponse{Items: []dto.ActivityResponse{}}, s.err
}

func (s *stubActivityService) Get(_ context.Context, actor service.Actor, id uint) (dto.ActivityResponse, error) {
	s.lastActor = actor
	if s.err != nil {
		return dto.ActivityResponse{}, s.err
	}
	return dto.ActivityResponse{ID: id}, nil
}

func newActivityApp(svc service.ActivityService, id uint, role string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/activities", asUser(id, role))
	handler.NewActivityHandler(svc, nil, zerolog.Nop()).Register(group)
	return app
}

func submissionRequest(t *testing.T, withCertificate bool) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("title", "Smart India Hackathon"))
	require.NoError(t, writer.WriteField("type", "competition"))
	require.NoError(t, writer.WriteField("date", "2024-03-12"))
	require.NoError(t, writer.WriteField("credits", "4"))
	if withCertificate {
		part, err := writer.CreateFormFile("certificate", "certificate.pdf")
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4\n"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/activities", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestActivityHandlerSubmitWithCertificate(t *testing.T) {
	svc := &stubActivityService{}
	app := newActivityApp(svc, 1, "student")

	resp, err := app.Test(submissionRequest(t, true))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Success bool                 `json:"success"`
		Data    dto.ActivityResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "pending", body.Data.Status)
	require.Equal(t, "Smart India Hackathon", svc.lastPayload.Title)
	require.Equal(t, 4.0, svc.lastPayload.Credits)
	require.NotNil(t, svc.lastCertificate)
	require.Equal(t, "certificate.pdf", svc.lastCertificate.Filename)
}

func TestActivityHandlerSubmitWithoutCertificate(t *testing.T) {
	svc := &stubActivityService{}
	app := newActivityApp(svc, 1, "student")

	resp, err := app.Test(submissionRequest(t, false))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Nil(t, svc.lastCertificate)
}

func TestActivityHandlerSubmitRequiresStudent(t *testing.T) {
	svc := &stubActivityService{}
	app := newActivityApp(svc, 9, "faculty")

	resp, err := app.Test(submissionRequest(t, false))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Empty(t, svc.lastPayload.Title)
}

func TestActivityHandlerMapsErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"too large", service.ErrUploadTooLarge, fiber.StatusRequestEntityTooLarge},
		{"bad type", service.ErrUploadTypeNotAllowed, fiber.StatusBadRequest},
		{"bad date", service.ErrDateFormat, fiber.StatusBadRequest},
		{"non-finite credits", models.ErrCreditsNotFinite, fiber.StatusBadRequest},
		{"student only", service.ErrStudentOnly, fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newActivityApp(&stubActivityService{err: tc.err}, 1, "student")

			resp, err := app.Test(submissionRequest(t, true))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestActivityHandlerGet(t *testing.T) {
	t.Run("foreign activity", func(t *testing.T) {
		app := newActivityApp(&stubActivityService{err: service.ErrActivityForbidden}, 2, "student")

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/activities/11", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("missing activity", func(t *testing.T) {
		app := newActivityApp(&stubActivityService{err: service.ErrActivityNotFound}, 9, "faculty")

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/activities/404", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("mine route wins over id", func(t *testing.T) {
		svc := &stubActivityService{}
		app := newActivityApp(svc, 1, "student")

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/activities/mine", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.Equal(t, uint(1), svc.lastActor.ID)
	})
}

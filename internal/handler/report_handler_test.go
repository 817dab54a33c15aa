package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/arpanpramanik2003/smart-student-hub/internal/dto"
	"github.com/arpanpramanik2003/smart-student-hub/internal/handler"
	"github.com/arpanpramanik2003/smart-student-hub/internal/reporting"
	"github.com/arpanpramanik2003/smart-student-hub/internal/service"
)

type stubReportService struct {
	lastRequest dto.ActivityReportRequest
	lastActor   service.Actor
	reportErr   error
	summaryErr  error
}

func (s *stubReportService) InvalidateStatistics(context.Context) {}

func (s *stubReportService) Statistics(context.Context) (dto.StatisticsResponse, error) {
	breakdown := reporting.StatusBreakdown{Approved: 6, Pending: 3, Rejected: 1}
	return dto.StatisticsResponse{
		Summary: reporting.Summary{
			TotalActivities:   10,
			TotalStudents:     3,
			StatusBreakdown:   breakdown,
			StatusPercentages: breakdown.Percentages(),
			ByDepartment:      reporting.Counts{"CSE": 7, "ECE": 3},
			ByType:            reporting.Counts{"workshop": 10},
			CreditsAwarded:    12,
			TopPerformers: []reporting.Performer{
				{StudentID: 1, Name: "Asha", Department: "CSE", Credits: 6, ApprovedActivities: 3},
			},
			Compliance: reporting.Compliance{Score: 72.5, Level: "good"},
		},
		GeneratedAt: time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC),
	}, nil
}

func (s *stubReportService) ActivityReport(_ context.Context, req dto.ActivityReportRequest) (dto.ActivityReportResponse, error) {
	s.lastRequest = req
	if s.reportErr != nil {
		return dto.ActivityReportResponse{}, s.reportErr
	}
	return dto.ActivityReportResponse{StartDate: req.StartDate, EndDate: req.EndDate, Activities: []dto.ActivityResponse{}}, nil
}

func (s *stubReportService) ActivityReportCSV(_ context.Context, req dto.ActivityReportRequest) (dto.CSVReport, error) {
	s.lastRequest = req
	if s.reportErr != nil {
		return dto.CSVReport{}, s.reportErr
	}
	return dto.CSVReport{
		Filename: "activity-report-2024-01-01-to-2024-01-31.csv",
		Content:  []byte("ID,Title\n1,Hackathon\n"),
	}, nil
}

func (s *stubReportService) StudentSummary(_ context.Context, actor service.Actor, studentID uint) (dto.StudentSummaryResponse, error) {
	s.lastActor = actor
	if s.summaryErr != nil {
		return dto.StudentSummaryResponse{}, s.summaryErr
	}
	return dto.StudentSummaryResponse{StudentID: studentID, Name: "Asha"}, nil
}

func newReportApp(svc service.ReportService, id uint, role string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/reports", asUser(id, role))
	handler.NewReportHandler(svc, zerolog.Nop()).Register(group)
	return app
}

func TestReportHandlerStatisticsMatchesContract(t *testing.T) {
	app := newReportApp(&stubReportService{}, 9, "faculty")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/reports/statistics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))

	schemaPath, err := filepath.Abs(filepath.Join("testdata", "statistics.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)
	require.NoError(t, schema.Validate(payload))
}

func TestReportHandlerStatisticsRequiresReviewer(t *testing.T) {
	app := newReportApp(&stubReportService{}, 1, "student")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/reports/statistics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestReportHandlerActivityReportCSV(t *testing.T) {
	svc := &stubReportService{}
	app := newReportApp(svc, 9, "admin")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/reports/activities?start_date=2024-01-01&end_date=2024-01-31&format=CSV&department=CSE", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "text/csv; charset=utf-8", resp.Header.Get(fiber.HeaderContentType))
	require.Equal(t, `attachment; filename="activity-report-2024-01-01-to-2024-01-31.csv"`, resp.Header.Get(fiber.HeaderContentDisposition))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "ID,Title\n1,Hackathon\n", string(body))
	require.Equal(t, "csv", svc.lastRequest.Format)
	require.Equal(t, "CSE", svc.lastRequest.Department)
}

func TestReportHandlerActivityReportJSON(t *testing.T) {
	svc := &stubReportService{}
	app := newReportApp(svc, 9, "faculty")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/reports/activities?start_date=2024-01-01&end_date=2024-03-31", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                       `json:"success"`
		Data    dto.ActivityReportResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "2024-03-31", body.Data.EndDate)
	require.Empty(t, svc.lastRequest.Format)
}

func TestReportHandlerInvalidRange(t *testing.T) {
	app := newReportApp(&stubReportService{reportErr: service.ErrInvalidDateRange}, 9, "faculty")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/reports/activities?start_date=2024-05-01&end_date=2024-01-01&format=csv", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.NotEqual(t, "text/csv; charset=utf-8", resp.Header.Get(fiber.HeaderContentType))

	body := decodeEnvelope(t, resp)
	require.False(t, body.Success)
}

func TestReportHandlerStudentSummary(t *testing.T) {
	t.Run("own summary", func(t *testing.T) {
		svc := &stubReportService{}
		app := newReportApp(svc, 1, "student")

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/reports/students/1/summary", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.Equal(t, service.Actor{ID: 1, Role: "student"}, svc.lastActor)
	})

	t.Run("forbidden", func(t *testing.T) {
		app := newReportApp(&stubReportService{summaryErr: service.ErrReportForbidden}, 1, "student")

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/reports/students/2/summary", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		app := newReportApp(&stubReportService{summaryErr: service.ErrStudentNotFound}, 9, "admin")

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/reports/students/42/summary", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

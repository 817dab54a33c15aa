package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/arpanpramanik2003/smart-student-hub/internal/dto"
	"github.com/arpanpramanik2003/smart-student-hub/internal/models"
	"github.com/arpanpramanik2003/smart-student-hub/internal/observability"
	"github.com/arpanpramanik2003/smart-student-hub/internal/reporting"
	"github.com/arpanpramanik2003/smart-student-hub/internal/repository"
)

const (
	statisticsCacheKey = "reports:statistics"
	topPerformerLimit  = 5
	recentActivityCap  = 5
)

var (
	// ErrInvalidDateRange indicates a missing, malformed or inverted report window.
	ErrInvalidDateRange = errors.New("invalid date range")
	// ErrStudentNotFound indicates the requested student does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrReportForbidden indicates a student requested another student's summary.
	ErrReportForbidden = errors.New("you can only view your own summary")
)

// ReportService builds dashboard statistics and date-range reports.
type ReportService interface {
	ReportCache
	Statistics(ctx context.Context) (dto.StatisticsResponse, error)
	ActivityReport(ctx context.Context, req dto.ActivityReportRequest) (dto.ActivityReportResponse, error)
	ActivityReportCSV(ctx context.Context, req dto.ActivityReportRequest) (dto.CSVReport, error)
	StudentSummary(ctx context.Context, actor Actor, studentID uint) (dto.StudentSummaryResponse, error)
}

type reportService struct {
	activities repository.ActivityRepository
	users      repository.UserRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	validator  *validator.Validate
	logger     zerolog.Logger
	now        func() time.Time
}

// NewReportService constructs the report service. A nil cache disables statistics caching.
func NewReportService(activities repository.ActivityRepository, users repository.UserRepository, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) ReportService {
	return &reportService{
		activities: activities,
		users:      users,
		cache:      cache,
		cacheTTL:   ttl,
		validator:  validate,
		logger:     logger.With().Str("component", "report_service").Logger(),
		now:        time.Now,
	}
}

func (s *reportService) Statistics(ctx context.Context) (dto.StatisticsResponse, error) {
	tracer := otel.Tracer("github.com/arpanpramanik2003/smart-student-hub/internal/service/report")
	ctx, span := tracer.Start(ctx, "reports.statistics")
	span.SetAttributes(attribute.String("reports.cache_key", statisticsCacheKey))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, statisticsCacheKey).Result()
		if err == nil {
			var response dto.StatisticsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				observability.ReportCache().WithLabelValues("hit").Inc()
				span.SetAttributes(attribute.Bool("reports.cache_hit", true))
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read statistics cache")
			span.RecordError(err)
		}
		observability.ReportCache().WithLabelValues("miss").Inc()
	}

	activities, _, err := s.activities.List(ctx, repository.ActivityFilter{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_activities_failed")
		return dto.StatisticsResponse{}, err
	}

	students, err := s.users.ListStudents(ctx, "")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_students_failed")
		return dto.StatisticsResponse{}, err
	}

	response := dto.StatisticsResponse{
		Summary:     reporting.Summarize(activities, students, topPerformerLimit),
		GeneratedAt: s.now().UTC(),
	}
	span.SetAttributes(
		attribute.Int64("reports.total_activities", response.TotalActivities),
		attribute.Int64("reports.total_students", response.TotalStudents),
	)
	observability.ReportsGenerated().WithLabelValues("statistics", dto.ReportFormatJSON).Inc()

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, statisticsCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store statistics cache")
				span.RecordError(err)
			}
		}
	}

	return response, nil
}

func (s *reportService) InvalidateStatistics(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statisticsCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate statistics cache")
	}
}

func (s *reportService) ActivityReport(ctx context.Context, req dto.ActivityReportRequest) (dto.ActivityReportResponse, error) {
	window, activities, students, err := s.loadReport(ctx, req)
	if err != nil {
		return dto.ActivityReportResponse{}, err
	}

	observability.ReportsGenerated().WithLabelValues("activities", dto.ReportFormatJSON).Inc()

	return dto.ActivityReportResponse{
		StartDate:   window.Start.Format(reporting.DateLayout),
		EndDate:     window.End.Format(reporting.DateLayout),
		Department:  strings.TrimSpace(req.Department),
		Summary:     reporting.Summarize(activities, students, topPerformerLimit),
		Activities:  dto.NewActivityResponseSlice(activities),
		GeneratedAt: s.now().UTC(),
	}, nil
}

func (s *reportService) ActivityReportCSV(ctx context.Context, req dto.ActivityReportRequest) (dto.CSVReport, error) {
	window, activities, students, err := s.loadReport(ctx, req)
	if err != nil {
		return dto.CSVReport{}, err
	}

	var buf bytes.Buffer
	if err := reporting.WriteCSV(&buf, activities, students); err != nil {
		return dto.CSVReport{}, fmt.Errorf("render csv report: %w", err)
	}

	observability.ReportsGenerated().WithLabelValues("activities", dto.ReportFormatCSV).Inc()

	return dto.CSVReport{
		Filename: window.Filename("activity-report", "csv"),
		Content:  buf.Bytes(),
	}, nil
}

// loadReport validates the window before touching the repositories.
func (s *reportService) loadReport(ctx context.Context, req dto.ActivityReportRequest) (reporting.DateRange, []models.Activity, []models.User, error) {
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if err := s.validator.Struct(req); err != nil {
		return reporting.DateRange{}, nil, nil, err
	}

	window, err := reporting.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return reporting.DateRange{}, nil, nil, fmt.Errorf("%w: %s", ErrInvalidDateRange, err.Error())
	}

	department := strings.TrimSpace(req.Department)
	from := window.Start
	before := window.EndExclusive()

	activities, _, err := s.activities.List(ctx, repository.ActivityFilter{
		Department: department,
		DateFrom:   &from,
		DateBefore: &before,
		Sort:       "activities.date ASC",
	})
	if err != nil {
		return reporting.DateRange{}, nil, nil, err
	}

	students, err := s.users.ListStudents(ctx, department)
	if err != nil {
		return reporting.DateRange{}, nil, nil, err
	}

	s.logger.Info().
		Str("start_date", req.StartDate).
		Str("end_date", req.EndDate).
		Str("department", department).
		Int("activities", len(activities)).
		Msg("activity report generated")

	return window, activities, students, nil
}

func (s *reportService) StudentSummary(ctx context.Context, actor Actor, studentID uint) (dto.StudentSummaryResponse, error) {
	if !actor.CanReview() && actor.ID != studentID {
		return dto.StudentSummaryResponse{}, ErrReportForbidden
	}

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.StudentSummaryResponse{}, ErrStudentNotFound
		}
		return dto.StudentSummaryResponse{}, err
	}
	if student.Role != models.RoleStudent {
		return dto.StudentSummaryResponse{}, ErrStudentNotFound
	}

	activities, _, err := s.activities.List(ctx, repository.ActivityFilter{StudentID: &student.ID})
	if err != nil {
		return dto.StudentSummaryResponse{}, err
	}

	earned := 0.0
	pending := 0.0
	for _, activity := range activities {
		switch activity.Status {
		case models.ActivityStatusApproved:
			earned += activity.Credits
		case models.ActivityStatusPending:
			pending += activity.RequestedCredits
		}
	}

	recent := activities
	if len(recent) > recentActivityCap {
		recent = recent[:recentActivityCap]
	}

	return dto.StudentSummaryResponse{
		StudentID:       student.ID,
		Name:            student.Name,
		Department:      student.Department,
		TotalActivities: int64(len(activities)),
		StatusBreakdown: reporting.BreakdownByStatus(activities),
		CreditsEarned:   roundCredits(earned),
		CreditsPending:  roundCredits(pending),
		ByType: reporting.CountBy(activities, func(a models.Activity) string {
			return string(a.Type)
		}),
		Recent: dto.NewActivityResponseSlice(recent),
	}, nil
}

func roundCredits(value float64) float64 {
	return math.Round(value*100) / 100
}

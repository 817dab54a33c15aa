package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/arpanpramanik2003/smart-student-hub/internal/dto"
	"github.com/arpanpramanik2003/smart-student-hub/internal/models"
	"github.com/arpanpramanik2003/smart-student-hub/internal/observability"
	"github.com/arpanpramanik2003/smart-student-hub/internal/repository"
)

var (
	// ErrActivityNotFound indicates the activity does not exist.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrActivityForbidden indicates the caller may not access the activity.
	ErrActivityForbidden = errors.New("you can only access your own activities")
	// ErrStudentOnly indicates an operation reserved for student accounts.
	ErrStudentOnly = errors.New("only students can submit activities")
	// ErrDateFormat indicates an activity date that is not YYYY-MM-DD.
	ErrDateFormat = errors.New("date must use the YYYY-MM-DD format")
)

// ActivityService handles student submissions and activity lookups.
type ActivityService interface {
	Submit(ctx context.Context, actor Actor, payload dto.ActivitySubmitRequest, certificate *multipart.FileHeader) (dto.ActivityResponse, error)
	ListMine(ctx context.Context, actor Actor, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.ActivityResponse, error)
}

type activityService struct {
	repo      repository.ActivityRepository
	uploads   UploadService
	audit     AuditRecorder
	cache     ReportCache
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewActivityService constructs the activity service. uploads may be nil when certificate
// storage is not configured; submissions with a file then fail. cache may be nil.
func NewActivityService(repo repository.ActivityRepository, uploads UploadService, audit AuditRecorder, cache ReportCache, validate *validator.Validate, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:      repo,
		uploads:   uploads,
		audit:     audit,
		cache:     cache,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Submit(ctx context.Context, actor Actor, payload dto.ActivitySubmitRequest, certificate *multipart.FileHeader) (dto.ActivityResponse, error) {
	tracer := otel.Tracer("github.com/arpanpramanik2003/smart-student-hub/internal/service/activity")
	ctx, span := tracer.Start(ctx, "activity.submit")
	span.SetAttributes(
		attribute.Int64("activity.student_id", int64(actor.ID)),
		attribute.Bool("activity.has_certificate", certificate != nil),
	)
	defer span.End()

	if normalizeRole(actor.Role) != string(models.RoleStudent) {
		span.SetStatus(codes.Error, "not_a_student")
		return dto.ActivityResponse{}, ErrStudentOnly
	}

	payload.Title = strings.TrimSpace(s.sanitizer.Sanitize(payload.Title))
	payload.Type = strings.ToLower(strings.TrimSpace(payload.Type))
	payload.Date = strings.TrimSpace(payload.Date)
	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ActivityResponse{}, err
	}
	if err := models.ValidateCredits(payload.Credits); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ActivityResponse{}, err
	}

	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ActivityResponse{}, ErrDateFormat
	}

	activity := models.NewActivity(actor.ID, payload.Title, models.ActivityType(payload.Type), date, payload.Credits)
	activity.Description = strings.TrimSpace(s.sanitizer.Sanitize(payload.Description))
	activity.Duration = strings.TrimSpace(payload.Duration)
	activity.Organizer = strings.TrimSpace(s.sanitizer.Sanitize(payload.Organizer))
	activity.FilePath = strings.TrimSpace(payload.FilePath)

	if certificate != nil {
		if s.uploads == nil {
			return dto.ActivityResponse{}, errors.New("certificate storage is not configured")
		}
		uploaded, err := s.uploads.Upload(ctx, certificate, &actor.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "upload_failed")
			return dto.ActivityResponse{}, err
		}
		activity.FilePath = uploaded.URL
	}

	if err := s.repo.Create(ctx, &activity); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist_failed")
		if certificate != nil {
			s.logger.Warn().Err(err).Uint("student_id", actor.ID).Str("file_url", activity.FilePath).Msg("certificate orphaned after failed submission")
		}
		return dto.ActivityResponse{}, fmt.Errorf("create activity: %w", err)
	}

	if s.cache != nil {
		s.cache.InvalidateStatistics(ctx)
	}

	observability.ActivitySubmissions().WithLabelValues(string(activity.Type)).Inc()
	s.logger.Info().Uint("activity_id", activity.ID).Uint("student_id", actor.ID).Msg("activity submitted")

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     AuditActivitySubmitted,
		EntityType: "activity",
		EntityID:   &activity.ID,
		Metadata: map[string]interface{}{
			"type":              string(activity.Type),
			"requested_credits": activity.RequestedCredits,
			"has_certificate":   activity.FilePath != "",
		},
	})

	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) ListMine(ctx context.Context, actor Actor, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityListResponse{}, err
	}

	studentID := actor.ID
	activities, total, err := s.repo.List(ctx, repository.ActivityFilter{
		StudentID: &studentID,
		Status:    req.Status,
		Type:      strings.TrimSpace(req.Type),
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	return dto.ActivityListResponse{
		Items:      dto.NewActivityResponseSlice(activities),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *activityService) Get(ctx context.Context, actor Actor, id uint) (dto.ActivityResponse, error) {
	activity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	if !actor.CanReview() && activity.StudentID != actor.ID {
		return dto.ActivityResponse{}, ErrActivityForbidden
	}

	return dto.NewActivityResponse(activity), nil
}

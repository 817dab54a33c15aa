package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/arpanpramanik2003/smart-student-hub/internal/dto"
	"github.com/arpanpramanik2003/smart-student-hub/internal/models"
	"github.com/arpanpramanik2003/smart-student-hub/internal/observability"
	"github.com/arpanpramanik2003/smart-student-hub/internal/repository"
)

var (
	// ErrActivityAlreadyReviewed indicates the activity left pending before this review.
	ErrActivityAlreadyReviewed = models.ErrActivityNotPending
	// ErrReviewerRequired indicates the caller is neither faculty nor admin.
	ErrReviewerRequired = errors.New("only faculty and admins can review activities")
)

// ReportCache is invalidated whenever review outcomes change the aggregates.
type ReportCache interface {
	InvalidateStatistics(ctx context.Context)
}

// ReviewService runs the faculty review workflow.
type ReviewService interface {
	ListPending(ctx context.Context, req dto.PendingQueueRequest) (dto.ActivityListResponse, error)
	Approve(ctx context.Context, actor Actor, id uint, payload dto.ActivityApproveRequest) (dto.ActivityResponse, error)
	Reject(ctx context.Context, actor Actor, id uint, payload dto.ActivityRejectRequest) (dto.ActivityResponse, error)
	History(ctx context.Context, actor Actor, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
}

type reviewService struct {
	repo      repository.ActivityRepository
	audit     AuditRecorder
	notifier  Notifier
	cache     ReportCache
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewReviewService constructs the review service. audit, notifier and cache are optional.
func NewReviewService(repo repository.ActivityRepository, audit AuditRecorder, notifier Notifier, cache ReportCache, validate *validator.Validate, logger zerolog.Logger) ReviewService {
	return &reviewService{
		repo:      repo,
		audit:     audit,
		notifier:  notifier,
		cache:     cache,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "review_service").Logger(),
		tracer:    otel.Tracer("github.com/arpanpramanik2003/smart-student-hub/internal/service/review"),
		now:       time.Now,
	}
}

func (s *reviewService) ListPending(ctx context.Context, req dto.PendingQueueRequest) (dto.ActivityListResponse, error) {
	activities, total, err := s.repo.List(ctx, repository.ActivityFilter{
		Status:     string(models.ActivityStatusPending),
		Department: strings.TrimSpace(req.Department),
		Type:       strings.ToLower(strings.TrimSpace(req.Type)),
		Sort:       "activities.created_at ASC",
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	return dto.ActivityListResponse{
		Items:      dto.NewActivityResponseSlice(activities),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *reviewService) Approve(ctx context.Context, actor Actor, id uint, payload dto.ActivityApproveRequest) (dto.ActivityResponse, error) {
	ctx, span := s.tracer.Start(ctx, "review.approve", trace.WithAttributes(
		attribute.Int64("review.activity_id", int64(id)),
		attribute.Int64("review.actor_id", int64(actor.ID)),
	))
	defer span.End()

	if payload.Credits != nil && !(*payload.Credits >= 0 && *payload.Credits <= models.MaxCredits) {
		return dto.ActivityResponse{}, s.fail(span, "invalid", models.ErrCreditsOutOfRange)
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, s.fail(span, "invalid", err)
	}

	remarks := strings.TrimSpace(s.sanitizer.Sanitize(payload.Remarks))
	return s.review(ctx, span, actor, id, func(activity *models.Activity) error {
		return activity.Approve(actor.ID, payload.Credits, remarks, s.now())
	})
}

func (s *reviewService) Reject(ctx context.Context, actor Actor, id uint, payload dto.ActivityRejectRequest) (dto.ActivityResponse, error) {
	ctx, span := s.tracer.Start(ctx, "review.reject", trace.WithAttributes(
		attribute.Int64("review.activity_id", int64(id)),
		attribute.Int64("review.actor_id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, s.fail(span, "invalid", err)
	}

	remarks := strings.TrimSpace(s.sanitizer.Sanitize(payload.Remarks))
	return s.review(ctx, span, actor, id, func(activity *models.Activity) error {
		return activity.Reject(actor.ID, remarks, s.now())
	})
}

func (s *reviewService) History(ctx context.Context, actor Actor, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityListResponse{}, err
	}

	approverID := actor.ID
	activities, total, err := s.repo.List(ctx, repository.ActivityFilter{
		ApproverID: &approverID,
		Status:     req.Status,
		Type:       strings.TrimSpace(req.Type),
		Sort:       "activities.reviewed_at DESC",
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	return dto.ActivityListResponse{
		Items:      dto.NewActivityResponseSlice(activities),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

// review loads the activity, applies the transition and persists it with a
// conditional update so concurrent reviewers cannot both succeed.
func (s *reviewService) review(ctx context.Context, span trace.Span, actor Actor, id uint, transition func(*models.Activity) error) (dto.ActivityResponse, error) {
	if !actor.CanReview() {
		return dto.ActivityResponse{}, s.fail(span, "forbidden", ErrReviewerRequired)
	}

	activity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.ActivityResponse{}, s.fail(span, "not_found", ErrActivityNotFound)
		}
		return dto.ActivityResponse{}, s.fail(span, "failed", err)
	}

	if err := transition(&activity); err != nil {
		if errors.Is(err, models.ErrActivityNotPending) {
			return dto.ActivityResponse{}, s.fail(span, "conflict", ErrActivityAlreadyReviewed)
		}
		return dto.ActivityResponse{}, s.fail(span, "invalid", err)
	}

	if err := s.repo.Review(ctx, &activity); err != nil {
		switch {
		case errors.Is(err, models.ErrActivityNotPending):
			s.logger.Info().Uint("activity_id", id).Uint("actor_id", actor.ID).Msg("concurrent review lost the race")
			return dto.ActivityResponse{}, s.fail(span, "conflict", ErrActivityAlreadyReviewed)
		case repository.IsNotFound(err):
			return dto.ActivityResponse{}, s.fail(span, "not_found", ErrActivityNotFound)
		default:
			return dto.ActivityResponse{}, s.fail(span, "failed", fmt.Errorf("persist review: %w", err))
		}
	}

	outcome := string(activity.Status)
	observability.ActivityReviews().WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String("review.outcome", outcome))
	span.SetStatus(codes.Ok, outcome)

	s.logger.Info().
		Uint("activity_id", activity.ID).
		Uint("actor_id", actor.ID).
		Str("status", outcome).
		Float64("credits", activity.Credits).
		Msg("activity reviewed")

	if reloaded, err := s.repo.GetByID(ctx, activity.ID); err == nil {
		activity = reloaded
	} else {
		s.logger.Warn().Err(err).Uint("activity_id", activity.ID).Msg("failed to reload reviewed activity")
	}

	s.afterReview(ctx, actor, activity)

	return dto.NewActivityResponse(activity), nil
}

func (s *reviewService) afterReview(ctx context.Context, actor Actor, activity models.Activity) {
	action := AuditActivityApproved
	notificationType := models.NotificationActivityApproved
	message := fmt.Sprintf("%s has been approved with %s credits.", activity.Title, formatCredits(activity.Credits))
	if activity.Status == models.ActivityStatusRejected {
		action = AuditActivityRejected
		notificationType = models.NotificationActivityRejected
		message = fmt.Sprintf("%s has been rejected: %s", activity.Title, activity.Remarks)
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "activity",
		EntityID:   &activity.ID,
		Metadata: map[string]interface{}{
			"student_id":        activity.StudentID,
			"credits":           activity.Credits,
			"requested_credits": activity.RequestedCredits,
			"remarks":           activity.Remarks,
		},
	})

	if s.notifier != nil {
		activityID := activity.ID
		if _, err := s.notifier.Publish(ctx, dto.NotificationCreateRequest{
			UserID:     activity.StudentID,
			ActivityID: &activityID,
			Type:       notificationType,
			Message:    message,
		}); err != nil {
			s.logger.Warn().Err(err).Uint("activity_id", activity.ID).Msg("failed to notify student")
		}
	}

	if s.cache != nil {
		s.cache.InvalidateStatistics(ctx)
	}
}

func (s *reviewService) fail(span trace.Span, outcome string, err error) error {
	observability.ActivityReviews().WithLabelValues(outcome).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	return err
}

func formatCredits(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/arpanpramanik2003/smart-student-hub/internal/dto"
	"github.com/arpanpramanik2003/smart-student-hub/internal/middleware"
	"github.com/arpanpramanik2003/smart-student-hub/internal/service"
	"github.com/arpanpramanik2003/smart-student-hub/internal/utils"
)

// ReportHandler serves statistics and date-range reports.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register binds report routes.
func (h *ReportHandler) Register(router fiber.Router) {
	reviewer := middleware.AuthOptions{Role: middleware.AuthRoleReviewer}
	router.Get("/statistics", middleware.WithAuth(h.statistics, reviewer))
	router.Get("/activities", middleware.WithAuth(h.activities, reviewer))
	router.Get("/students/:id/summary", middleware.WithAuth(h.studentSummary, middleware.AuthOptions{RequireUser: true}))
}

func (h *ReportHandler) statistics(c *fiber.Ctx) error {
	stats, err := h.service.Statistics(c.UserContext())
	if err != nil {
		return h.handleError(c, err, "failed to build statistics")
	}
	return utils.SendSuccess(c, "statistics retrieved", stats)
}

func (h *ReportHandler) activities(c *fiber.Ctx) error {
	req := dto.ActivityReportRequest{
		StartDate:  c.Query("start_date"),
		EndDate:    c.Query("end_date"),
		Department: c.Query("department"),
		Format:     strings.ToLower(strings.TrimSpace(c.Query("format"))),
	}

	if req.Format == dto.ReportFormatCSV {
		report, err := h.service.ActivityReportCSV(c.UserContext(), req)
		if err != nil {
			return h.handleError(c, err, "failed to build activity report")
		}

		return utils.SendFile(c, utils.DispositionAttachment, report.Filename, "text/csv; charset=utf-8", report.Content)
	}

	report, err := h.service.ActivityReport(c.UserContext(), req)
	if err != nil {
		return h.handleError(c, err, "failed to build activity report")
	}
	return utils.SendSuccess(c, "activity report generated", report)
}

func (h *ReportHandler) studentSummary(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	summary, err := h.service.StudentSummary(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err, "failed to build student summary")
	}
	return utils.SendSuccess(c, "student summary retrieved", summary)
}

func (h *ReportHandler) handleError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
	case errors.Is(err, service.ErrInvalidDateRange):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrReportForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}

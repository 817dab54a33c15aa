package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/arpanpramanik2003/smart-student-hub/internal/dto"
	"github.com/arpanpramanik2003/smart-student-hub/internal/models"
	"github.com/arpanpramanik2003/smart-student-hub/internal/service"
	"github.com/arpanpramanik2003/smart-student-hub/internal/utils"
)

// ReviewHandler exposes the faculty review workflow.
type ReviewHandler struct {
	service service.ReviewService
	logger  zerolog.Logger
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(service service.ReviewService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger.With().Str("component", "review_handler").Logger(),
	}
}

// Register binds review routes. The group is expected to be restricted to reviewers.
func (h *ReviewHandler) Register(router fiber.Router) {
	router.Get("/pending", h.pending)
	router.Get("/history", h.history)
	router.Post("/:id/approve", h.approve)
	router.Post("/:id/reject", h.reject)
}

func (h *ReviewHandler) pending(c *fiber.Ctx) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.ListPending(c.UserContext(), dto.PendingQueueRequest{
		Page:       page,
		PageSize:   pageSize,
		Department: c.Query("department"),
		Type:       c.Query("type"),
	})
	if err != nil {
		return h.handleError(c, err, "failed to load pending activities")
	}

	return utils.SendSuccess(c, "pending activities retrieved", response)
}

func (h *ReviewHandler) history(c *fiber.Ctx) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.History(c.UserContext(), actorFromContext(c), dto.ActivityListRequest{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
		Type:     c.Query("type"),
	})
	if err != nil {
		return h.handleError(c, err, "failed to load review history")
	}

	return utils.SendSuccess(c, "review history retrieved", response)
}

func (h *ReviewHandler) approve(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid activity id")
	}

	var payload dto.ActivityApproveRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	activity, err := h.service.Approve(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err, "failed to approve activity")
	}

	return utils.SendSuccess(c, "activity approved", activity)
}

func (h *ReviewHandler) reject(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid activity id")
	}

	var payload dto.ActivityRejectRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	activity, err := h.service.Reject(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err, "failed to reject activity")
	}

	return utils.SendSuccess(c, "activity rejected", activity)
}

func (h *ReviewHandler) handleError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
	case errors.Is(err, models.ErrCreditsOutOfRange):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrReviewerRequired):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrActivityNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrActivityAlreadyReviewed):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}

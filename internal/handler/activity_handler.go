package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/arpanpramanik2003/smart-student-hub/internal/dto"
	"github.com/arpanpramanik2003/smart-student-hub/internal/middleware"
	"github.com/arpanpramanik2003/smart-student-hub/internal/models"
	"github.com/arpanpramanik2003/smart-student-hub/internal/service"
	"github.com/arpanpramanik2003/smart-student-hub/internal/utils"
)

// certificateField is the multipart field carrying the optional certificate.
const certificateField = "certificate"

// ActivityHandler exposes student activity endpoints.
type ActivityHandler struct {
	service     service.ActivityService
	submitLimit fiber.Handler
	logger      zerolog.Logger
}

// NewActivityHandler constructs the handler. submitLimit may be nil.
func NewActivityHandler(service service.ActivityService, submitLimit fiber.Handler, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service:     service,
		submitLimit: submitLimit,
		logger:      logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register binds activity routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	submit := middleware.WithAuth(h.submit, middleware.AuthOptions{Role: middleware.AuthRoleStudent})
	if h.submitLimit != nil {
		router.Post("", h.submitLimit, submit)
	} else {
		router.Post("", submit)
	}
	router.Get("/mine", middleware.WithAuth(h.listMine, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
	router.Get("/:id", middleware.WithAuth(h.get, middleware.AuthOptions{RequireUser: true}))
}

func (h *ActivityHandler) submit(c *fiber.Ctx) error {
	var payload dto.ActivitySubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	certificate, err := c.FormFile(certificateField)
	if err != nil {
		certificate = nil
	}

	activity, err := h.service.Submit(c.UserContext(), actorFromContext(c), payload, certificate)
	if err != nil {
		return h.handleError(c, err, "failed to submit activity")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity submitted", activity)
}

func (h *ActivityHandler) listMine(c *fiber.Ctx) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.ListMine(c.UserContext(), actorFromContext(c), dto.ActivityListRequest{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
		Type:     c.Query("type"),
	})
	if err != nil {
		return h.handleError(c, err, "failed to list activities")
	}

	return utils.SendSuccess(c, "activities retrieved", response)
}

func (h *ActivityHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid activity id")
	}

	activity, err := h.service.Get(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err, "failed to load activity")
	}

	return utils.SendSuccess(c, "activity retrieved", activity)
}

func (h *ActivityHandler) handleError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrUploadTypeNotAllowed), errors.Is(err, service.ErrUploadRequired):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStudentOnly), errors.Is(err, service.ErrActivityForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrActivityNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDateFormat), errors.Is(err, models.ErrCreditsNotFinite):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}

package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/arpanpramanik2003/smart-student-hub/internal/service"
	"github.com/arpanpramanik2003/smart-student-hub/internal/utils"
)

// FileHandler proxies Cloudinary certificates for inline viewing and download.
type FileHandler struct {
	service service.FileProxyService
	logger  zerolog.Logger
}

// NewFileHandler constructs the handler.
func NewFileHandler(service service.FileProxyService, logger zerolog.Logger) *FileHandler {
	return &FileHandler{
		service: service,
		logger:  logger.With().Str("component", "file_handler").Logger(),
	}
}

// Register binds the proxy routes.
func (h *FileHandler) Register(router fiber.Router) {
	router.Get("/view", h.view)
	router.Get("/download", h.download)
}

func (h *FileHandler) view(c *fiber.Ctx) error {
	file, err := h.service.View(c.UserContext(), c.Query("url"))
	if err != nil {
		return h.handleError(c, err)
	}

	c.Set(fiber.HeaderCacheControl, "private, max-age=300")
	return utils.SendFile(c, utils.DispositionInline, file.Filename, file.ContentType, file.Content)
}

func (h *FileHandler) download(c *fiber.Ctx) error {
	signed, err := h.service.DownloadURL(c.UserContext(), c.Query("url"))
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Redirect(signed, fiber.StatusFound)
}

func (h *FileHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrFileURLRequired):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrFileURLForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrFileFetchFailed):
		requestLogger(h.logger, c).Warn().Err(err).Msg("certificate proxy fetch failed")
		return utils.SendError(c, fiber.StatusInternalServerError, service.ErrFileFetchFailed.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("certificate proxy failed")
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}
}

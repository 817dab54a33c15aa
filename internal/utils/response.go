package utils

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// APIResponse is the envelope every JSON endpoint answers with.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
}

// Content dispositions accepted by SendFile.
const (
	DispositionInline     = "inline"
	DispositionAttachment = "attachment"
)

// SendSuccess sends a 200 envelope with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus sends a success envelope using the provided HTTP status code.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// SendError sends a failure envelope. Error responses never carry data.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: message,
	})
}

// SendFile writes raw bytes outside the envelope, for CSV exports and proxied certificates.
func SendFile(c *fiber.Ctx, disposition, filename, contentType string, content []byte) error {
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	if disposition != DispositionInline {
		disposition = DispositionAttachment
	}

	c.Set(fiber.HeaderContentType, contentType)
	if filename != "" {
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("%s; filename=%q", disposition, filename))
	} else {
		c.Set(fiber.HeaderContentDisposition, disposition)
	}
	return c.Status(fiber.StatusOK).Send(content)
}

package dto

import (
	"time"

	"github.com/arpanpramanik2003/smart-student-hub/internal/models"
)

// NotificationCreateRequest is the payload for publishing a notification.
type NotificationCreateRequest struct {
	UserID     uint   `json:"user_id" validate:"required"`
	ActivityID *uint  `json:"activity_id"`
	Type       string `json:"type" validate:"required,max=64"`
	Message    string `json:"message" validate:"required,max=2000"`
}

// NotificationResponse represents notification data returned to clients.
type NotificationResponse struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id"`
	ActivityID *uint     `json:"activity_id"`
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewNotificationResponse converts a notification model to DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:         model.ID,
		UserID:     model.UserID,
		ActivityID: model.ActivityID,
		Type:       model.Type,
		Message:    model.Message,
		Read:       model.Read,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

// NewNotificationResponseSlice converts a slice to DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewNotificationResponse(item))
	}
	return out
}

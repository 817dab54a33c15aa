package models

import "time"

// Notification types emitted by the review workflow.
const (
	NotificationActivityApproved = "activity_approved"
	NotificationActivityRejected = "activity_rejected"
)

// Notification represents a user-facing notification entry.
type Notification struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	ActivityID *uint     `gorm:"index" json:"activity_id"`
	Type       string    `gorm:"size:64" json:"type"`
	Message    string    `gorm:"type:text" json:"message"`
	Read       bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

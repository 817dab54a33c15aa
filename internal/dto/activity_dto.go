package dto

import (
	"time"

	"github.com/arpanpramanik2003/smart-student-hub/internal/models"
)

// ActivitySubmitRequest captures a student's activity submission. Credits above
// the cap are clamped rather than rejected.
type ActivitySubmitRequest struct {
	Title       string  `json:"title" form:"title" validate:"required,max=255"`
	Type        string  `json:"type" form:"type" validate:"required,oneof=conference workshop certification competition internship leadership community_service club_activity online_course"`
	Date        string  `json:"date" form:"date" validate:"required,datetime=2006-01-02"`
	Duration    string  `json:"duration" form:"duration" validate:"omitempty,max=64"`
	Organizer   string  `json:"organizer" form:"organizer" validate:"omitempty,max=255"`
	Description string  `json:"description" form:"description" validate:"omitempty,max=5000"`
	Credits     float64 `json:"credits" form:"credits"`
	FilePath    string  `json:"file_path" form:"file_path" validate:"omitempty,url"`
}

// ActivityListRequest filters a student's own activities.
type ActivityListRequest struct {
	Page     int
	PageSize int
	Status   string `validate:"omitempty,oneof=pending approved rejected"`
	Type     string
}

// PendingQueueRequest filters the reviewer's pending queue.
type PendingQueueRequest struct {
	Page       int
	PageSize   int
	Department string
	Type       string
}

// ActivityApproveRequest approves a pending activity. Nil credits award the student's request.
type ActivityApproveRequest struct {
	Credits *float64 `json:"credits" validate:"omitempty,gte=0,lte=10"`
	Remarks string   `json:"remarks" validate:"omitempty,max=2000"`
}

// ActivityRejectRequest rejects a pending activity.
type ActivityRejectRequest struct {
	Remarks string `json:"remarks" validate:"omitempty,max=2000"`
}

// ActivityResponse serializes an activity for clients.
type ActivityResponse struct {
	ID               uint       `json:"id"`
	Title            string     `json:"title"`
	Type             string     `json:"type"`
	Description      string     `json:"description"`
	Date             string     `json:"date"`
	Duration         string     `json:"duration"`
	Organizer        string     `json:"organizer"`
	Credits          float64    `json:"credits"`
	RequestedCredits float64    `json:"requested_credits"`
	Status           string     `json:"status"`
	Remarks          string     `json:"remarks"`
	FilePath         string     `json:"file_path"`
	StudentID        uint       `json:"student_id"`
	StudentName      string     `json:"student_name,omitempty"`
	Department       string     `json:"department,omitempty"`
	ApproverID       *uint      `json:"approver_id"`
	ApproverName     string     `json:"approver_name,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ActivityListResponse wraps a paginated activity list.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityResponse converts an activity model into a DTO.
func NewActivityResponse(activity models.Activity) ActivityResponse {
	response := ActivityResponse{
		ID:               activity.ID,
		Title:            activity.Title,
		Type:             string(activity.Type),
		Description:      activity.Description,
		Date:             activity.Date.Format("2006-01-02"),
		Duration:         activity.Duration,
		Organizer:        activity.Organizer,
		Credits:          activity.Credits,
		RequestedCredits: activity.RequestedCredits,
		Status:           string(activity.Status),
		Remarks:          activity.Remarks,
		FilePath:         activity.FilePath,
		StudentID:        activity.StudentID,
		ApproverID:       activity.ApproverID,
		ReviewedAt:       activity.ReviewedAt,
		CreatedAt:        activity.CreatedAt,
		UpdatedAt:        activity.UpdatedAt,
	}

	if activity.Student != nil {
		response.StudentName = activity.Student.Name
		response.Department = activity.Student.Department
	}
	if activity.Approver != nil {
		response.ApproverName = activity.Approver.Name
	}

	return response
}

// NewActivityResponseSlice converts a slice of activities into DTOs.
func NewActivityResponseSlice(items []models.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewActivityResponse(item))
	}
	return out
}

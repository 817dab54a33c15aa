package models

import (
	"errors"
	"math"
	"strings"
	"time"
)

// ActivityStatus is the review state of an activity.
type ActivityStatus string

const (
	// ActivityStatusPending is the initial state of every submission.
	ActivityStatusPending ActivityStatus = "pending"
	// ActivityStatusApproved is terminal; credits are final.
	ActivityStatusApproved ActivityStatus = "approved"
	// ActivityStatusRejected is terminal.
	ActivityStatusRejected ActivityStatus = "rejected"
)

// ActivityType enumerates the co-curricular categories a student may submit.
type ActivityType string

const (
	ActivityTypeConference       ActivityType = "conference"
	ActivityTypeWorkshop         ActivityType = "workshop"
	ActivityTypeCertification    ActivityType = "certification"
	ActivityTypeCompetition      ActivityType = "competition"
	ActivityTypeInternship       ActivityType = "internship"
	ActivityTypeLeadership       ActivityType = "leadership"
	ActivityTypeCommunityService ActivityType = "community_service"
	ActivityTypeClubActivity     ActivityType = "club_activity"
	ActivityTypeOnlineCourse     ActivityType = "online_course"
)

// ActivityTypes lists all accepted activity types.
var ActivityTypes = []ActivityType{
	ActivityTypeConference,
	ActivityTypeWorkshop,
	ActivityTypeCertification,
	ActivityTypeCompetition,
	ActivityTypeInternship,
	ActivityTypeLeadership,
	ActivityTypeCommunityService,
	ActivityTypeClubActivity,
	ActivityTypeOnlineCourse,
}

const (
	// MaxCredits is the upper bound for requested and awarded credits.
	MaxCredits = 10.0
	// DefaultRejectionRemarks is recorded when a reviewer rejects without remarks.
	DefaultRejectionRemarks = "Activity rejected by faculty"
)

var (
	// ErrActivityNotPending indicates a review was attempted on a resolved activity.
	ErrActivityNotPending = errors.New("activity already reviewed")
	// ErrCreditsOutOfRange indicates reviewer supplied credits outside [0, MaxCredits].
	ErrCreditsOutOfRange = errors.New("credits must be between 0 and 10")
	// ErrCreditsNotFinite indicates a NaN or infinite credit value.
	ErrCreditsNotFinite = errors.New("credits must be a finite number")
)

// Activity is a student submitted co-curricular record awaiting or having received review.
type Activity struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Title            string         `gorm:"size:255;not null" json:"title"`
	Type             ActivityType   `gorm:"size:32;not null;index" json:"type"`
	Description      string         `gorm:"type:text" json:"description"`
	Date             time.Time      `gorm:"not null;index" json:"date"`
	Duration         string         `gorm:"size:64" json:"duration"`
	Organizer        string         `gorm:"size:255" json:"organizer"`
	Credits          float64        `gorm:"not null;default:0" json:"credits"`
	RequestedCredits float64        `gorm:"not null;default:0" json:"requested_credits"`
	Status           ActivityStatus `gorm:"size:16;not null;index" json:"status"`
	Remarks          string         `gorm:"type:text" json:"remarks"`
	FilePath         string         `gorm:"size:512" json:"file_path"`
	StudentID        uint           `gorm:"not null;index" json:"student_id"`
	ApproverID       *uint          `gorm:"index" json:"approver_id"`
	ReviewedAt       *time.Time     `json:"reviewed_at"`
	CreatedAt        time.Time      `gorm:"<-:create" json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Student          *User          `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student,omitempty"`
	Approver         *User          `gorm:"foreignKey:ApproverID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"approver,omitempty"`
}

// ClampCredits bounds a credit value to [0, MaxCredits]. NaN maps to 0.
func ClampCredits(value float64) float64 {
	switch {
	case math.IsNaN(value), value < 0:
		return 0
	case value > MaxCredits:
		return MaxCredits
	default:
		return value
	}
}

// ValidateCredits rejects credit values that cannot be clamped meaningfully.
func ValidateCredits(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ErrCreditsNotFinite
	}
	return nil
}

// IsValidActivityType reports whether the raw value names a known activity type.
func IsValidActivityType(raw string) bool {
	for _, t := range ActivityTypes {
		if string(t) == raw {
			return true
		}
	}
	return false
}

// NewActivity builds a pending activity for the student, clamping the requested credits.
func NewActivity(studentID uint, title string, activityType ActivityType, date time.Time, credits float64) Activity {
	clamped := ClampCredits(credits)
	return Activity{
		Title:            strings.TrimSpace(title),
		Type:             activityType,
		Date:             date,
		Credits:          clamped,
		RequestedCredits: clamped,
		Status:           ActivityStatusPending,
		StudentID:        studentID,
	}
}

// IsPending reports whether the activity still awaits review.
func (a Activity) IsPending() bool {
	return a.Status == ActivityStatusPending
}

// IsApproved reports whether the activity was approved.
func (a Activity) IsApproved() bool {
	return a.Status == ActivityStatusApproved
}

// Approve moves a pending activity to approved. A nil credits value awards the
// student's request, capped at MaxCredits.
func (a *Activity) Approve(approverID uint, credits *float64, remarks string, at time.Time) error {
	if !a.IsPending() {
		return ErrActivityNotPending
	}

	awarded := ClampCredits(a.RequestedCredits)
	if credits != nil {
		if !(*credits >= 0 && *credits <= MaxCredits) {
			return ErrCreditsOutOfRange
		}
		awarded = *credits
	}

	a.Credits = awarded
	a.Status = ActivityStatusApproved
	a.Remarks = strings.TrimSpace(remarks)
	a.markReviewed(approverID, at)
	return nil
}

// Reject moves a pending activity to rejected, recording DefaultRejectionRemarks when none are given.
func (a *Activity) Reject(approverID uint, remarks string, at time.Time) error {
	if !a.IsPending() {
		return ErrActivityNotPending
	}

	remarks = strings.TrimSpace(remarks)
	if remarks == "" {
		remarks = DefaultRejectionRemarks
	}

	a.Status = ActivityStatusRejected
	a.Remarks = remarks
	a.markReviewed(approverID, at)
	return nil
}

func (a *Activity) markReviewed(approverID uint, at time.Time) {
	id := approverID
	a.ApproverID = &id
	reviewedAt := at
	a.ReviewedAt = &reviewedAt
	a.UpdatedAt = at
}

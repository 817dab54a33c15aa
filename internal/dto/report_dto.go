package dto

import (
	"time"

	"github.com/arpanpramanik2003/smart-student-hub/internal/reporting"
)

// Report output formats accepted by the activity report endpoint.
const (
	ReportFormatJSON = "json"
	ReportFormatCSV  = "csv"
)

// StatisticsResponse is the institution wide dashboard snapshot.
type StatisticsResponse struct {
	reporting.Summary
	GeneratedAt time.Time `json:"generated_at"`
	CacheHit    bool      `json:"cache_hit"`
}

// ActivityReportRequest selects the activities of a date-range report.
type ActivityReportRequest struct {
	StartDate  string
	EndDate    string
	Department string
	Format     string `validate:"omitempty,oneof=json csv"`
}

// ActivityReportResponse is the JSON form of a date-range report.
type ActivityReportResponse struct {
	StartDate   string             `json:"start_date"`
	EndDate     string             `json:"end_date"`
	Department  string             `json:"department,omitempty"`
	Summary     reporting.Summary  `json:"summary"`
	Activities  []ActivityResponse `json:"activities"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// CSVReport is a rendered CSV download.
type CSVReport struct {
	Filename string
	Content  []byte
}

// StudentSummaryResponse aggregates a single student's record.
type StudentSummaryResponse struct {
	StudentID       uint                      `json:"student_id"`
	Name            string                    `json:"name"`
	Department      string                    `json:"department"`
	TotalActivities int64                     `json:"total_activities"`
	StatusBreakdown reporting.StatusBreakdown `json:"status_breakdown"`
	CreditsEarned   float64                   `json:"credits_earned"`
	CreditsPending  float64                   `json:"credits_pending"`
	ByType          reporting.Counts          `json:"by_type"`
	Recent          []ActivityResponse        `json:"recent"`
}

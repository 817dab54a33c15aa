// Package reporting holds the pure aggregations behind dashboards and reports.
// Every function recomputes from the slice it is handed; nothing is cached here.
package reporting

import (
	"math"
	"sort"
	"strings"

	"github.com/arpanpramanik2003/smart-student-hub/internal/models"
)

// UnknownKey is the bucket used when a grouping key is empty.
const UnknownKey = "unknown"

// StatusBreakdown counts activities per review status.
type StatusBreakdown struct {
	Approved int64 `json:"approved"`
	Pending  int64 `json:"pending"`
	Rejected int64 `json:"rejected"`
}

// Total returns the number of activities across all statuses.
func (b StatusBreakdown) Total() int64 {
	return b.Approved + b.Pending + b.Rejected
}

// Percentages converts the breakdown into shares of its total.
func (b StatusBreakdown) Percentages() StatusPercentages {
	total := b.Total()
	return StatusPercentages{
		Approved: Percentage(b.Approved, total),
		Pending:  Percentage(b.Pending, total),
		Rejected: Percentage(b.Rejected, total),
	}
}

// StatusPercentages mirrors StatusBreakdown as percentages of the total.
type StatusPercentages struct {
	Approved float64 `json:"approved"`
	Pending  float64 `json:"pending"`
	Rejected float64 `json:"rejected"`
}

// Counts is a group-by result keyed by an arbitrary label.
type Counts map[string]int64

// Percentage returns part as a percentage of total rounded to two decimals, or 0 when total is 0.
func Percentage(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

// CountBy groups items by key. Blank keys are counted under UnknownKey.
func CountBy[T any](items []T, key func(T) string) Counts {
	counts := Counts{}
	for _, item := range items {
		k := strings.TrimSpace(key(item))
		if k == "" {
			k = UnknownKey
		}
		counts[k]++
	}
	return counts
}

// BreakdownByStatus counts activities per status. Unknown statuses are ignored.
func BreakdownByStatus(activities []models.Activity) StatusBreakdown {
	var breakdown StatusBreakdown
	for _, activity := range activities {
		switch activity.Status {
		case models.ActivityStatusApproved:
			breakdown.Approved++
		case models.ActivityStatusPending:
			breakdown.Pending++
		case models.ActivityStatusRejected:
			breakdown.Rejected++
		}
	}
	return breakdown
}

// Performer is a student ranked by approved credits.
type Performer struct {
	StudentID          uint    `json:"student_id"`
	Name               string  `json:"name"`
	Department         string  `json:"department"`
	Credits            float64 `json:"credits"`
	ApprovedActivities int64   `json:"approved_activities"`
}

// TopPerformers ranks students by the sum of credits on approved activities.
// Ties keep the order in which students first appear in activities. limit <= 0 returns everyone.
func TopPerformers(activities []models.Activity, students map[uint]models.User, limit int) []Performer {
	index := make(map[uint]int)
	performers := make([]Performer, 0)

	for _, activity := range activities {
		if !activity.IsApproved() {
			continue
		}
		pos, ok := index[activity.StudentID]
		if !ok {
			student := studentFor(activity, students)
			performers = append(performers, Performer{
				StudentID:  activity.StudentID,
				Name:       student.Name,
				Department: student.Department,
			})
			pos = len(performers) - 1
			index[activity.StudentID] = pos
		}
		performers[pos].Credits += activity.Credits
		performers[pos].ApprovedActivities++
	}

	sort.SliceStable(performers, func(i, j int) bool {
		return performers[i].Credits > performers[j].Credits
	})

	for i := range performers {
		performers[i].Credits = round2(performers[i].Credits)
	}

	if limit > 0 && len(performers) > limit {
		performers = performers[:limit]
	}
	return performers
}

// Summary is the aggregate snapshot rendered by dashboards and reports.
type Summary struct {
	TotalActivities   int64             `json:"total_activities"`
	TotalStudents     int64             `json:"total_students"`
	StatusBreakdown   StatusBreakdown   `json:"status_breakdown"`
	StatusPercentages StatusPercentages `json:"status_percentages"`
	ByDepartment      Counts            `json:"by_department"`
	ByType            Counts            `json:"by_type"`
	CreditsAwarded    float64           `json:"credits_awarded"`
	TopPerformers     []Performer       `json:"top_performers"`
	Compliance        Compliance        `json:"compliance"`
}

// Summarize builds a Summary over the activities. Students provide department and
// name lookups; their count feeds the engagement ratio.
func Summarize(activities []models.Activity, students []models.User, topN int) Summary {
	lookup := make(map[uint]models.User, len(students))
	for _, student := range students {
		lookup[student.ID] = student
	}

	breakdown := BreakdownByStatus(activities)
	credits := 0.0
	for _, activity := range activities {
		if activity.IsApproved() {
			credits += activity.Credits
		}
	}

	summary := Summary{
		TotalActivities:   int64(len(activities)),
		TotalStudents:     int64(len(students)),
		StatusBreakdown:   breakdown,
		StatusPercentages: breakdown.Percentages(),
		ByDepartment: CountBy(activities, func(a models.Activity) string {
			return studentFor(a, lookup).Department
		}),
		ByType: CountBy(activities, func(a models.Activity) string {
			return string(a.Type)
		}),
		CreditsAwarded: round2(credits),
		TopPerformers:  TopPerformers(activities, lookup, topN),
	}

	summary.Compliance = ComplianceScore(Snapshot{
		TotalActivities: summary.TotalActivities,
		Pending:         breakdown.Pending,
		Rejected:        breakdown.Rejected,
		TotalStudents:   summary.TotalStudents,
	}, DefaultComplianceWeights)

	return summary
}

func studentFor(activity models.Activity, students map[uint]models.User) models.User {
	if student, ok := students[activity.StudentID]; ok {
		return student
	}
	if activity.Student != nil {
		return *activity.Student
	}
	return models.User{ID: activity.StudentID}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/arpanpramanik2003/smart-student-hub/internal/dto"
	"github.com/arpanpramanik2003/smart-student-hub/internal/models"
	"github.com/arpanpramanik2003/smart-student-hub/internal/reporting"
)

func seedReportData(t *testing.T) (*memoryUserRepo, *memoryActivityRepo) {
	t.Helper()
	users := newMemoryUserRepo(
		models.User{ID: 1, Name: "Asha", Role: models.RoleStudent, Department: "CSE"},
		models.User{ID: 2, Name: "Bilal", Role: models.RoleStudent, Department: "ECE"},
		models.User{ID: 3, Name: "Chen", Role: models.RoleStudent, Department: "CSE"},
		models.User{ID: 9, Name: "Dr. Rao", Role: models.RoleFaculty, Department: "CSE"},
	)
	activities := newMemoryActivityRepo(users)

	statuses := []models.ActivityStatus{
		models.ActivityStatusApproved, models.ActivityStatusApproved, models.ActivityStatusApproved,
		models.ActivityStatusApproved, models.ActivityStatusApproved, models.ActivityStatusApproved,
		models.ActivityStatusPending, models.ActivityStatusPending, models.ActivityStatusPending,
		models.ActivityStatusRejected,
	}
	students := []uint{1, 2, 1, 3, 2, 1, 2, 3, 1, 2}
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	for i, status := range statuses {
		activity := models.NewActivity(students[i], "Activity", models.ActivityTypeWorkshop, base.AddDate(0, i, 0), 2)
		activity.Status = status
		activities.seed(activity)
	}
	return users, activities
}

func TestReportServiceStatisticsCachesUntilInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users, activities := seedReportData(t)
	svc := NewReportService(activities, users, client, time.Minute, testValidator(), testLogger())

	first, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Equal(t, int64(10), first.TotalActivities)
	require.Equal(t, reporting.StatusBreakdown{Approved: 6, Pending: 3, Rejected: 1}, first.StatusBreakdown)
	require.Equal(t, int64(3), first.TotalStudents)
	require.Equal(t, 60.0, first.StatusPercentages.Approved)
	require.Equal(t, int64(6), first.ByDepartment["CSE"])
	require.True(t, mr.Exists(statisticsCacheKey))

	second, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.TotalActivities, second.TotalActivities)
	require.Equal(t, 1, activities.listCalls)

	svc.InvalidateStatistics(context.Background())
	require.False(t, mr.Exists(statisticsCacheKey))

	third, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	require.False(t, third.CacheHit)
	require.Equal(t, 2, activities.listCalls)
}

func TestReportServiceRejectsInvertedRangeWithoutQuerying(t *testing.T) {
	users, activities := seedReportData(t)
	svc := NewReportService(activities, users, nil, time.Minute, testValidator(), testLogger())

	_, err := svc.ActivityReport(context.Background(), dto.ActivityReportRequest{StartDate: "2024-06-30", EndDate: "2024-01-01"})
	require.ErrorIs(t, err, ErrInvalidDateRange)
	require.ErrorContains(t, err, "start date must not be after end date")

	_, err = svc.ActivityReportCSV(context.Background(), dto.ActivityReportRequest{EndDate: "2024-01-01"})
	require.ErrorIs(t, err, ErrInvalidDateRange)

	require.Zero(t, activities.listCalls)
}

func TestReportServiceActivityReportFiltersWindowAndDepartment(t *testing.T) {
	users, activities := seedReportData(t)
	svc := NewReportService(activities, users, nil, time.Minute, testValidator(), testLogger())

	report, err := svc.ActivityReport(context.Background(), dto.ActivityReportRequest{StartDate: "2024-01-01", EndDate: "2024-04-10"})
	require.NoError(t, err)
	require.Len(t, report.Activities, 4)
	require.Equal(t, int64(4), report.Summary.TotalActivities)

	cse, err := svc.ActivityReport(context.Background(), dto.ActivityReportRequest{StartDate: "2024-01-01", EndDate: "2024-12-31", Department: "CSE"})
	require.NoError(t, err)
	require.Equal(t, int64(6), cse.Summary.TotalActivities)
	require.Equal(t, int64(2), cse.Summary.TotalStudents)
	for _, item := range cse.Activities {
		require.Equal(t, "CSE", item.Department)
	}
}

func TestReportServiceCSV(t *testing.T) {
	users, activities := seedReportData(t)
	svc := NewReportService(activities, users, nil, time.Minute, testValidator(), testLogger())

	report, err := svc.ActivityReportCSV(context.Background(), dto.ActivityReportRequest{StartDate: "2024-01-01", EndDate: "2024-02-29", Format: "csv"})
	require.NoError(t, err)
	require.Equal(t, "activity-report-2024-01-01-to-2024-02-29.csv", report.Filename)

	records, err := csv.NewReader(bytes.NewReader(report.Content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "Asha", records[1][5])
}

func TestReportServiceStudentSummary(t *testing.T) {
	users, activities := seedReportData(t)
	svc := NewReportService(activities, users, nil, time.Minute, testValidator(), testLogger())

	summary, err := svc.StudentSummary(context.Background(), Actor{ID: 1, Role: "student"}, 1)
	require.NoError(t, err)
	require.Equal(t, int64(4), summary.TotalActivities)
	require.Equal(t, reporting.StatusBreakdown{Approved: 3, Pending: 1}, summary.StatusBreakdown)
	require.Equal(t, 6.0, summary.CreditsEarned)
	require.Equal(t, 2.0, summary.CreditsPending)

	_, err = svc.StudentSummary(context.Background(), Actor{ID: 2, Role: "student"}, 1)
	require.ErrorIs(t, err, ErrReportForbidden)

	_, err = svc.StudentSummary(context.Background(), Actor{ID: 9, Role: "faculty"}, 9)
	require.ErrorIs(t, err, ErrStudentNotFound)

	_, err = svc.StudentSummary(context.Background(), Actor{ID: 9, Role: "faculty"}, 42)
	require.ErrorIs(t, err, ErrStudentNotFound)
}

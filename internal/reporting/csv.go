package reporting

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/arpanpramanik2003/smart-student-hub/internal/models"
)

var csvHeader = []string{
	"Activity ID", "Title", "Type", "Date", "Student ID", "Student Name", "Department",
	"Status", "Requested Credits", "Credits", "Remarks", "Submitted At", "Reviewed At",
}

// WriteCSV renders one row per activity. Students supply name and department columns.
func WriteCSV(w io.Writer, activities []models.Activity, students []models.User) error {
	lookup := make(map[uint]models.User, len(students))
	for _, student := range students {
		lookup[student.ID] = student
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, activity := range activities {
		student := studentFor(activity, lookup)
		reviewedAt := ""
		if activity.ReviewedAt != nil {
			reviewedAt = activity.ReviewedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		}

		row := []string{
			strconv.FormatUint(uint64(activity.ID), 10),
			activity.Title,
			string(activity.Type),
			activity.Date.Format(DateLayout),
			strconv.FormatUint(uint64(activity.StudentID), 10),
			student.Name,
			student.Department,
			string(activity.Status),
			strconv.FormatFloat(activity.RequestedCredits, 'f', -1, 64),
			strconv.FormatFloat(activity.Credits, 'f', -1, 64),
			activity.Remarks,
			activity.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			reviewedAt,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

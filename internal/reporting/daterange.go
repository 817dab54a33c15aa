package reporting

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted by report filters.
const DateLayout = "2006-01-02"

var (
	// ErrDateRangeRequired indicates a missing start or end date.
	ErrDateRangeRequired = errors.New("start date and end date are required")
	// ErrInvalidDate indicates a bound that is not a YYYY-MM-DD date.
	ErrInvalidDate = errors.New("dates must use the YYYY-MM-DD format")
	// ErrStartAfterEnd indicates an inverted range.
	ErrStartAfterEnd = errors.New("start date must not be after end date")
)

// DateRange is an inclusive calendar window [Start, End].
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange validates both bounds. Both are required and start must not be after end.
func ParseDateRange(start, end string) (DateRange, error) {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	if start == "" || end == "" {
		return DateRange{}, ErrDateRangeRequired
	}

	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, ErrInvalidDate
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, ErrInvalidDate
	}

	if from.After(to) {
		return DateRange{}, ErrStartAfterEnd
	}

	return DateRange{Start: from, End: to}, nil
}

// EndExclusive returns the first instant after the end day.
func (r DateRange) EndExclusive() time.Time {
	return r.End.AddDate(0, 0, 1)
}

// Contains reports whether t falls on any day of the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.EndExclusive())
}

// Filename builds the download name `<name>-<start>-to-<end>.<ext>`.
func (r DateRange) Filename(name, ext string) string {
	return fmt.Sprintf("%s-%s-to-%s.%s", name, r.Start.Format(DateLayout), r.End.Format(DateLayout), ext)
}

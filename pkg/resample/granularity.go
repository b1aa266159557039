package resample

import (
	"fmt"
	"strings"
	"time"
)

type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case Day, Week, Month:
		return g, nil
	case "daily":
		return Day, nil
	case "weekly":
		return Week, nil
	case "monthly":
		return Month, nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

// PeriodStart returns the first day of the bucket containing t. Weeks start
// on Monday.
func (g Granularity) PeriodStart(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch g {
	case Week:
		offset := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -offset)
	case Month:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return d
}

// Label renders a bucket start for display.
func (g Granularity) Label(start time.Time) string {
	switch g {
	case Week:
		return "Week of " + start.Format("Jan 02")
	case Month:
		return start.Format("January")
	}
	return start.Format("Jan 02")
}

package snapshot

import (
	"fmt"
	"slices"
	"time"
)

const DateLayout = "2006-01-02"

// DateRange is a closed interval of calendar dates. A range whose End is
// before its Start is empty.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: DateOf(start), End: DateOf(end)}
}

// ParseDateRange parses YYYY-MM-DD bounds.
func ParseDateRange(from, to string) (DateRange, error) {
	start, err := time.Parse(DateLayout, from)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start date %q: %w", from, err)
	}
	end, err := time.Parse(DateLayout, to)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid end date %q: %w", to, err)
	}
	return NewDateRange(start, end), nil
}

func (r DateRange) Empty() bool {
	return r.End.Before(r.Start)
}

// Contains reports whether the calendar date of t lies within the range.
func (r DateRange) Contains(t time.Time) bool {
	if r.Empty() {
		return false
	}
	d := DateOf(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the number of calendar days covered.
func (r DateRange) Days() int {
	if r.Empty() {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

func sortDays(days []time.Time) {
	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })
}

package snapshot

import (
	"time"
)

// Row is one timestamped snapshot of the hotel's counters. RoomsSold and
// Arrivals are cumulative within a day: later samples supersede earlier ones.
type Row struct {
	Timestamp      time.Time `json:"timestamp"`
	RoomsSold      float64   `json:"rooms_sold"`
	RoomsAvailable float64   `json:"rooms_available"`
	Arrivals       float64   `json:"arrivals"`
	OOORooms       float64   `json:"ooo_rooms"`
	KingRate       Rate      `json:"king_rate"`
	QQRate         Rate      `json:"qq_rate"`
}

// Day returns the calendar date of the sample.
func (r Row) Day() time.Time {
	return DateOf(r.Timestamp)
}

// DateOf truncates t to midnight UTC of its calendar date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AtHour returns the rows sampled during the given hour of day.
func AtHour(rows []Row, hour int) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Timestamp.Hour() == hour {
			out = append(out, r)
		}
	}
	return out
}

// InRange returns the rows whose date falls within r.
func InRange(rows []Row, r DateRange) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if r.Contains(row.Timestamp) {
			out = append(out, row)
		}
	}
	return out
}

// DistinctDays counts the distinct calendar dates among rows.
func DistinctDays(rows []Row) int {
	days := make(map[time.Time]struct{}, len(rows))
	for _, r := range rows {
		days[r.Day()] = struct{}{}
	}
	return len(days)
}

type DailyValue struct {
	Day   time.Time
	Value float64
}

// DailyMaxima collapses rows to one value per calendar day, the maximum of
// value over that day's samples. This is the only correct way to read a
// cumulative counter: the largest sample of the day is the day's total.
// Rows for which value reports false are skipped. Output is ordered by day.
func DailyMaxima(rows []Row, value func(Row) (float64, bool)) []DailyValue {
	maxima := make(map[time.Time]float64)
	var order []time.Time
	for _, r := range rows {
		v, ok := value(r)
		if !ok {
			continue
		}
		day := r.Day()
		cur, seen := maxima[day]
		if !seen {
			order = append(order, day)
			maxima[day] = v
			continue
		}
		if v > cur {
			maxima[day] = v
		}
	}
	sortDays(order)
	out := make([]DailyValue, 0, len(order))
	for _, d := range order {
		out = append(out, DailyValue{Day: d, Value: maxima[d]})
	}
	return out
}

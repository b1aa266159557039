package kpi

import (
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/snapshot"
)

type RoomTypeCounts struct {
	King int `json:"king"`
	QQ   int `json:"qq"`
}

type RoomTypePct struct {
	King float64 `json:"king"`
	QQ   float64 `json:"qq"`
}

// Summary holds the headline figures for a date range.
type Summary struct {
	OccupancyPct  float64        `json:"occupancy_pct"`
	AvgArrivals   float64        `json:"avg_arrivals"`
	SoldOutCounts RoomTypeCounts `json:"sold_out_counts"`
	SoldOutPct    RoomTypePct    `json:"sold_out_pct"`
	OOOTotal      float64        `json:"ooo_total"`
	OOODays       int            `json:"ooo_days"`
	OOODayPct     float64        `json:"ooo_day_pct"`
	AvgKingRate   float64        `json:"avg_king_rate"`
	AvgQQRate     float64        `json:"avg_qq_rate"`
	TotalDays     int            `json:"total_days"`
	NoData        bool           `json:"no_data"`
}

// Compute derives the summary for rows within r. Rows outside r are ignored,
// so callers may pass a superset. capacity is the hotel's room count; a
// non-positive capacity yields zero occupancy.
func Compute(rows []snapshot.Row, r snapshot.DateRange, capacity int) Summary {
	inRange := snapshot.InRange(rows, r)
	if len(inRange) == 0 {
		return Summary{NoData: true}
	}

	endOfDay := snapshot.AtHour(inRange, snapshot.EndOfDayHour)
	arrivalsSamples := snapshot.AtHour(inRange, snapshot.ArrivalsHour)

	var s Summary
	s.TotalDays = snapshot.DistinctDays(inRange)

	if capacity > 0 {
		sold, _ := MeanOfDailyMaxima(endOfDay, func(row snapshot.Row) (float64, bool) {
			return row.RoomsSold, true
		})
		s.OccupancyPct = sold / float64(capacity) * 100
	}

	s.AvgArrivals = mean(arrivalsSamples, func(row snapshot.Row) (float64, bool) {
		return row.Arrivals, true
	})

	s.SoldOutCounts.King = soldOutDays(endOfDay, func(row snapshot.Row) snapshot.Rate { return row.KingRate })
	s.SoldOutCounts.QQ = soldOutDays(endOfDay, func(row snapshot.Row) snapshot.Rate { return row.QQRate })

	oooByDay := snapshot.DailyMaxima(endOfDay, func(row snapshot.Row) (float64, bool) {
		return row.OOORooms, true
	})
	for _, d := range oooByDay {
		s.OOOTotal += d.Value
		if d.Value > 0 {
			s.OOODays++
		}
	}

	s.AvgKingRate = mean(inRange, func(row snapshot.Row) (float64, bool) { return row.KingRate.Float() })
	s.AvgQQRate = mean(inRange, func(row snapshot.Row) (float64, bool) { return row.QQRate.Float() })

	s.SoldOutPct.King = pct(s.SoldOutCounts.King, s.TotalDays)
	s.SoldOutPct.QQ = pct(s.SoldOutCounts.QQ, s.TotalDays)
	s.OOODayPct = pct(s.OOODays, s.TotalDays)

	return s
}

// MeanOfDailyMaxima collapses a cumulative counter to one value per day (the
// day's maximum) and averages those. It returns the mean and the number of
// days that contributed.
func MeanOfDailyMaxima(rows []snapshot.Row, value func(snapshot.Row) (float64, bool)) (float64, int) {
	days := snapshot.DailyMaxima(rows, value)
	if len(days) == 0 {
		return 0, 0
	}
	var sum float64
	for _, d := range days {
		sum += d.Value
	}
	return sum / float64(len(days)), len(days)
}

func mean(rows []snapshot.Row, value func(snapshot.Row) (float64, bool)) float64 {
	var sum float64
	var n int
	for _, r := range rows {
		v, ok := value(r)
		if !ok {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func soldOutDays(rows []snapshot.Row, rate func(snapshot.Row) snapshot.Rate) int {
	days := make(map[int64]struct{})
	for _, r := range rows {
		if rate(r).IsSoldOut() {
			days[r.Day().Unix()] = struct{}{}
		}
	}
	return len(days)
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

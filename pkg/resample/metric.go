package resample

import (
	"fmt"
	"strings"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/snapshot"
)

type Metric string

const (
	MetricOccupancy      Metric = "occupancy"
	MetricRoomsSold      Metric = "rooms_sold"
	MetricRoomsAvailable Metric = "rooms_available"
	MetricArrivals       Metric = "arrivals"
	MetricOOORooms       Metric = "ooo_rooms"
	MetricKingRate       Metric = "king_rate"
	MetricQQRate         Metric = "qq_rate"
)

var Metrics = []Metric{
	MetricOccupancy,
	MetricRoomsSold,
	MetricRoomsAvailable,
	MetricArrivals,
	MetricOOORooms,
	MetricKingRate,
	MetricQQRate,
}

func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Metrics {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// Cumulative reports whether the metric grows through the day, in which case
// each day is represented by its largest sample.
func (m Metric) Cumulative() bool {
	switch m {
	case MetricOccupancy, MetricRoomsSold, MetricArrivals:
		return true
	}
	return false
}

// DefaultHour is the sampling hour the dashboard charts the metric at.
func (m Metric) DefaultHour() int {
	if m == MetricArrivals {
		return snapshot.ArrivalsHour
	}
	return snapshot.EndOfDayHour
}

// Value extracts the metric from a row. Occupancy is derived from rooms sold
// and capacity. Rates report false unless numeric.
func (m Metric) Value(r snapshot.Row, capacity int) (float64, bool) {
	switch m {
	case MetricOccupancy:
		if capacity <= 0 {
			return 0, false
		}
		return r.RoomsSold * 100 / float64(capacity), true
	case MetricRoomsSold:
		return r.RoomsSold, true
	case MetricRoomsAvailable:
		return r.RoomsAvailable, true
	case MetricArrivals:
		return r.Arrivals, true
	case MetricOOORooms:
		return r.OOORooms, true
	case MetricKingRate:
		return r.KingRate.Float()
	case MetricQQRate:
		return r.QQRate.Float()
	}
	return 0, false
}

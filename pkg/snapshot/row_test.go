package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.March, day, hour, minute, 0, 0, time.UTC)
}

func TestHotel_Snapshot_DailyMaxima(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{Timestamp: at(2, 21, 0), RoomsSold: 8},
		{Timestamp: at(1, 12, 0), RoomsSold: 5},
		{Timestamp: at(1, 15, 0), RoomsSold: 12},
		{Timestamp: at(1, 21, 0), RoomsSold: 12},
		{Timestamp: at(3, 21, 0), RoomsSold: 20},
	}
	got := DailyMaxima(rows, func(r Row) (float64, bool) { return r.RoomsSold, true })
	require.Equal(t, []DailyValue{
		{Day: at(1, 0, 0), Value: 12},
		{Day: at(2, 0, 0), Value: 8},
		{Day: at(3, 0, 0), Value: 20},
	}, got)
}

func TestHotel_Snapshot_DailyMaxima_SkipsNonNumeric(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{Timestamp: at(1, 21, 0), KingRate: SoldOut},
		{Timestamp: at(2, 21, 0), KingRate: NumericRate(120)},
	}
	got := DailyMaxima(rows, func(r Row) (float64, bool) { return r.KingRate.Float() })
	require.Len(t, got, 1)
	require.Equal(t, 120.0, got[0].Value)
}

func TestHotel_Snapshot_Filters(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{Timestamp: at(1, 15, 0)},
		{Timestamp: at(1, 21, 30)},
		{Timestamp: at(2, 21, 0)},
		{Timestamp: at(5, 21, 0)},
	}
	require.Len(t, AtHour(rows, 21), 3)
	require.Len(t, AtHour(rows, 15), 1)
	require.Empty(t, AtHour(rows, 9))

	r := NewDateRange(at(1, 0, 0), at(2, 0, 0))
	require.Len(t, InRange(rows, r), 3)
	require.Equal(t, 2, DistinctDays(InRange(rows, r)))
	require.Empty(t, InRange(rows, NewDateRange(at(3, 0, 0), at(1, 0, 0))))
}

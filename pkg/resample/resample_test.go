package resample

import (
	"testing"
	"time"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/snapshot"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func at(month time.Month, day, hour int) time.Time {
	return time.Date(2024, month, day, hour, 0, 0, 0, time.UTC)
}

func span(from, to time.Time) snapshot.DateRange {
	return snapshot.NewDateRange(from, to)
}

func TestHotel_Resample_Empty(t *testing.T) {
	t.Parallel()

	r := span(at(time.March, 1, 0), at(time.March, 31, 0))
	for _, g := range []Granularity{Day, Week, Month} {
		t.Run(string(g), func(t *testing.T) {
			t.Parallel()
			got := Resample(nil, MetricOccupancy, snapshot.EndOfDayHour, g, r, 60)
			require.NotNil(t, got)
			require.Empty(t, got)
		})
	}
}

func TestHotel_Resample_Day(t *testing.T) {
	t.Parallel()

	rows := []snapshot.Row{
		{Timestamp: at(time.March, 2, 21), RoomsAvailable: 10},
		{Timestamp: at(time.March, 1, 15), RoomsAvailable: 99},
		{Timestamp: at(time.March, 1, 21), RoomsAvailable: 20},
		{Timestamp: at(time.March, 1, 21).Add(30 * time.Minute), RoomsAvailable: 30},
	}
	got := Resample(rows, MetricRoomsAvailable, 21, Day, span(at(time.March, 1, 0), at(time.March, 2, 0)), 60)
	want := []Point{
		{Label: "Mar 01", Start: at(time.March, 1, 0), Value: 25, Samples: 2},
		{Label: "Mar 02", Start: at(time.March, 2, 0), Value: 10, Samples: 1},
	}
	require.Empty(t, cmp.Diff(want, got))
}

func TestHotel_Resample_CumulativeCollapsesPerDay(t *testing.T) {
	t.Parallel()

	rows := []snapshot.Row{
		{Timestamp: at(time.March, 1, 21), RoomsSold: 30},
		{Timestamp: at(time.March, 1, 21).Add(40 * time.Minute), RoomsSold: 45},
		{Timestamp: at(time.March, 2, 21), RoomsSold: 15},
	}
	got := Resample(rows, MetricOccupancy, 21, Week, span(at(time.March, 1, 0), at(time.March, 2, 0)), 60)
	require.Len(t, got, 1)
	require.InDelta(t, 50.0, got[0].Value, 1e-9)
	require.Equal(t, 2, got[0].Samples)
}

func TestHotel_Resample_WeekStartsMonday(t *testing.T) {
	t.Parallel()

	rows := []snapshot.Row{
		{Timestamp: at(time.March, 3, 21), OOORooms: 1},
		{Timestamp: at(time.March, 4, 21), OOORooms: 2},
		{Timestamp: at(time.March, 10, 21), OOORooms: 4},
		{Timestamp: at(time.March, 11, 21), OOORooms: 8},
	}
	got := Resample(rows, MetricOOORooms, 21, Week, span(at(time.March, 1, 0), at(time.March, 31, 0)), 60)
	want := []Point{
		{Label: "Week of Feb 26", Start: at(time.February, 26, 0), Value: 1, Samples: 1},
		{Label: "Week of Mar 04", Start: at(time.March, 4, 0), Value: 3, Samples: 2},
		{Label: "Week of Mar 11", Start: at(time.March, 11, 0), Value: 8, Samples: 1},
	}
	require.Empty(t, cmp.Diff(want, got))
}

func TestHotel_Resample_MonthIsChronological(t *testing.T) {
	t.Parallel()

	rows := []snapshot.Row{
		{Timestamp: at(time.April, 3, 15), Arrivals: 30},
		{Timestamp: at(time.February, 3, 15), Arrivals: 10},
		{Timestamp: at(time.February, 4, 15), Arrivals: 20},
	}
	got := Resample(rows, MetricArrivals, 15, Month, span(at(time.January, 1, 0), at(time.December, 31, 0)), 60)
	require.Len(t, got, 2)
	require.Equal(t, "February", got[0].Label)
	require.InDelta(t, 15.0, got[0].Value, 1e-9)
	require.Equal(t, "April", got[1].Label)
}

func TestHotel_Resample_DropsNonNumericRates(t *testing.T) {
	t.Parallel()

	rows := []snapshot.Row{
		{Timestamp: at(time.March, 1, 21), KingRate: snapshot.SoldOut},
		{Timestamp: at(time.March, 2, 21), KingRate: snapshot.NumericRate(100)},
		{Timestamp: at(time.March, 3, 21), KingRate: snapshot.NumericRate(140)},
		{Timestamp: at(time.March, 4, 21), KingRate: snapshot.UnknownRate},
	}
	r := span(at(time.March, 1, 0), at(time.March, 4, 0))

	got := Resample(rows, MetricKingRate, 21, Day, r, 60)
	require.Len(t, got, 2)
	require.Equal(t, "Mar 02", got[0].Label)

	got = Resample(rows, MetricKingRate, 21, Month, r, 60)
	require.Len(t, got, 1)
	require.InDelta(t, 120.0, got[0].Value, 1e-9)
}

func TestHotel_Resample_Idempotent(t *testing.T) {
	t.Parallel()

	rows := []snapshot.Row{
		{Timestamp: at(time.March, 1, 21), RoomsSold: 30},
		{Timestamp: at(time.March, 9, 21), RoomsSold: 45},
	}
	r := span(at(time.March, 1, 0), at(time.March, 31, 0))
	first := Resample(rows, MetricRoomsSold, 21, Week, r, 60)
	second := Resample(rows, MetricRoomsSold, 21, Week, r, 60)
	require.Empty(t, cmp.Diff(first, second))
}

func TestHotel_Resample_InvertedRange(t *testing.T) {
	t.Parallel()

	rows := []snapshot.Row{{Timestamp: at(time.March, 2, 21), RoomsSold: 30}}
	got := Resample(rows, MetricRoomsSold, 21, Day, span(at(time.March, 5, 0), at(time.March, 1, 0)), 60)
	require.Empty(t, got)
}

func TestHotel_Resample_Parse(t *testing.T) {
	t.Parallel()

	g, err := ParseGranularity("Weekly")
	require.NoError(t, err)
	require.Equal(t, Week, g)
	_, err = ParseGranularity("hourly")
	require.Error(t, err)

	m, err := ParseMetric("KING_RATE")
	require.NoError(t, err)
	require.Equal(t, MetricKingRate, m)
	_, err = ParseMetric("revpar")
	require.Error(t, err)

	require.Equal(t, 15, MetricArrivals.DefaultHour())
	require.Equal(t, 21, MetricOccupancy.DefaultHour())
}

func TestHotel_Resample_OccupancyValue(t *testing.T) {
	t.Parallel()

	v, ok := MetricOccupancy.Value(snapshot.Row{RoomsSold: 45}, 60)
	require.True(t, ok)
	require.InDelta(t, 75.0, v, 1e-9)

	_, ok = MetricOccupancy.Value(snapshot.Row{RoomsSold: 45}, 0)
	require.False(t, ok)
}

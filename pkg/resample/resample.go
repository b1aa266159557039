package resample

import (
	"slices"
	"time"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/snapshot"
)

type Point struct {
	Label   string    `json:"label"`
	Start   time.Time `json:"start"`
	Value   float64   `json:"value"`
	Samples int       `json:"samples"`
}

type bucket struct {
	sum float64
	n   int
}

// Resample averages metric into day, week or month buckets over the samples
// taken at hour within r. Cumulative metrics are first collapsed to one value
// per day. Buckets without a numeric value are omitted, and points are
// returned oldest first.
func Resample(rows []snapshot.Row, metric Metric, hour int, g Granularity, r snapshot.DateRange, capacity int) []Point {
	samples := snapshot.AtHour(snapshot.InRange(rows, r), hour)
	value := func(row snapshot.Row) (float64, bool) { return metric.Value(row, capacity) }

	var values []snapshot.DailyValue
	if metric.Cumulative() {
		values = snapshot.DailyMaxima(samples, value)
	} else {
		values = make([]snapshot.DailyValue, 0, len(samples))
		for _, row := range samples {
			if v, ok := value(row); ok {
				values = append(values, snapshot.DailyValue{Day: row.Day(), Value: v})
			}
		}
	}

	buckets := make(map[time.Time]*bucket)
	for _, v := range values {
		start := g.PeriodStart(v.Day)
		b, ok := buckets[start]
		if !ok {
			b = &bucket{}
			buckets[start] = b
		}
		b.sum += v.Value
		b.n++
	}

	points := make([]Point, 0, len(buckets))
	for start, b := range buckets {
		points = append(points, Point{
			Label:   g.Label(start),
			Start:   start,
			Value:   b.sum / float64(b.n),
			Samples: b.n,
		})
	}
	slices.SortFunc(points, func(a, b Point) int { return a.Start.Compare(b.Start) })
	return points
}

package pipeline

import (
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/querier"
)

// ChartSeries returns the result as a label/value series when it has the
// shape of one: exactly two columns, more than one row, and a numeric second
// column in every row. Anything else is not chartable.
func ChartSeries(result querier.QueryResponse) ([]SeriesPoint, bool) {
	if len(result.Columns) != 2 || len(result.Rows) < 2 || result.Columns[0] == result.Columns[1] {
		return nil, false
	}
	labelCol, valueCol := result.Columns[0], result.Columns[1]

	series := make([]SeriesPoint, 0, len(result.Rows))
	for _, row := range result.Rows {
		v, ok := numeric(row[valueCol])
		if !ok {
			return nil, false
		}
		series = append(series, SeriesPoint{
			Label: querier.FormatValue(row[labelCol]),
			Value: v,
		})
	}
	return series, true
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

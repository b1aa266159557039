package querier

import (
	"fmt"
	"strings"
	"time"
)

const maxFormattedRows = 50

// FormatValue renders a single value for a model prompt or a table cell.
// Floats are rounded to two decimals; long strings are truncated.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%.0f", val)
		}
		return fmt.Sprintf("%.2f", val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	default:
		s := fmt.Sprintf("%v", v)
		if len(s) > 100 {
			s = s[:97] + "..."
		}
		return s
	}
}

// Formatted renders the response as pipe-separated text, at most 50 rows.
func (r QueryResponse) Formatted() string {
	if r.Count == 0 {
		return "Query returned no results."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Columns: %s\n", strings.Join(r.Columns, ", "))
	fmt.Fprintf(&sb, "Rows (%d total):\n", r.Count)

	for i := 0; i < maxFormattedRows && i < len(r.Rows); i++ {
		sb.WriteString(strings.Join(r.Values(i), " | ") + "\n")
	}
	if r.Count > maxFormattedRows {
		fmt.Fprintf(&sb, "... and %d more rows\n", r.Count-maxFormattedRows)
	}
	if r.Truncated {
		sb.WriteString("(result truncated)\n")
	}
	return sb.String()
}

// Values returns row i formatted in column order.
func (r QueryResponse) Values(i int) []string {
	values := make([]string, len(r.Columns))
	for j, col := range r.Columns {
		values[j] = FormatValue(r.Rows[i][col])
	}
	return values
}

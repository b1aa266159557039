package sheetsync

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/snapshot"
	"github.com/xuri/excelize/v2"
)

const (
	sourceDate = "Date"
	sourceTime = "Time"
)

// ErrMissingColumn is returned when the sheet lacks the Date or Time column.
var ErrMissingColumn = errors.New("required column missing")

// Report describes what parsing had to paper over.
type Report struct {
	Rows           int
	SkippedRows    int
	MissingColumns []string
	CoercedValues  int
}

var counterColumns = []string{
	snapshot.ColumnRoomsSold,
	snapshot.ColumnRoomsAvailable,
	snapshot.ColumnArrivals,
	snapshot.ColumnOOORooms,
}

var rateColumns = []string{
	snapshot.ColumnKingRate,
	snapshot.ColumnQQRate,
}

var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2-Jan-2006",
	"2-Jan-06",
}

var timeLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04:05 PM",
	"3:04PM",
	"3 PM",
	"3PM",
}

// Parse turns a spreadsheet into snapshot rows. Date and Time are combined
// into the timestamp; counters that do not parse become 0; rate cells keep
// their text for the store to classify. Rows whose timestamp cannot be read
// are skipped and counted in the report.
func Parse(data []byte, format Format) ([]snapshot.Row, Report, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatXLSX:
		records, err = readXLSX(data)
	default:
		records, err = readCSV(data)
	}
	if err != nil {
		return nil, Report{}, err
	}
	return parseRecords(records)
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func parseRecords(records [][]string) ([]snapshot.Row, Report, error) {
	var report Report
	if len(records) == 0 {
		return nil, report, fmt.Errorf("%w: sheet is empty", ErrMissingColumn)
	}

	index := make(map[string]int)
	for i, h := range records[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	col := func(name string) (int, bool) {
		i, ok := index[strings.ToLower(name)]
		return i, ok
	}

	dateIdx, okDate := col(sourceDate)
	timeIdx, okTime := col(sourceTime)
	if !okDate || !okTime {
		var missing []string
		if !okDate {
			missing = append(missing, sourceDate)
		}
		if !okTime {
			missing = append(missing, sourceTime)
		}
		return nil, report, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	for _, name := range append(append([]string{}, counterColumns...), rateColumns...) {
		if _, ok := col(name); !ok {
			report.MissingColumns = append(report.MissingColumns, name)
		}
	}

	cell := func(rec []string, name string) string {
		i, ok := col(name)
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	counter := func(rec []string, name string) float64 {
		raw := cell(rec, name)
		v, ok := parseNumber(raw)
		if !ok && raw != "" {
			report.CoercedValues++
		}
		return v
	}

	rows := make([]snapshot.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		var dateCell, timeCell string
		if dateIdx < len(rec) {
			dateCell = rec[dateIdx]
		}
		if timeIdx < len(rec) {
			timeCell = rec[timeIdx]
		}
		ts, err := ParseTimestamp(dateCell, timeCell)
		if err != nil {
			report.SkippedRows++
			continue
		}
		rows = append(rows, snapshot.Row{
			Timestamp:      ts,
			RoomsSold:      counter(rec, snapshot.ColumnRoomsSold),
			RoomsAvailable: counter(rec, snapshot.ColumnRoomsAvailable),
			Arrivals:       counter(rec, snapshot.ColumnArrivals),
			OOORooms:       counter(rec, snapshot.ColumnOOORooms),
			KingRate:       snapshot.ParseRate(cell(rec, snapshot.ColumnKingRate)),
			QQRate:         snapshot.ParseRate(cell(rec, snapshot.ColumnQQRate)),
		})
	}
	report.Rows = len(rows)
	return rows, report, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseNumber reads a counter cell. Anything that is not a finite number
// yields 0 and false.
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseTimestamp combines a date cell and a time cell. Both may be text in a
// common spreadsheet layout or an Excel serial number.
func ParseTimestamp(dateCell, timeCell string) (time.Time, error) {
	dateCell = strings.TrimSpace(dateCell)
	timeCell = strings.TrimSpace(timeCell)
	if dateCell == "" || timeCell == "" {
		return time.Time{}, errors.New("date or time is empty")
	}

	day, err := parseDate(dateCell)
	if err != nil {
		return time.Time{}, err
	}
	clock, err := parseClock(timeCell)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(clock), nil
}

func parseDate(s string) (time.Time, error) {
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date serial %q: %w", s, err)
		}
		return snapshot.DateOf(t), nil
	}
	// Some exports carry a midnight time on the date cell.
	if i := strings.IndexAny(s, " T"); i > 0 && strings.Contains(s[i:], ":") {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseClock(s string) (time.Duration, error) {
	if frac, err := strconv.ParseFloat(s, 64); err == nil {
		if frac < 0 || frac >= 1 {
			return 0, fmt.Errorf("invalid time fraction %q", s)
		}
		return time.Duration(frac*24*float64(time.Hour) + 0.5).Round(time.Second), nil
	}
	upper := strings.ToUpper(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("unrecognized time %q", s)
}

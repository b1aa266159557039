package snapshot

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/duck"
)

// ErrNoTable is returned by reads before the first sync has created the table.
var ErrNoTable = errors.New("snapshot table does not exist")

const timestampLayout = "2006-01-02 15:04:05"

type StoreConfig struct {
	Logger *slog.Logger
	DB     duck.DB
}

func (cfg *StoreConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.DB == nil {
		return errors.New("database is required")
	}
	return nil
}

// Store reads and replaces the snapshot table.
type Store struct {
	log *slog.Logger
	cfg StoreConfig
}

func NewStore(cfg StoreConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	return &Store{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

func (s *Store) table() string {
	return duck.QualifiedTable(s.cfg.DB, TableName)
}

func selectList() string {
	names := ColumnNames()
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = duck.QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

// Load returns every row whose date lies within r, ordered by timestamp. An
// empty range returns no rows without touching the database.
func (s *Store) Load(ctx context.Context, r DateRange) ([]Row, error) {
	if r.Empty() {
		return []Row{}, nil
	}

	conn, err := s.cfg.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	exists, err := duck.TableExists(ctx, conn, TableName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNoTable
	}

	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE CAST(%s AS DATE) BETWEEN CAST(? AS DATE) AND CAST(? AS DATE)
		ORDER BY %s`,
		selectList(), s.table(), duck.QuoteIdent(ColumnDateTime), duck.QuoteIdent(ColumnDateTime))

	rows, err := conn.QueryContext(ctx, query, r.Start.Format(DateLayout), r.End.Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]Row, 0)
	for rows.Next() {
		var (
			ts                             sql.NullTime
			sold, available, arrivals, ooo sql.NullFloat64
			kingRate, qqRate               sql.NullString
		)
		if err := rows.Scan(&ts, &sold, &available, &arrivals, &ooo, &kingRate, &qqRate); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		if !ts.Valid {
			continue
		}
		out = append(out, Row{
			Timestamp:      ts.Time.UTC(),
			RoomsSold:      sold.Float64,
			RoomsAvailable: available.Float64,
			Arrivals:       arrivals.Float64,
			OOORooms:       ooo.Float64,
			KingRate:       ParseRate(kingRate.String),
			QQRate:         ParseRate(qqRate.String),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot rows: %w", err)
	}

	s.log.Debug("snapshot: rows loaded", "range", r.String(), "count", len(out))
	return out, nil
}

// Extent returns the first and last dates present in the table. ok is false
// when the table is missing or empty.
func (s *Store) Extent(ctx context.Context) (DateRange, bool, error) {
	conn, err := s.cfg.DB.Conn(ctx)
	if err != nil {
		return DateRange{}, false, fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	exists, err := duck.TableExists(ctx, conn, TableName)
	if err != nil {
		return DateRange{}, false, err
	}
	if !exists {
		return DateRange{}, false, nil
	}

	col := duck.QuoteIdent(ColumnDateTime)
	query := fmt.Sprintf(`SELECT MIN(%s), MAX(%s) FROM %s`, col, col, s.table())
	var minTS, maxTS sql.NullTime
	if err := conn.QueryRowContext(ctx, query).Scan(&minTS, &maxTS); err != nil {
		return DateRange{}, false, fmt.Errorf("failed to query extent: %w", err)
	}
	if !minTS.Valid || !maxTS.Valid {
		return DateRange{}, false, nil
	}
	return NewDateRange(minTS.Time, maxTS.Time), true, nil
}

// Replace swaps the table contents for rows in a single transaction.
func (s *Store) Replace(ctx context.Context, rows []Row) error {
	conn, err := s.cfg.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	return duck.ReplaceTableViaCSV(ctx, s.log, conn, duck.TableConfig{
		TableName: TableName,
		Columns:   Columns,
	}, len(rows), func(w *csv.Writer, i int) error {
		return w.Write(EncodeRecord(rows[i]))
	})
}

// EncodeRecord renders a row in stored column order.
func EncodeRecord(r Row) []string {
	return []string{
		r.Timestamp.UTC().Format(timestampLayout),
		formatFloat(r.RoomsSold),
		formatFloat(r.RoomsAvailable),
		formatFloat(r.Arrivals),
		formatFloat(r.OOORooms),
		r.KingRate.String(),
		r.QQRate.String(),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatTimestamp renders a timestamp the way it is stored.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

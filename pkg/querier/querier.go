package querier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/duckdb/duckdb-go/v2"
	"github.com/tidwall/gjson"
)

// ErrNotReadOnly is returned for statements that do not start with SELECT or
// WITH.
var ErrNotReadOnly = errors.New("only SELECT or WITH statements may be executed")

// ErrMultipleStatements is returned when the query holds more than one
// statement.
var ErrMultipleStatements = errors.New("only a single statement may be executed")

// Querier executes ad-hoc SQL against the snapshot store without ever
// committing: every statement runs in a transaction that is rolled back.
type Querier struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Querier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate querier config: %w", err)
	}
	return &Querier{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

type QueryResponse struct {
	SQL       string     `json:"sql"`
	Columns   []string   `json:"columns"`
	Rows      []QueryRow `json:"rows"`
	Count     int        `json:"count"`
	Truncated bool       `json:"truncated,omitempty"`
}

type QueryRow map[string]any

// LeadingKeyword returns the first SQL keyword of query, upper-cased, skipping
// whitespace, comments and opening parentheses.
func LeadingKeyword(query string) string {
	s := query
	for {
		s = strings.TrimLeft(s, " \t\r\n(")
		switch {
		case strings.HasPrefix(s, "--"):
			if i := strings.IndexByte(s, '\n'); i >= 0 {
				s = s[i+1:]
				continue
			}
			return ""
		case strings.HasPrefix(s, "/*"):
			if i := strings.Index(s, "*/"); i >= 0 {
				s = s[i+2:]
				continue
			}
			return ""
		}
		break
	}
	end := strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_')
	})
	if end < 0 {
		end = len(s)
	}
	return strings.ToUpper(s[:end])
}

func (q *Querier) Query(ctx context.Context, query string) (QueryResponse, error) {
	query = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(query), ";"))
	switch LeadingKeyword(query) {
	case "SELECT", "WITH":
	default:
		return QueryResponse{SQL: query}, ErrNotReadOnly
	}

	start := time.Now()
	conn, err := q.cfg.DB.Conn(ctx)
	if err != nil {
		return QueryResponse{SQL: query}, fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return QueryResponse{SQL: query}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			q.log.Warn("querier: rollback failed", "error", err)
		}
	}()

	if err := checkSingleSelect(ctx, tx, query); err != nil {
		return QueryResponse{SQL: query}, err
	}

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return QueryResponse{SQL: query}, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return QueryResponse{SQL: query}, fmt.Errorf("failed to get columns: %w", err)
	}

	resp := QueryResponse{SQL: query, Columns: columns, Rows: []QueryRow{}}
	for rows.Next() {
		if len(resp.Rows) >= q.cfg.MaxRows {
			resp.Truncated = true
			break
		}

		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return QueryResponse{SQL: query}, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(QueryRow, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		resp.Rows = append(resp.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return QueryResponse{SQL: query}, fmt.Errorf("error iterating rows: %w", err)
	}
	resp.Count = len(resp.Rows)

	q.log.Debug("querier: query executed", "rows", resp.Count, "truncated", resp.Truncated, "duration", time.Since(start).String())
	return resp, nil
}

// checkSingleSelect asks DuckDB's parser whether query is exactly one SELECT
// statement. The driver runs every statement of a multi-statement string, so
// a COMMIT in the middle would end the read-only transaction.
func checkSingleSelect(ctx context.Context, tx *sql.Tx, query string) error {
	var parsed string
	if err := tx.QueryRowContext(ctx, "SELECT CAST(json_serialize_sql(?) AS VARCHAR)", query).Scan(&parsed); err != nil {
		return fmt.Errorf("failed to parse query: %w", err)
	}
	if gjson.Get(parsed, "error").Bool() {
		msg := gjson.Get(parsed, "error_message").String()
		if strings.EqualFold(gjson.Get(parsed, "error_type").String(), "parser") {
			return fmt.Errorf("failed to parse query: %s", msg)
		}
		// Any statement other than SELECT fails to serialize.
		return fmt.Errorf("%w: %s", ErrNotReadOnly, msg)
	}
	if n := gjson.Get(parsed, "statements.#").Int(); n != 1 {
		return fmt.Errorf("%w: found %d", ErrMultipleStatements, n)
	}
	return nil
}

// normalizeValue maps driver-specific types onto plain Go values so callers
// only see strings, bools, int64, float64, time.Time and nil.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case int:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	case *big.Int:
		if val == nil {
			return nil
		}
		if val.IsInt64() {
			return val.Int64()
		}
		f, _ := new(big.Float).SetInt(val).Float64()
		return f
	case duckdb.Decimal:
		return decimalToFloat(val)
	default:
		return v
	}
}

func decimalToFloat(d duckdb.Decimal) float64 {
	if d.Value == nil {
		return 0
	}
	f := new(big.Float).SetInt(d.Value)
	if d.Scale > 0 {
		scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d.Scale)), nil))
		f.Quo(f, scale)
	}
	out, _ := f.Float64()
	return out
}

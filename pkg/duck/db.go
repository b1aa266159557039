package duck

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// DB is a handle to a DuckDB database. Every connection handed out by Conn
// shares the same underlying database instance.
type DB interface {
	Catalog() string
	Schema() string
	Conn(ctx context.Context) (Connection, error)
	Close() error
}

type Connection interface {
	DB() DB
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}

type duckDB struct {
	log     *slog.Logger
	db      *sql.DB
	path    string
	catalog string
	schema  string
}

type duckConnection struct {
	conn *sql.Conn
	db   *duckDB
}

func (c *duckConnection) DB() DB {
	return c.db
}

func (c *duckConnection) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.conn.ExecContext(ctx, query, args...)
}

func (c *duckConnection) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.conn.QueryContext(ctx, query, args...)
}

func (c *duckConnection) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.conn.QueryRowContext(ctx, query, args...)
}

func (c *duckConnection) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return c.conn.BeginTx(ctx, opts)
}

func (c *duckConnection) Close() error {
	return c.conn.Close()
}

// NewDB opens a local DuckDB database file, creating parent directories as
// needed. An empty path opens an in-memory database.
func NewDB(ctx context.Context, path string, log *slog.Logger) (*duckDB, error) {
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	var catalog, schema string
	if err := db.QueryRowContext(ctx, "SELECT current_database(), current_schema()").Scan(&catalog, &schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to resolve catalog: %w", err)
	}

	log.Debug("duck: database opened", "path", path, "catalog", catalog, "schema", schema)

	return &duckDB{
		log:     log,
		db:      db,
		path:    path,
		catalog: catalog,
		schema:  schema,
	}, nil
}

func (d *duckDB) Catalog() string {
	return d.catalog
}

func (d *duckDB) Schema() string {
	return d.schema
}

func (d *duckDB) Conn(ctx context.Context) (Connection, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return &duckConnection{conn: conn, db: d}, nil
}

func (d *duckDB) Close() error {
	return d.db.Close()
}

// QualifiedTable returns the fully qualified, quoted name of a table in db.
func QualifiedTable(db DB, table string) string {
	return QuoteIdent(db.Catalog()) + "." + QuoteIdent(db.Schema()) + "." + QuoteIdent(table)
}

// QuoteIdent quotes a SQL identifier. Column names in the metrics table carry
// spaces, so every generated statement goes through here.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// TableExists reports whether table is present in the database's main schema.
func TableExists(ctx context.Context, conn Connection, table string) (bool, error) {
	db := conn.DB()
	var n int
	err := conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM duckdb_tables() WHERE database_name = ? AND schema_name = ? AND table_name = ?`,
		db.Catalog(), db.Schema(), table,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return n > 0, nil
}

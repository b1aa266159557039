package duck

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// TableConfig describes a table that is fully rewritten on every load.
type TableConfig struct {
	// TableName is the name of the target table.
	TableName string
	// Columns defines all columns in order as name:type pairs, e.g.
	// "DateTime:TIMESTAMP". Names may contain spaces.
	Columns []string
}

type column struct {
	name string
	typ  string
}

func (cfg TableConfig) parseColumns() ([]column, error) {
	if cfg.TableName == "" {
		return nil, fmt.Errorf("table name is required")
	}
	if len(cfg.Columns) == 0 {
		return nil, fmt.Errorf("columns cannot be empty")
	}
	cols := make([]column, 0, len(cfg.Columns))
	for _, col := range cfg.Columns {
		idx := strings.LastIndex(col, ":")
		if idx <= 0 || idx == len(col)-1 {
			return nil, fmt.Errorf("invalid column definition %q: expected format 'name:type'", col)
		}
		cols = append(cols, column{
			name: strings.TrimSpace(col[:idx]),
			typ:  strings.TrimSpace(col[idx+1:]),
		})
	}
	return cols, nil
}

// ReplaceTableViaCSV atomically replaces the contents of a table:
//   - Writes all rows to a temporary CSV file
//   - Loads the CSV into a staging table inside a transaction
//   - Recreates the target table and fills it from the stage
//
// Readers see either the previous contents or the new contents, never a mix.
// Zero rows still recreate the table, leaving it empty.
func ReplaceTableViaCSV(
	ctx context.Context,
	log *slog.Logger,
	conn Connection,
	cfg TableConfig,
	count int,
	writeCSVFn func(*csv.Writer, int) error,
) error {
	start := time.Now()
	defer func() {
		log.Debug("table replace completed",
			"table", cfg.TableName,
			"rows", count,
			"duration", time.Since(start).String())
	}()

	cols, err := cfg.parseColumns()
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp("", fmt.Sprintf("%s_replace_*.csv", cfg.TableName))
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	csvWriter := csv.NewWriter(tmpFile)
	for i := range count {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during CSV writing: %w", ctx.Err())
		default:
		}

		if err := writeCSVFn(csvWriter, i); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync CSV: %w", err)
	}

	db := conn.DB()
	target := QualifiedTable(db, cfg.TableName)
	stage := QuoteIdent(cfg.TableName + "_stage")

	colDefs := make([]string, 0, len(cols))
	stageDefs := make([]string, 0, len(cols))
	colNames := make([]string, 0, len(cols))
	for _, c := range cols {
		colDefs = append(colDefs, fmt.Sprintf("%s %s", QuoteIdent(c.name), c.typ))
		stageDefs = append(stageDefs, fmt.Sprintf("%s VARCHAR", QuoteIdent(c.name)))
		colNames = append(colNames, QuoteIdent(c.name))
	}
	colList := strings.Join(colNames, ", ")

	return retryWithBackoff(ctx, log, fmt.Sprintf("replace table %s", cfg.TableName), func() error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction for %s: %w", cfg.TableName, err)
		}
		defer func() {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				log.Error("failed to rollback transaction", "table", cfg.TableName, "error", err)
			}
		}()

		createSQL := fmt.Sprintf("CREATE OR REPLACE TABLE %s (\n\t%s\n)", target, strings.Join(colDefs, ",\n\t"))
		if _, err := tx.ExecContext(ctx, createSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}

		if count > 0 {
			stageSQL := fmt.Sprintf("CREATE OR REPLACE TEMP TABLE %s (%s)", stage, strings.Join(stageDefs, ", "))
			if _, err := tx.ExecContext(ctx, stageSQL); err != nil {
				return fmt.Errorf("failed to create stage table: %w", err)
			}

			copySQL := fmt.Sprintf("COPY %s FROM '%s' (FORMAT CSV, HEADER false)", stage, strings.ReplaceAll(tmpFile.Name(), "'", "''"))
			if _, err := tx.ExecContext(ctx, copySQL); err != nil {
				return fmt.Errorf("failed to COPY FROM CSV: %w", err)
			}

			insertSQL := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", target, colList, colList, stage)
			if _, err := tx.ExecContext(ctx, insertSQL); err != nil {
				return fmt.Errorf("failed to insert into %s: %w", cfg.TableName, err)
			}

			if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", stage)); err != nil {
				log.Error("failed to drop stage table", "error", err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

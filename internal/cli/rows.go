package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/snapshot"
	"github.com/spf13/cobra"
)

type RowsCmd struct{}

func NewRowsCmd() *RowsCmd {
	return &RowsCmd{}
}

func (c *RowsCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rows",
		Short: "Export the snapshot rows for a date range as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGlobals(cmd)
			if err != nil {
				return err
			}
			outPath, err := cmd.Flags().GetString("out")
			if err != nil {
				return fmt.Errorf("failed to get out flag: %w", err)
			}

			log := g.logger()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			db, store, err := openStore(ctx, log, g.dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			provider, err := newProvider(log, store, g.capacity)
			if err != nil {
				return err
			}
			defer provider.Close()

			r, err := resolveRangeFlags(ctx, cmd, provider)
			if err != nil {
				return err
			}
			rows, err := provider.GetRows(ctx, r)
			if err != nil {
				return fmt.Errorf("failed to load rows: %w", err)
			}

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				file, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("failed to create CSV file: %w", err)
				}
				defer file.Close()
				w = file
			}
			if err := snapshot.WriteCSV(w, rows); err != nil {
				return fmt.Errorf("failed to write CSV: %w", err)
			}
			if outPath != "" {
				log.Info("rows: exported", "rows", len(rows), "path", outPath, "range", r.String())
			}
			return nil
		},
	}

	addRangeFlags(cmd)
	cmd.Flags().String("out", "", "Path to write the CSV to (defaults to stdout)")
	return cmd
}

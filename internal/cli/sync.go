package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/sheetsync"
	"github.com/spf13/cobra"
)

type SyncCmd struct{}

func NewSyncCmd() *SyncCmd {
	return &SyncCmd{}
}

func (c *SyncCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download the spreadsheet and replace the snapshot table",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGlobals(cmd)
			if err != nil {
				return err
			}
			source, err := cmd.Flags().GetString("source")
			if err != nil {
				return fmt.Errorf("failed to get source flag: %w", err)
			}
			if source == "" {
				return errors.New("a spreadsheet source is required (--source or HOTEL_SHEET_URL)")
			}

			log := g.logger()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			db, store, err := openStore(ctx, log, g.dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			syncer, err := newSyncer(log, source, store, nil, 0)
			if err != nil {
				return err
			}
			res, err := syncer.Sync(ctx)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Synced %d rows in %s\n", res.Rows, res.Duration.Round(time.Millisecond))
			if res.SkippedRows > 0 {
				fmt.Fprintf(out, "Skipped %d rows with an unreadable date or time\n", res.SkippedRows)
			}
			for _, name := range res.MissingColumns {
				fmt.Fprintf(out, "Column %q missing from sheet; filled with defaults\n", name)
			}
			return nil
		},
	}

	cmd.Flags().String("source", "", "Published CSV URL or local .csv/.xlsx path (HOTEL_SHEET_URL)")
	return cmd
}

func newSyncer(log *slog.Logger, source string, store sheetsync.Replacer, onReplace func(), interval time.Duration) (*sheetsync.Syncer, error) {
	fetcher, err := sheetsync.NewFetcher(sheetsync.FetcherConfig{Logger: log})
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}
	syncer, err := sheetsync.NewSyncer(sheetsync.SyncerConfig{
		Logger:          log,
		Fetcher:         fetcher,
		Store:           store,
		Source:          source,
		OnReplace:       onReplace,
		RefreshInterval: interval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create syncer: %w", err)
	}
	return syncer, nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/dashboard"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/kpi"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/snapshot"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type KPIsCmd struct{}

func NewKPIsCmd() *KPIsCmd {
	return &KPIsCmd{}
}

func (c *KPIsCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kpis",
		Short: "Show the KPI summary for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGlobals(cmd)
			if err != nil {
				return err
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
			summary, err := provider.GetKPIs(ctx, r)
			if err != nil {
				return fmt.Errorf("failed to compute KPIs: %w", err)
			}

			printKPIs(cmd.OutOrStdout(), r, summary)
			return nil
		},
	}

	addRangeFlags(cmd)
	return cmd
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "Start date YYYY-MM-DD (defaults to the first synced day)")
	cmd.Flags().String("to", "", "End date YYYY-MM-DD (defaults to the last synced day)")
}

func resolveRangeFlags(ctx context.Context, cmd *cobra.Command, p dashboard.Provider) (snapshot.DateRange, error) {
	from, err := cmd.Flags().GetString("from")
	if err != nil {
		return snapshot.DateRange{}, fmt.Errorf("failed to get from flag: %w", err)
	}
	to, err := cmd.Flags().GetString("to")
	if err != nil {
		return snapshot.DateRange{}, fmt.Errorf("failed to get to flag: %w", err)
	}
	return dashboard.ResolveRange(ctx, p, from, to)
}

type closingProvider interface {
	dashboard.Provider
	Close()
}

func newProvider(log *slog.Logger, store dashboard.Store, capacity int) (closingProvider, error) {
	provider, err := dashboard.NewProvider(&dashboard.ProviderConfig{
		Logger:   log,
		Store:    store,
		Capacity: capacity,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	return provider, nil
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader(header)
	return table
}

func printKPIs(w io.Writer, r snapshot.DateRange, s kpi.Summary) {
	fmt.Fprintln(w, "Range:", r.String())
	if s.NoData {
		fmt.Fprintln(w, "No data for the selected range.")
		return
	}

	table := newTable(w, []string{"KPI", "Value"})
	table.AppendBulk([][]string{
		{"Average occupancy", fmt.Sprintf("%.2f%%", s.OccupancyPct)},
		{"Average arrivals", fmt.Sprintf("%.2f", s.AvgArrivals)},
		{"King sold-out days", fmt.Sprintf("%d (%.1f%%)", s.SoldOutCounts.King, s.SoldOutPct.King)},
		{"QQ sold-out days", fmt.Sprintf("%d (%.1f%%)", s.SoldOutCounts.QQ, s.SoldOutPct.QQ)},
		{"OOO room-nights", fmt.Sprintf("%.0f", s.OOOTotal)},
		{"Days with OOO rooms", fmt.Sprintf("%d (%.1f%%)", s.OOODays, s.OOODayPct)},
		{"Average King rate", fmt.Sprintf("$%.2f", s.AvgKingRate)},
		{"Average QQ rate", fmt.Sprintf("$%.2f", s.AvgQQRate)},
		{"Days", fmt.Sprintf("%d", s.TotalDays)},
	})
	table.Render()
}

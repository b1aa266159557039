package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/dashboard"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/resample"
	"github.com/spf13/cobra"
)

type TrendCmd struct{}

func NewTrendCmd() *TrendCmd {
	return &TrendCmd{}
}

func (c *TrendCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show a metric resampled by day, week or month",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGlobals(cmd)
			if err != nil {
				return err
			}
			metricStr, err := cmd.Flags().GetString("metric")
			if err != nil {
				return fmt.Errorf("failed to get metric flag: %w", err)
			}
			granularityStr, err := cmd.Flags().GetString("granularity")
			if err != nil {
				return fmt.Errorf("failed to get granularity flag: %w", err)
			}
			hour, err := cmd.Flags().GetInt("hour")
			if err != nil {
				return fmt.Errorf("failed to get hour flag: %w", err)
			}

			metric, err := resample.ParseMetric(metricStr)
			if err != nil {
				return err
			}
			granularity, err := resample.ParseGranularity(granularityStr)
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

			req := dashboard.NewTrendRequest(metric, granularity, r)
			if cmd.Flags().Changed("hour") {
				req.Hour = hour
			}
			points, err := provider.GetTrend(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to compute trend: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s at %02d:00, by %s, %s\n", req.Metric, req.Hour, req.Granularity, r.String())
			if len(points) == 0 {
				fmt.Fprintln(out, "No data for the selected range.")
				return nil
			}
			table := newTable(out, []string{"Period", "Value", "Samples"})
			for _, p := range points {
				table.Append([]string{p.Label, fmt.Sprintf("%.2f", p.Value), fmt.Sprintf("%d", p.Samples)})
			}
			table.Render()
			return nil
		},
	}

	addRangeFlags(cmd)
	cmd.Flags().String("metric", string(resample.MetricOccupancy), "Metric to chart (occupancy, rooms_sold, rooms_available, arrivals, ooo_rooms, king_rate, qq_rate)")
	cmd.Flags().String("granularity", string(dashboard.DefaultGranularity), "Bucket size (day, week, month)")
	cmd.Flags().Int("hour", 0, "Snapshot hour to sample (defaults to 15 for arrivals, 21 otherwise)")
	return cmd
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/duck"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/logger"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/metrics"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/snapshot"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

const defaultDBPath = ".data/hotel.duckdb"

// envOverrides maps flag names to the environment variables that set them
// when the flag is not given on the command line.
var envOverrides = map[string]string{
	"db-path":       "HOTEL_DB_PATH",
	"capacity":      "HOTEL_CAPACITY",
	"source":        "HOTEL_SHEET_URL",
	"api-key":       "ANTHROPIC_API_KEY",
	"model":         "ANTHROPIC_MODEL",
	"sync-interval": "HOTEL_SYNC_INTERVAL",
	"http-addr":     "HOTEL_HTTP_ADDR",
	"metrics-addr":  "HOTEL_METRICS_ADDR",
}

type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

func Run(info BuildInfo) ExitCode {
	metrics.BuildInfo.WithLabelValues(info.Version, info.Commit, info.Date).Set(1)

	rootCmd := NewRootCmd(info)
	if err := rootCmd.Execute(); err != nil {
		return exitCodeError
	}
	return exitCodeSuccess
}

func NewRootCmd(info BuildInfo) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "hotelpulse",
		Short:   "Hotel occupancy dashboard and question answering over daily snapshots.",
		Version: fmt.Sprintf("%s (commit %s, built %s)", info.Version, info.Commit, info.Date),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			envFile, err := cmd.Flags().GetString("env-file")
			if err != nil {
				return fmt.Errorf("failed to get env-file flag: %w", err)
			}
			if err := loadEnvFile(envFile); err != nil {
				return err
			}
			return applyEnv(cmd.Flags(), os.LookupEnv)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			err := cmd.Help()
			if err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "set debug logging level")
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a .env file to load if present")
	rootCmd.PersistentFlags().String("db-path", defaultDBPath, "Path to the DuckDB database file (HOTEL_DB_PATH)")
	rootCmd.PersistentFlags().Int("capacity", snapshot.DefaultCapacity, "Number of rooms in the property (HOTEL_CAPACITY)")

	rootCmd.AddCommand(
		NewSyncCmd().Command(),
		NewKPIsCmd().Command(),
		NewTrendCmd().Command(),
		NewRowsCmd().Command(),
		NewAskCmd().Command(),
		NewServeCmd(info).Command(),
	)
	return rootCmd
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// applyEnv sets every flag that was not given explicitly from its
// environment variable, if one is set.
func applyEnv(flags *pflag.FlagSet, lookup func(string) (string, bool)) error {
	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		name, ok := envOverrides[f.Name]
		if !ok || f.Changed {
			return
		}
		v, ok := lookup(name)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		if err := flags.Set(f.Name, strings.TrimSpace(v)); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", name, err))
		}
	})
	return errors.Join(errs...)
}

// globals are the persistent flags shared by every subcommand.
type globals struct {
	verbose  bool
	dbPath   string
	capacity int
}

func readGlobals(cmd *cobra.Command) (globals, error) {
	var g globals
	var err error
	if g.verbose, err = cmd.Flags().GetBool("verbose"); err != nil {
		return g, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	if g.dbPath, err = cmd.Flags().GetString("db-path"); err != nil {
		return g, fmt.Errorf("failed to get db-path flag: %w", err)
	}
	if g.capacity, err = cmd.Flags().GetInt("capacity"); err != nil {
		return g, fmt.Errorf("failed to get capacity flag: %w", err)
	}
	if g.capacity <= 0 {
		return g, fmt.Errorf("capacity must be greater than 0, got %d", g.capacity)
	}
	return g, nil
}

func (g globals) logger() *slog.Logger {
	return logger.New(g.verbose)
}

// openStore opens the database and the snapshot store on top of it. Callers
// close the returned DB.
func openStore(ctx context.Context, log *slog.Logger, path string) (duck.DB, *snapshot.Store, error) {
	db, err := duck.NewDB(ctx, path, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	store, err := snapshot.NewStore(snapshot.StoreConfig{Logger: log, DB: db})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create store: %w", err)
	}
	return db, store, nil
}

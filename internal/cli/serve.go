package cli

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const (
	defaultHTTPAddr     = "0.0.0.0:8501"
	defaultMetricsAddr  = "0.0.0.0:8080"
	defaultSyncInterval = 15 * time.Minute
)

type ServeCmd struct {
	info BuildInfo
}

func NewServeCmd(info BuildInfo) *ServeCmd {
	return &ServeCmd{info: info}
}

func (c *ServeCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API, refreshing the snapshot table on an interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGlobals(cmd)
			if err != nil {
				return err
			}
			source, err := cmd.Flags().GetString("source")
			if err != nil {
				return fmt.Errorf("failed to get source flag: %w", err)
			}
			syncInterval, err := cmd.Flags().GetDuration("sync-interval")
			if err != nil {
				return fmt.Errorf("failed to get sync-interval flag: %w", err)
			}
			httpAddr, err := cmd.Flags().GetString("http-addr")
			if err != nil {
				return fmt.Errorf("failed to get http-addr flag: %w", err)
			}
			metricsAddr, err := cmd.Flags().GetString("metrics-addr")
			if err != nil {
				return fmt.Errorf("failed to get metrics-addr flag: %w", err)
			}

			log := g.logger()
			log.Info("serve: starting", "version", c.info.Version, "commit", c.info.Commit)

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			metricsServerErrCh := make(chan error, 1)
			if metricsAddr != "" {
				go func() {
					listener, err := net.Listen("tcp", metricsAddr)
					if err != nil {
						log.Error("failed to start prometheus metrics server listener", "error", err)
						metricsServerErrCh <- err
						return
					}
					log.Info("prometheus metrics server listening", "address", listener.Addr().String())
					mux := http.NewServeMux()
					mux.Handle("/metrics", promhttp.Handler())
					if err := http.Serve(listener, mux); err != nil {
						log.Error("failed to start prometheus metrics server", "error", err)
						metricsServerErrCh <- err
						return
					}
				}()
			}

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

			cfg := server.Config{Logger: log, Provider: provider}

			if source != "" {
				syncer, err := newSyncer(log, source, store, provider.Invalidate, syncInterval)
				if err != nil {
					return err
				}
				syncer.Start(ctx)
				cfg.Readiness = syncer
			} else {
				log.Warn("serve: no spreadsheet source configured, serving the existing table")
			}

			if llm, err := llmFromFlags(cmd, log); err == nil {
				p, err := newPipeline(log, db, llm, g.capacity)
				if err != nil {
					return err
				}
				cfg.Asker = p
			} else {
				log.Warn("serve: question answering disabled", "reason", err)
			}

			httpListener, err := net.Listen("tcp", httpAddr)
			if err != nil {
				return fmt.Errorf("failed to create HTTP listener: %w", err)
			}
			defer httpListener.Close()
			cfg.HTTPListener = httpListener

			srv, err := server.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			serverErrCh := make(chan error, 1)
			go func() {
				serverErrCh <- srv.Run(ctx)
			}()

			select {
			case err := <-serverErrCh:
				if err != nil {
					log.Error("server: server error causing shutdown", "error", err)
				}
				return err
			case err := <-metricsServerErrCh:
				log.Error("server: metrics server error causing shutdown", "error", err)
				cancel()
				return errors.Join(err, <-serverErrCh)
			}
		},
	}

	cmd.Flags().String("source", "", "Published CSV URL or local .csv/.xlsx path (HOTEL_SHEET_URL)")
	cmd.Flags().Duration("sync-interval", defaultSyncInterval, "How often to refresh the snapshot table, 0 to sync once (HOTEL_SYNC_INTERVAL)")
	cmd.Flags().String("http-addr", defaultHTTPAddr, "HTTP API listen address (HOTEL_HTTP_ADDR)")
	cmd.Flags().String("metrics-addr", defaultMetricsAddr, "Prometheus metrics listen address, empty to disable (HOTEL_METRICS_ADDR)")
	addLLMFlags(cmd)
	return cmd
}

package sheetsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/metrics"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/snapshot"
	"github.com/jonboulle/clockwork"
)

// Replacer swaps the stored snapshot table for a new set of rows.
type Replacer interface {
	Replace(ctx context.Context, rows []snapshot.Row) error
}

// SheetFetcher returns the raw spreadsheet for a source.
type SheetFetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, Format, error)
}

type SyncerConfig struct {
	Logger  *slog.Logger
	Clock   clockwork.Clock
	Fetcher SheetFetcher
	Store   Replacer
	Source  string

	// OnReplace runs after every successful replacement, e.g. to drop
	// cached aggregates.
	OnReplace func()

	RefreshInterval time.Duration
}

func (cfg *SyncerConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Fetcher == nil {
		return errors.New("fetcher is required")
	}
	if cfg.Store == nil {
		return errors.New("store is required")
	}
	if cfg.Source == "" {
		return errors.New("source is required")
	}

	// Optional with default
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Result summarizes one sync.
type Result struct {
	Report
	SyncedAt time.Time
	Duration time.Duration
}

// Syncer pulls the spreadsheet and replaces the snapshot table, once or on
// an interval.
type Syncer struct {
	log *slog.Logger
	cfg SyncerConfig

	mu   sync.Mutex
	last Result

	readyOnce sync.Once
	readyCh   chan struct{}
}

func NewSyncer(cfg SyncerConfig) (*Syncer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	return &Syncer{
		log:     cfg.Logger,
		cfg:     cfg,
		readyCh: make(chan struct{}),
	}, nil
}

// Ready reports whether at least one sync has completed.
func (s *Syncer) Ready() bool {
	select {
	case <-s.readyCh:
		return true
	default:
		return false
	}
}

func (s *Syncer) WaitReady(ctx context.Context) error {
	select {
	case <-s.readyCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for sheet sync: %w", ctx.Err())
	}
}

// LastResult returns the outcome of the most recent successful sync.
func (s *Syncer) LastResult() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Start runs an initial sync and then one per refresh interval until ctx is
// done. A zero interval syncs once.
func (s *Syncer) Start(ctx context.Context) {
	go func() {
		s.log.Info("sync: starting refresh loop", "interval", s.cfg.RefreshInterval)

		if _, err := s.Sync(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.log.Error("sync: initial sync failed", "error", err)
		}
		if s.cfg.RefreshInterval <= 0 {
			return
		}

		ticker := s.cfg.Clock.NewTicker(s.cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if _, err := s.Sync(ctx); err != nil {
					if errors.Is(err, context.Canceled) {
						return
					}
					s.log.Error("sync: refresh failed", "error", err)
				}
			}
		}
	}()
}

// Sync fetches the sheet, parses it and replaces the table. The previous
// table is left untouched on any failure.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	start := s.cfg.Clock.Now()
	status := "error"
	defer func() {
		metrics.SyncRunsTotal.WithLabelValues(status).Inc()
		metrics.SyncDuration.Observe(s.cfg.Clock.Since(start).Seconds())
	}()

	data, format, err := s.cfg.Fetcher.Fetch(ctx, s.cfg.Source)
	if err != nil {
		return Result{}, err
	}

	rows, report, err := Parse(data, format)
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse sheet: %w", err)
	}
	for _, name := range report.MissingColumns {
		s.log.Warn("sync: column missing from sheet, filling with defaults", "column", name)
	}
	if report.SkippedRows > 0 {
		s.log.Warn("sync: skipped rows with unreadable date or time", "count", report.SkippedRows)
	}
	if report.CoercedValues > 0 {
		s.log.Debug("sync: non-numeric counters replaced with 0", "count", report.CoercedValues)
	}

	if err := s.cfg.Store.Replace(ctx, rows); err != nil {
		return Result{}, fmt.Errorf("failed to replace snapshot table: %w", err)
	}
	if s.cfg.OnReplace != nil {
		s.cfg.OnReplace()
	}

	res := Result{
		Report:   report,
		SyncedAt: s.cfg.Clock.Now(),
		Duration: s.cfg.Clock.Since(start),
	}
	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	status = "success"
	metrics.SyncRows.Set(float64(report.Rows))
	s.readyOnce.Do(func() { close(s.readyCh) })
	s.log.Info("sync: table replaced", "rows", report.Rows, "format", format, "duration", res.Duration.String())
	return res, nil
}

package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/dashboard"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/pipeline"
)

const (
	defaultReadHeaderTimeout = 10 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
)

// Asker answers natural-language questions.
type Asker interface {
	Ask(ctx context.Context, question string) (*pipeline.Artifact, error)
}

// ReadinessChecker reports whether the snapshot table has been synced.
type ReadinessChecker interface {
	Ready() bool
}

type Config struct {
	Logger       *slog.Logger
	HTTPListener net.Listener
	Provider     dashboard.Provider

	// Asker is optional; /api/ask answers 503 without it.
	Asker Asker
	// Readiness is optional; /readyz is always ok without it.
	Readiness ReadinessChecker

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.HTTPListener == nil {
		return errors.New("http listener is required")
	}
	if cfg.Provider == nil {
		return errors.New("provider is required")
	}

	// Optional with defaults
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	return nil
}

package querier

import (
	"errors"
	"log/slog"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/duck"
)

const defaultMaxRows = 1000

type Config struct {
	Logger *slog.Logger
	DB     duck.DB

	// MaxRows caps the rows materialized from a single query.
	MaxRows int
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.DB == nil {
		return errors.New("database is required")
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = defaultMaxRows
	}
	return nil
}

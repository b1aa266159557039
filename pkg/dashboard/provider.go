package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/kpi"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/resample"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/snapshot"
	"github.com/alitto/pond/v2"
	"github.com/jellydator/ttlcache/v3"
)

const (
	defaultCacheTTL = 5 * time.Minute
	defaultPoolSize = 8
)

type Provider interface {
	GetKPIs(ctx context.Context, r snapshot.DateRange) (kpi.Summary, error)
	GetTrend(ctx context.Context, req TrendRequest) ([]resample.Point, error)
	GetDashboard(ctx context.Context, r snapshot.DateRange, g resample.Granularity) (*Dashboard, error)
	GetRows(ctx context.Context, r snapshot.DateRange) ([]snapshot.Row, error)
	DefaultRange(ctx context.Context) (snapshot.DateRange, bool, error)
	Invalidate()
}

// Store is the read side of the snapshot store.
type Store interface {
	Load(ctx context.Context, r snapshot.DateRange) ([]snapshot.Row, error)
	Extent(ctx context.Context) (snapshot.DateRange, bool, error)
}

type provider struct {
	log *slog.Logger
	cfg *ProviderConfig

	cache   *ttlcache.Cache[string, any]
	cacheMu sync.RWMutex

	// generation counts Invalidate calls; guarded by cacheMu.
	generation uint64

	trendPool pond.ResultPool[[]resample.Point]
}

type ProviderConfig struct {
	Logger   *slog.Logger
	Store    Store
	Capacity int

	CacheTTL time.Duration
	PoolSize int
}

func (c *ProviderConfig) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Store == nil {
		return errors.New("store is required")
	}
	if c.Capacity <= 0 {
		return errors.New("capacity must be greater than 0")
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = defaultCacheTTL
	}
	if c.PoolSize == 0 {
		c.PoolSize = defaultPoolSize
	}
	return nil
}

func NewProvider(cfg *ProviderConfig) (*provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cache := ttlcache.New(
		ttlcache.WithTTL[string, any](cfg.CacheTTL),
	)

	return &provider{
		log:       cfg.Logger,
		cfg:       cfg,
		cache:     cache,
		trendPool: pond.NewResultPool[[]resample.Point](cfg.PoolSize),
	}, nil
}

// Close stops the worker pool.
func (p *provider) Close() {
	p.trendPool.StopAndWait()
}

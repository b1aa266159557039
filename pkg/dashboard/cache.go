package dashboard

import (
	"fmt"
	"slices"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/kpi"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/metrics"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/resample"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/snapshot"
)

func (p *provider) getCachedKPIs(r snapshot.DateRange) (kpi.Summary, bool) {
	p.cacheMu.RLock()
	defer p.cacheMu.RUnlock()
	cached := p.cache.Get(kpisCacheKey(r))
	if cached == nil {
		metrics.DashboardCacheTotal.WithLabelValues("kpis", "miss").Inc()
		return kpi.Summary{}, false
	}
	metrics.DashboardCacheTotal.WithLabelValues("kpis", "hit").Inc()
	return cached.Value().(kpi.Summary), true
}

// cacheGeneration identifies the table contents results are computed from.
// Read it before loading rows and pass it to the set functions.
func (p *provider) cacheGeneration() uint64 {
	p.cacheMu.RLock()
	defer p.cacheMu.RUnlock()
	return p.generation
}

// setCachedKPIs is a no-op when the table was replaced after gen was read.
func (p *provider) setCachedKPIs(gen uint64, r snapshot.DateRange, s kpi.Summary) {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	if gen != p.generation {
		return
	}
	p.cache.Set(kpisCacheKey(r), s, p.cfg.CacheTTL)
}

func (p *provider) getCachedTrend(req TrendRequest) ([]resample.Point, bool) {
	p.cacheMu.RLock()
	defer p.cacheMu.RUnlock()
	cached := p.cache.Get(trendCacheKey(req))
	if cached == nil {
		metrics.DashboardCacheTotal.WithLabelValues("trend", "miss").Inc()
		return nil, false
	}
	metrics.DashboardCacheTotal.WithLabelValues("trend", "hit").Inc()
	return slices.Clone(cached.Value().([]resample.Point)), true
}

func (p *provider) setCachedTrend(gen uint64, req TrendRequest, points []resample.Point) {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	if gen != p.generation {
		return
	}
	p.cache.Set(trendCacheKey(req), points, p.cfg.CacheTTL)
}

// Invalidate drops every cached aggregate. It must be called whenever the
// store's table is replaced.
func (p *provider) Invalidate() {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	p.generation++
	p.cache.DeleteAll()
}

func kpisCacheKey(r snapshot.DateRange) string {
	return fmt.Sprintf("kpis:%s", r)
}

func trendCacheKey(req TrendRequest) string {
	return fmt.Sprintf("trend:%s:%d:%s:%s", req.Metric, req.Hour, req.Granularity, req.Range)
}

package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/kpi"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/resample"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/snapshot"
)

const DefaultGranularity = resample.Week

// ErrInvalidRequest marks caller errors such as an unknown metric.
var ErrInvalidRequest = errors.New("invalid request")

type TrendRequest struct {
	Metric      resample.Metric
	Hour        int
	Granularity resample.Granularity
	Range       snapshot.DateRange
}

// NewTrendRequest builds a request sampled at the metric's usual hour.
func NewTrendRequest(m resample.Metric, g resample.Granularity, r snapshot.DateRange) TrendRequest {
	return TrendRequest{Metric: m, Hour: m.DefaultHour(), Granularity: g, Range: r}
}

func (req TrendRequest) Validate() error {
	if _, err := resample.ParseMetric(string(req.Metric)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if _, err := resample.ParseGranularity(string(req.Granularity)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if req.Hour < 0 || req.Hour > 23 {
		return fmt.Errorf("%w: hour %d out of range", ErrInvalidRequest, req.Hour)
	}
	return nil
}

type Series struct {
	Name   string           `json:"name"`
	Metric resample.Metric  `json:"metric"`
	Hour   int              `json:"hour"`
	Points []resample.Point `json:"points"`
}

type Chart struct {
	Title  string   `json:"title"`
	Series []Series `json:"series"`
}

// Dashboard is the KPI summary and the standard charts for one range.
type Dashboard struct {
	From        string               `json:"from"`
	To          string               `json:"to"`
	Granularity resample.Granularity `json:"granularity"`
	KPIs        kpi.Summary          `json:"kpis"`
	Charts      []Chart              `json:"charts"`
	NoData      bool                 `json:"no_data"`
}

type chartSpec struct {
	title  string
	series []seriesSpec
}

type seriesSpec struct {
	name   string
	metric resample.Metric
}

var standardCharts = []chartSpec{
	{title: "Average Occupancy %", series: []seriesSpec{{"Occupancy %", resample.MetricOccupancy}}},
	{title: "Average Arrivals", series: []seriesSpec{{"Arrivals", resample.MetricArrivals}}},
	{title: "Out of Order Rooms", series: []seriesSpec{{"OOO Rooms", resample.MetricOOORooms}}},
	{title: "Average Room Rates", series: []seriesSpec{
		{"King", resample.MetricKingRate},
		{"QQ", resample.MetricQQRate},
	}},
}

// loadRows reads the range from the store along with the cache generation
// read before loading. A missing or unreadable store is not an error: it is
// logged and reported through noData.
func (p *provider) loadRows(ctx context.Context, r snapshot.DateRange) ([]snapshot.Row, bool, uint64, error) {
	gen := p.cacheGeneration()
	rows, err := p.cfg.Store.Load(ctx, r)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, gen, ctx.Err()
		}
		if errors.Is(err, snapshot.ErrNoTable) {
			p.log.Warn("dashboard: snapshot table not synced yet", "range", r.String())
		} else {
			p.log.Warn("dashboard: store unavailable", "range", r.String(), "error", err)
		}
		return []snapshot.Row{}, true, gen, nil
	}
	return rows, false, gen, nil
}

func (p *provider) GetKPIs(ctx context.Context, r snapshot.DateRange) (kpi.Summary, error) {
	if s, ok := p.getCachedKPIs(r); ok {
		return s, nil
	}

	rows, noData, gen, err := p.loadRows(ctx, r)
	if err != nil {
		return kpi.Summary{}, err
	}
	if noData {
		return kpi.Summary{NoData: true}, nil
	}

	s := kpi.Compute(rows, r, p.cfg.Capacity)
	p.setCachedKPIs(gen, r, s)
	return s, nil
}

func (p *provider) GetTrend(ctx context.Context, req TrendRequest) ([]resample.Point, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if points, ok := p.getCachedTrend(req); ok {
		return points, nil
	}

	rows, noData, gen, err := p.loadRows(ctx, req.Range)
	if err != nil {
		return nil, err
	}
	if noData {
		return []resample.Point{}, nil
	}
	return p.trend(gen, rows, req), nil
}

func (p *provider) trend(gen uint64, rows []snapshot.Row, req TrendRequest) []resample.Point {
	if points, ok := p.getCachedTrend(req); ok {
		return points
	}
	points := resample.Resample(rows, req.Metric, req.Hour, req.Granularity, req.Range, p.cfg.Capacity)
	p.setCachedTrend(gen, req, points)
	return points
}

// GetDashboard loads the range once and computes the KPIs and every chart
// series concurrently from the same rows.
func (p *provider) GetDashboard(ctx context.Context, r snapshot.DateRange, g resample.Granularity) (*Dashboard, error) {
	if _, err := resample.ParseGranularity(string(g)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	rows, noData, gen, err := p.loadRows(ctx, r)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		From:        r.Start.Format(snapshot.DateLayout),
		To:          r.End.Format(snapshot.DateLayout),
		Granularity: g,
		NoData:      noData,
	}

	var requests []TrendRequest
	for _, c := range standardCharts {
		for _, s := range c.series {
			requests = append(requests, NewTrendRequest(s.metric, g, r))
		}
	}

	group := p.trendPool.NewGroupContext(ctx)
	for _, req := range requests {
		group.SubmitErr(func() ([]resample.Point, error) {
			if noData {
				return []resample.Point{}, nil
			}
			return p.trend(gen, rows, req), nil
		})
	}

	if noData {
		d.KPIs = kpi.Summary{NoData: true}
	} else if s, ok := p.getCachedKPIs(r); ok {
		d.KPIs = s
	} else {
		d.KPIs = kpi.Compute(rows, r, p.cfg.Capacity)
		p.setCachedKPIs(gen, r, d.KPIs)
	}

	results, err := group.Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to compute charts: %w", err)
	}

	i := 0
	for _, c := range standardCharts {
		chart := Chart{Title: c.title, Series: make([]Series, 0, len(c.series))}
		for _, s := range c.series {
			req := requests[i]
			chart.Series = append(chart.Series, Series{
				Name:   s.name,
				Metric: s.metric,
				Hour:   req.Hour,
				Points: results[i],
			})
			i++
		}
		d.Charts = append(d.Charts, chart)
	}

	p.log.Debug("dashboard: computed", "range", r.String(), "granularity", g, "rows", len(rows), "no_data", noData)
	return d, nil
}

func (p *provider) GetRows(ctx context.Context, r snapshot.DateRange) ([]snapshot.Row, error) {
	rows, _, _, err := p.loadRows(ctx, r)
	return rows, err
}

// DefaultRange is the full extent of the stored data. ok is false when
// nothing has been synced.
func (p *provider) DefaultRange(ctx context.Context) (snapshot.DateRange, bool, error) {
	r, ok, err := p.cfg.Store.Extent(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return snapshot.DateRange{}, false, ctx.Err()
		}
		p.log.Warn("dashboard: failed to read data extent", "error", err)
		return snapshot.DateRange{}, false, nil
	}
	return r, ok, nil
}

// ResolveRange parses optional YYYY-MM-DD bounds. A missing bound falls back
// to the matching end of the stored data extent.
func ResolveRange(ctx context.Context, p Provider, from, to string) (snapshot.DateRange, error) {
	var extent snapshot.DateRange
	if from == "" || to == "" {
		r, ok, err := p.DefaultRange(ctx)
		if err != nil {
			return snapshot.DateRange{}, err
		}
		if ok {
			extent = r
		}
	}
	if from == "" {
		from = extent.Start.Format(snapshot.DateLayout)
	}
	if to == "" {
		to = extent.End.Format(snapshot.DateLayout)
	}
	r, err := snapshot.ParseDateRange(from, to)
	if err != nil {
		return snapshot.DateRange{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return r, nil
}

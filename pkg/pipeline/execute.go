package pipeline

import (
	"context"
	"time"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/metrics"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/querier"
)

// Execute runs sanitized SQL read-only. Failures are returned as-is under
// ErrExecution; the statement is never retried or rewritten.
func (p *Pipeline) Execute(ctx context.Context, sql string) (querier.QueryResponse, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues(string(StageExecute)).Observe(time.Since(start).Seconds())
	}()

	result, err := p.cfg.Querier.Query(ctx, sql)
	if err != nil {
		p.log.Info("pipeline: query returned error", "sql", sql, "error", err)
		return querier.QueryResponse{SQL: sql}, stageError(StageExecute, ErrExecution, err)
	}

	p.log.Info("pipeline: query executed", "rows", result.Count)
	return result, nil
}

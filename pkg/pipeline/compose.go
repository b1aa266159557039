package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/metrics"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/querier"
)

// Compose asks the model for a one-sentence answer grounded in result.
func (p *Pipeline) Compose(ctx context.Context, question, sql string, result querier.QueryResponse) (string, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues(string(StageCompose)).Observe(time.Since(start).Seconds())
	}()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\n", question)
	fmt.Fprintf(&sb, "SQL:\n%s\n\n", sql)
	fmt.Fprintf(&sb, "Result:\n%s", result.Formatted())

	answer, err := p.cfg.LLM.Complete(ctx, p.cfg.Prompts.Compose, sb.String())
	if err != nil {
		return "", stageError(StageCompose, ErrComposition, err)
	}
	return strings.TrimSpace(answer), nil
}

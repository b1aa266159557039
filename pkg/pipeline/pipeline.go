package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/metrics"
)

// Pipeline answers free-text questions about the snapshot store by having
// the model write SQL, running it read-only and summarizing the result.
type Pipeline struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate pipeline config: %w", err)
	}
	return &Pipeline{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

// Ask runs synthesize, sanitize, execute and compose in order. On failure the
// returned error is a *StageError and the artifact holds everything produced
// up to that point; when only composition fails, SQL and rows are intact.
func (p *Pipeline) Ask(ctx context.Context, question string) (*Artifact, error) {
	question = strings.TrimSpace(question)
	art := &Artifact{Question: question, PreambleVersion: PreambleVersion}
	if question == "" {
		return art, ErrEmptyQuestion
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	outcome := "error"
	defer func() {
		metrics.PipelineRequestsTotal.WithLabelValues(outcome).Inc()
	}()

	p.log.Info("pipeline: question received", "question", question)

	preamble, raw, err := p.Synthesize(ctx, question)
	art.Preamble = preamble
	if err != nil {
		p.log.Warn("pipeline: synthesis failed", "error", err)
		return art, err
	}
	art.RawModelOutput = raw

	art.SQL = Sanitize(raw)
	p.log.Debug("pipeline: query sanitized", "sql", art.SQL)

	result, err := p.Execute(ctx, art.SQL)
	art.Result = result
	if err != nil {
		return art, err
	}

	art.Series, art.Chartable = ChartSeries(result)

	answer, err := p.Compose(ctx, question, art.SQL, result)
	if err != nil {
		p.log.Warn("pipeline: composition failed", "error", err)
		outcome = "partial"
		return art, err
	}
	art.Answer = answer
	outcome = "ok"

	p.log.Info("pipeline: question answered", "rows", result.Count, "chartable", art.Chartable)
	return art, nil
}

// IsStage reports whether err came from the given pipeline stage.
func IsStage(err error, stage Stage) bool {
	var se *StageError
	return errors.As(err, &se) && se.Stage == stage
}

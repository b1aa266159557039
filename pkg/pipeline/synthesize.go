package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/metrics"
)

// Preamble returns the synthesis system prompt as of the pipeline clock.
func (p *Pipeline) Preamble() string {
	return p.cfg.Prompts.BuildPreamble(p.cfg.Clock.Now(), p.cfg.Capacity)
}

// Synthesize asks the model for a SQL query answering question. It returns
// the preamble used and the raw model output. A single model call is made.
func (p *Pipeline) Synthesize(ctx context.Context, question string) (string, string, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues(string(StageSynthesize)).Observe(time.Since(start).Seconds())
	}()

	preamble := p.Preamble()
	userPrompt := fmt.Sprintf("Question: %s\n\nRespond with a single SQL query.", question)

	raw, err := p.cfg.LLM.Complete(ctx, preamble, userPrompt)
	if err != nil {
		return preamble, "", stageError(StageSynthesize, ErrSynthesis, err)
	}

	p.log.Debug("pipeline: query synthesized", "question", question, "raw_len", len(raw))
	return preamble, raw, nil
}

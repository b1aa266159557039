package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/querier"
	"github.com/jonboulle/clockwork"
)

const defaultTimeout = 90 * time.Second

// LLMClient is the interface for interacting with an LLM.
type LLMClient interface {
	// Complete sends a prompt and returns the response text.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Querier executes read-only SQL.
type Querier interface {
	Query(ctx context.Context, sql string) (querier.QueryResponse, error)
}

// Config holds the configuration for the pipeline.
type Config struct {
	Logger   *slog.Logger
	LLM      LLMClient
	Querier  Querier
	Prompts  *Prompts
	Clock    clockwork.Clock
	Capacity int

	// Timeout bounds a whole Ask call, both model calls included.
	Timeout time.Duration
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.LLM == nil {
		return errors.New("llm client is required")
	}
	if cfg.Querier == nil {
		return errors.New("querier is required")
	}
	if cfg.Capacity <= 0 {
		return errors.New("capacity must be greater than 0")
	}

	// Optional with defaults
	if cfg.Prompts == nil {
		p, err := LoadPrompts()
		if err != nil {
			return fmt.Errorf("failed to load prompts: %w", err)
		}
		cfg.Prompts = p
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return nil
}

// Stage names a step of the question pipeline.
type Stage string

const (
	StageSynthesize Stage = "synthesize"
	StageExecute    Stage = "execute"
	StageCompose    Stage = "compose"
)

var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrSynthesis     = errors.New("query synthesis failed")
	ErrExecution     = errors.New("query execution failed")
	ErrComposition   = errors.New("answer composition failed")
)

// StageError reports which stage failed. It matches both its kind sentinel
// and the underlying cause with errors.Is.
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func stageError(stage Stage, kind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// SeriesPoint is one bar of a chartable answer.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Artifact records everything produced while answering one question. It is
// returned to the caller and never persisted.
type Artifact struct {
	Question        string                `json:"question"`
	Preamble        string                `json:"-"`
	PreambleVersion string                `json:"preamble_version"`
	RawModelOutput  string                `json:"raw_model_output,omitempty"`
	SQL             string                `json:"sql"`
	Result          querier.QueryResponse `json:"result"`
	Answer          string                `json:"answer"`
	Chartable       bool                  `json:"chartable"`
	Series          []SeriesPoint         `json:"series,omitempty"`
}

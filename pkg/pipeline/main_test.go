package pipeline_test

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/querier"
	"github.com/lmittmann/tint"
)

var (
	logger *slog.Logger
)

func TestMain(m *testing.M) {
	flag.Parse()
	verbose := false
	if vFlag := flag.Lookup("test.v"); vFlag != nil && vFlag.Value.String() == "true" {
		verbose = true
	}
	if verbose {
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	os.Exit(m.Run())
}

type llmCall struct {
	System string
	User   string
}

type mockLLM struct {
	CompleteFunc func(ctx context.Context, call int, systemPrompt, userPrompt string) (string, error)
	calls        []llmCall
}

func (m *mockLLM) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.calls = append(m.calls, llmCall{System: systemPrompt, User: userPrompt})
	return m.CompleteFunc(ctx, len(m.calls), systemPrompt, userPrompt)
}

type mockQuerier struct {
	QueryFunc func(ctx context.Context, sql string) (querier.QueryResponse, error)
}

func (m *mockQuerier) Query(ctx context.Context, sql string) (querier.QueryResponse, error) {
	return m.QueryFunc(ctx, sql)
}

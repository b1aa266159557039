package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/duck"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/pipeline"
	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/querier"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"
)

const maxPrintedRows = 50

type AskCmd struct{}

func NewAskCmd() *AskCmd {
	return &AskCmd{}
}

func (c *AskCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question about the hotel data in plain English",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGlobals(cmd)
			if err != nil {
				return err
			}
			log := g.logger()
			llm, err := llmFromFlags(cmd, log)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			db, err := duck.NewDB(ctx, g.dbPath, log)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			p, err := newPipeline(log, db, llm, g.capacity)
			if err != nil {
				return err
			}

			art, err := p.Ask(ctx, strings.Join(args, " "))
			printArtifact(cmd.OutOrStdout(), art)
			return err
		},
	}

	addLLMFlags(cmd)
	return cmd
}

func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().String("api-key", "", "Anthropic API key (ANTHROPIC_API_KEY)")
	cmd.Flags().String("model", string(pipeline.DefaultModel), "Anthropic model (ANTHROPIC_MODEL)")
}

func llmFromFlags(cmd *cobra.Command, log *slog.Logger) (pipeline.LLMClient, error) {
	apiKey, err := cmd.Flags().GetString("api-key")
	if err != nil {
		return nil, fmt.Errorf("failed to get api-key flag: %w", err)
	}
	model, err := cmd.Flags().GetString("model")
	if err != nil {
		return nil, fmt.Errorf("failed to get model flag: %w", err)
	}
	if apiKey == "" {
		return nil, errors.New("an Anthropic API key is required (--api-key or ANTHROPIC_API_KEY)")
	}
	return pipeline.NewAnthropicLLMClient(log, apiKey, anthropic.Model(model), pipeline.DefaultMaxTokens), nil
}

func newPipeline(log *slog.Logger, db duck.DB, llm pipeline.LLMClient, capacity int) (*pipeline.Pipeline, error) {
	q, err := querier.New(querier.Config{Logger: log, DB: db})
	if err != nil {
		return nil, fmt.Errorf("failed to create querier: %w", err)
	}
	p, err := pipeline.New(pipeline.Config{
		Logger:   log,
		LLM:      llm,
		Querier:  q,
		Capacity: capacity,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	return p, nil
}

func printArtifact(w io.Writer, art *pipeline.Artifact) {
	if art == nil {
		return
	}
	if art.SQL != "" {
		fmt.Fprintln(w, "SQL:")
		fmt.Fprintln(w, art.SQL)
		fmt.Fprintln(w)
	}
	if len(art.Result.Columns) > 0 {
		printResult(w, art.Result)
		fmt.Fprintln(w)
	}
	if art.Chartable {
		fmt.Fprintf(w, "Chartable: %d bars\n\n", len(art.Series))
	}
	if art.Answer != "" {
		fmt.Fprintln(w, art.Answer)
	}
}

func printResult(w io.Writer, r querier.QueryResponse) {
	table := newTable(w, r.Columns)
	for i := 0; i < len(r.Rows) && i < maxPrintedRows; i++ {
		table.Append(r.Values(i))
	}
	table.Render()
	if r.Count > maxPrintedRows {
		fmt.Fprintf(w, "... and %d more rows\n", r.Count-maxPrintedRows)
	}
	if r.Truncated {
		fmt.Fprintln(w, "(result truncated)")
	}
}

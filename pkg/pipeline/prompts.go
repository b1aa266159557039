package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/EsteBot/bwf-daily-data-dashboard-from-db/pkg/pipeline/prompts"
)

// PreambleVersion identifies the wording of PREAMBLE.md. Bump it whenever the
// preamble changes so answers can be traced to the instructions they used.
const PreambleVersion = "3"

// Prompts contains the pipeline prompts loaded from embedded files.
type Prompts struct {
	Preamble string // System prompt for SQL synthesis (templated)
	Compose  string // System prompt for the one-sentence answer
}

// LoadPrompts loads all prompts from the embedded filesystem.
func LoadPrompts() (*Prompts, error) {
	p := &Prompts{}

	var err error
	if p.Preamble, err = loadPrompt("PREAMBLE.md"); err != nil {
		return nil, fmt.Errorf("failed to load PREAMBLE: %w", err)
	}
	if p.Compose, err = loadPrompt("COMPOSE.md"); err != nil {
		return nil, fmt.Errorf("failed to load COMPOSE: %w", err)
	}
	return p, nil
}

func loadPrompt(path string) (string, error) {
	data, err := prompts.PromptsFS.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// BuildPreamble fills in the capacity and today's date.
func (p *Prompts) BuildPreamble(now time.Time, capacity int) string {
	return strings.NewReplacer(
		"{{CAPACITY}}", strconv.Itoa(capacity),
		"{{CURRENT_DATE}}", now.Format("2006-01-02"),
	).Replace(p.Preamble)
}

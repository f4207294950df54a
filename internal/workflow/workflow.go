// Package workflow runs the two-step ramen recommendation pipeline:
// place search followed by summarization.
package workflow

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/toasahi/ramen-agent/internal/places"
	"github.com/toasahi/ramen-agent/internal/summary"
)

// Searcher is the place-search stage
type Searcher interface {
	Search(ctx context.Context, q places.Query) []places.Place
}

// RamenWorkflow chains search and summarization. The stages are strictly
// sequential: summarization waits for the search result, and an empty
// search result still reaches the summarizer so the user gets a no-results
// digest instead of silence.
type RamenWorkflow struct {
	searcher   Searcher
	summarizer summary.Summarizer
	logger     zerolog.Logger
}

// New creates a workflow over the two stages
func New(searcher Searcher, summarizer summary.Summarizer, logger zerolog.Logger) *RamenWorkflow {
	return &RamenWorkflow{
		searcher:   searcher,
		summarizer: summarizer,
		logger:     logger,
	}
}

// Run executes both stages and returns the digest
func (w *RamenWorkflow) Run(ctx context.Context, q places.Query) (string, error) {
	if q.Prefecture == "" {
		return "", fmt.Errorf("workflow: prefecture is required")
	}

	shops := w.searcher.Search(ctx, q)
	w.logger.Info().
		Str("prefecture", q.Prefecture).
		Int("candidates", len(shops)).
		Msg("place search complete")

	digest, err := w.summarizer.Summarize(ctx, shops)
	if err != nil {
		return "", fmt.Errorf("workflow: summarize: %w", err)
	}
	return digest, nil
}

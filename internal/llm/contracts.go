package llm

import (
	"context"

	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
)

// ConsolidationRequest is everything the model sees for one submission.
type ConsolidationRequest struct {
	Text     string   // aggregated document text
	COACSV   string   // raw chart-of-accounts CSV, may be empty
	Warnings []string // pipeline warnings so far
}

// Consolidator turns aggregated statement text into a validated record.
type Consolidator interface {
	Consolidate(ctx context.Context, req ConsolidationRequest) (entity.ConsolidatedRecord, error)
}

// Completer sends one user prompt and returns the model's raw text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

package ai

import (
	"context"

	"laborhub/internal/modules/matching"
)

// Explainer turns a ranked candidate list into a short human-readable
// recommendation for the employer. Implementations may call an LLM or fall
// back to rule-based text.
type Explainer interface {
	ExplainMatch(ctx context.Context, orderTitle string, candidates []matching.Candidate) (string, error)
}

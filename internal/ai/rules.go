package ai

import (
	"context"
	"fmt"
	"strings"

	"laborhub/internal/modules/matching"
)

// RuleExplainer is the offline fallback when no Gemini key is configured.
// It assembles the summary from the engine's own match reasons.
type RuleExplainer struct{}

func (RuleExplainer) ExplainMatch(_ context.Context, orderTitle string, candidates []matching.Candidate) (string, error) {
	if len(candidates) == 0 {
		return "No suitable workers were found for this job right now.", nil
	}

	best := candidates[0]
	var b strings.Builder
	fmt.Fprintf(&b, "For %q the top match is %s with a score of %.1f.", orderTitle, best.Name, best.Score)
	if len(best.Reasons) > 0 {
		fmt.Fprintf(&b, " Highlights: %s.", strings.Join(best.Reasons, ", "))
	}
	if len(candidates) > 1 {
		runner := candidates[1]
		fmt.Fprintf(&b, " %s is the runner-up at %.1f.", runner.Name, runner.Score)
	}
	return b.String(), nil
}

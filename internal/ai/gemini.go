package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"laborhub/internal/modules/matching"
)

// GeminiExplainer implements Explainer using Google's Gemini models.
type GeminiExplainer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiExplainer initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiExplainer(ctx context.Context, apiKey string) (*GeminiExplainer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Gemini 2.0 Flash for low latency and cost efficiency.
	model := client.GenerativeModel("gemini-2.0-flash")
	model.SetTemperature(0.4)

	return &GeminiExplainer{
		client: client,
		model:  model,
	}, nil
}

// Close cleans up the Gemini client resources.
func (e *GeminiExplainer) Close() {
	e.client.Close()
}

// ExplainMatch asks the model for a short recommendation summary over the
// ranked candidates.
func (e *GeminiExplainer) ExplainMatch(ctx context.Context, orderTitle string, candidates []matching.Candidate) (string, error) {
	if len(candidates) == 0 {
		return "No suitable workers were found for this job right now.", nil
	}

	prompt := buildExplainPrompt(orderTitle, candidates)
	resp, err := e.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from Gemini")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(out.String()), nil
}

// buildExplainPrompt constructs the instructions for the AI.
func buildExplainPrompt(orderTitle string, candidates []matching.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Role: You are the matching assistant of a flexible-labor marketplace.
An employer posted the job %q. The system ranked these candidates:

`, orderTitle)
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s — score %.1f, %.0fm away, rating %.1f, %d jobs completed",
			i+1, c.Name, c.Score, c.Distance, c.Rating, c.CompletedOrders)
		if len(c.Reasons) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(c.Reasons, "; "))
		}
		b.WriteString("\n")
	}
	b.WriteString(`
Write 2-3 plain sentences for the employer explaining which candidate you
recommend and why. Mention concrete numbers. No markdown, no lists.`)
	return b.String()
}

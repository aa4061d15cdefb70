package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"laborhub/internal/ai"
	"laborhub/internal/modules/matching"
)

func main() {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable not set")
	}

	ctx := context.Background()
	explainer, err := ai.NewGeminiExplainer(ctx, apiKey)
	if err != nil {
		log.Fatalf("Failed to initialize explainer: %v", err)
	}
	defer explainer.Close()

	candidates := []matching.Candidate{
		{
			WorkerID:        "w1",
			Name:            "Chen",
			Distance:        420,
			Rating:          4.9,
			AcceptanceRate:  97,
			CompletionRate:  99,
			CompletedOrders: 180,
			Score:           93.2,
			Reasons:         []string{"distance very close", "excellent rating", "experienced"},
		},
		{
			WorkerID:        "w2",
			Name:            "Lin",
			Distance:        2600,
			Rating:          4.5,
			AcceptanceRate:  88,
			CompletionRate:  95,
			CompletedOrders: 60,
			Score:           81.7,
			Reasons:         []string{"distance nearby", "good rating"},
		},
	}

	summary, err := explainer.ExplainMatch(ctx, "Deep-clean a two-bedroom apartment", candidates)
	if err != nil {
		log.Fatalf("Error generating explanation: %v", err)
	}
	fmt.Println(summary)
}

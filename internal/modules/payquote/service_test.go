package payquote

import (
	"context"
	"errors"
	"testing"
)

type fixedRates struct{ rate Rate }

func (f fixedRates) GetRate(_ context.Context, category string) (Rate, error) {
	if category != f.rate.Category {
		return Rate{}, ErrUnknownCategory
	}
	return f.rate, nil
}

func TestService_Quote(t *testing.T) {
	svc := NewService(fixedRates{rate: Rate{
		Category:   "cleaning",
		BaseAmount: 600,
		PerHour:    400,
		Currency:   "TWD",
	}})

	tests := []struct {
		name       string
		req        QuoteRequest
		wantAmount int64
	}{
		{
			name:       "base only (1 hour)",
			req:        QuoteRequest{Category: "cleaning", Hours: 1},
			wantAmount: 600,
		},
		{
			name: "extra time billed per started half hour (2.25h -> 3 half hours)",
			req:  QuoteRequest{Category: "cleaning", Hours: 2.25},
			// 600 + 3*400/2 = 600 + 600
			wantAmount: 1200,
		},
		{
			name: "skill premium 5% per skill",
			req:  QuoteRequest{Category: "cleaning", Hours: 1, RequiredSkills: []string{"deep-clean", "window-clean"}},
			// 600 + 10% = 660
			wantAmount: 660,
		},
		{
			name: "urgency premium 20% on top",
			req:  QuoteRequest{Category: "cleaning", Hours: 1, Urgent: true},
			// 600 + 20% = 720
			wantAmount: 720,
		},
		{
			name: "stacked premiums apply sequentially",
			req:  QuoteRequest{Category: "cleaning", Hours: 2, RequiredSkills: []string{"deep-clean"}, Urgent: true},
			// time: 600 + 400 = 1000; +5% = 1050; +20% = 1260
			wantAmount: 1260,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Quote(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Quote: %v", err)
			}
			if got.Amount != tt.wantAmount {
				t.Errorf("amount = %d, want %d (breakdown %v)", got.Amount, tt.wantAmount, got.Breakdown)
			}
			if got.Currency != "TWD" {
				t.Errorf("currency = %s, want TWD", got.Currency)
			}
		})
	}
}

func TestService_Quote_Validation(t *testing.T) {
	svc := NewService(fixedRates{rate: Rate{Category: "cleaning", BaseAmount: 600, PerHour: 400, Currency: "TWD"}})

	for _, req := range []QuoteRequest{
		{Category: "", Hours: 1},
		{Category: "cleaning", Hours: 0},
		{Category: "cleaning", Hours: -2},
		{Category: "cleaning", Hours: 25},
	} {
		if _, err := svc.Quote(context.Background(), req); !errors.Is(err, ErrBadRequest) {
			t.Errorf("req %+v: err = %v, want ErrBadRequest", req, err)
		}
	}

	if _, err := svc.Quote(context.Background(), QuoteRequest{Category: "welding", Hours: 1}); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("unknown category: err = %v, want ErrUnknownCategory", err)
	}
}

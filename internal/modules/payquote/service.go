// README: Pay-quote service computes suggested pay for a job posting.
package payquote

import (
	"context"
	"errors"
	"math"

	"laborhub/internal/types"
)

var ErrBadRequest = errors.New("bad quote request")

// RateSource supplies per-category pay rates. Implemented by the Store.
type RateSource interface {
	GetRate(ctx context.Context, category string) (Rate, error)
}

type Service struct {
	rates RateSource
}

func NewService(rates RateSource) *Service {
	return &Service{rates: rates}
}

const (
	skillPremiumPct  = 5  // per required skill
	urgentPremiumPct = 20 // same-day jobs
)

// Quote suggests a pay amount. The base rate covers the first hour; extra
// time is billed per started half hour. Skill and urgency premiums apply on
// top of the time charge.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (QuoteResult, error) {
	if req.Category == "" || req.Hours <= 0 || req.Hours > 24 {
		return QuoteResult{}, ErrBadRequest
	}

	rate, err := s.rates.GetRate(ctx, req.Category)
	if err != nil {
		return QuoteResult{}, err
	}

	breakdown := map[string]int64{"base": rate.BaseAmount}
	total := rate.BaseAmount

	if req.Hours > 1 {
		halfHours := int64(math.Ceil((req.Hours - 1) * 2))
		extra := halfHours * rate.PerHour / 2
		breakdown["extra_time"] = extra
		total += extra
	}

	if n := len(req.RequiredSkills); n > 0 {
		premium := total * int64(n*skillPremiumPct) / 100
		breakdown["skill_premium"] = premium
		total += premium
	}
	if req.Urgent {
		premium := total * urgentPremiumPct / 100
		breakdown["urgency_premium"] = premium
		total += premium
	}

	return QuoteResult{Amount: total, Currency: rate.Currency, Breakdown: breakdown}, nil
}

// SuggestedPay is a convenience wrapper returning the quote as Money.
func (s *Service) SuggestedPay(ctx context.Context, req QuoteRequest) (types.Money, error) {
	res, err := s.Quote(ctx, req)
	if err != nil {
		return types.Money{}, err
	}
	return types.Money{Amount: res.Amount, Currency: res.Currency}, nil
}

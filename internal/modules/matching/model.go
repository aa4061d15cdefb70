// README: Matching candidates and scoring configuration.
package matching

import "laborhub/internal/types"

// Config controls candidate filtering and the six-factor weighted score.
// Weights are expected to sum to 1.0; they are applied as given.
type Config struct {
	MaxDistance float64 // meters
	MinRating   float64

	WeightDistance   float64
	WeightRating     float64
	WeightResponse   float64
	WeightCompletion float64
	WeightSkill      float64
	WeightHistory    float64

	Limit int
}

func DefaultConfig() Config {
	return Config{
		MaxDistance:      10000,
		MinRating:        3.0,
		WeightDistance:   0.25,
		WeightRating:     0.20,
		WeightResponse:   0.15,
		WeightCompletion: 0.15,
		WeightSkill:      0.15,
		WeightHistory:    0.10,
		Limit:            10,
	}
}

// Overrides is a partial per-request override of Config. Nil fields keep the
// base value.
type Overrides struct {
	MaxDistance      *float64
	MinRating        *float64
	WeightDistance   *float64
	WeightRating     *float64
	WeightResponse   *float64
	WeightCompletion *float64
	WeightSkill      *float64
	WeightHistory    *float64
	Limit            *int
}

// With returns a copy of c with the non-nil override fields applied.
func (c Config) With(o *Overrides) Config {
	if o == nil {
		return c
	}
	if o.MaxDistance != nil {
		c.MaxDistance = *o.MaxDistance
	}
	if o.MinRating != nil {
		c.MinRating = *o.MinRating
	}
	if o.WeightDistance != nil {
		c.WeightDistance = *o.WeightDistance
	}
	if o.WeightRating != nil {
		c.WeightRating = *o.WeightRating
	}
	if o.WeightResponse != nil {
		c.WeightResponse = *o.WeightResponse
	}
	if o.WeightCompletion != nil {
		c.WeightCompletion = *o.WeightCompletion
	}
	if o.WeightSkill != nil {
		c.WeightSkill = *o.WeightSkill
	}
	if o.WeightHistory != nil {
		c.WeightHistory = *o.WeightHistory
	}
	if o.Limit != nil {
		c.Limit = *o.Limit
	}
	return c
}

// Candidate is one scored worker in a matching run. Candidates are derived
// fresh on every invocation and never persisted; ordering within a single
// result (descending score) is the only thing callers may rely on.
type Candidate struct {
	WorkerID        types.ID
	Name            string
	Phone           string
	Avatar          *string
	Distance        float64 // meters, rounded
	Rating          float64
	AcceptanceRate  float64
	CompletionRate  float64
	CompletedOrders int
	SkillScore      float64
	HistoryScore    float64
	Score           float64
	Reasons         []string
}

// README: Matching service pulls candidates from the worker store and ranks them.
package matching

import (
	"context"

	"laborhub/internal/modules/worker"
	"laborhub/internal/types"
)

// CandidateSource supplies the dispatch-relevant worker data. Implemented by
// the worker store.
type CandidateSource interface {
	Available(ctx context.Context, category string, minRating float64) ([]worker.Profile, error)
	HiredCounts(ctx context.Context, employerID types.ID) (map[types.ID]int, error)
}

type Service struct {
	workers CandidateSource
	cfg     Config
}

func NewService(workers CandidateSource, cfg Config) *Service {
	return &Service{workers: workers, cfg: cfg}
}

// MatchWorkers returns the ranked candidate list for an order, best first.
// employerID is optional; when set, the employer's hiring history feeds the
// history-affinity component. An empty result is a normal outcome, not an
// error.
func (s *Service) MatchWorkers(ctx context.Context, orderLoc types.Point, category string, requiredSkills []string, employerID types.ID, o *Overrides) ([]Candidate, error) {
	cfg := s.cfg.With(o)

	profiles, err := s.workers.Available(ctx, category, cfg.MinRating)
	if err != nil {
		return nil, err
	}

	var hired map[types.ID]int
	if employerID != "" {
		hired, err = s.workers.HiredCounts(ctx, employerID)
		if err != nil {
			return nil, err
		}
	}

	return Rank(orderLoc, category, requiredSkills, profiles, hired, cfg), nil
}

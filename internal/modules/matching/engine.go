// README: Candidate filtering and six-factor weighted scoring.
package matching

import (
	"math"
	"sort"
	"strings"

	"laborhub/internal/geo"
	"laborhub/internal/modules/worker"
	"laborhub/internal/types"
)

// Rank filters profiles against the order's requirements and scores the
// survivors, best first. It is pure: same inputs, same output.
//
// A profile is excluded outright (never merely penalized) when it is not
// online-or-busy, does not offer the category, is below the rating floor,
// does not belong to an active account, has no known location, or is beyond
// MaxDistance from the order.
func Rank(orderLoc types.Point, category string, requiredSkills []string, profiles []worker.Profile, hiredCounts map[types.ID]int, cfg Config) []Candidate {
	candidates := make([]Candidate, 0, len(profiles))

	for i := range profiles {
		p := &profiles[i]
		if !p.Available() || !p.OffersCategory(category) {
			continue
		}
		if p.AverageRating < cfg.MinRating || p.AccountStatus != worker.AccountActive {
			continue
		}
		if p.LastLocation == nil {
			continue
		}
		distance := geo.Distance(orderLoc, *p.LastLocation)
		if distance > cfg.MaxDistance {
			continue
		}

		distanceScore := math.Max(0, 100-(distance/cfg.MaxDistance)*100)
		ratingScore := (p.AverageRating / 5) * 100
		responseScore := p.AcceptanceRate
		completionScore := p.CompletionRate

		var skillScore float64
		var matchedSkills []string
		if len(requiredSkills) > 0 {
			for _, skill := range requiredSkills {
				if p.HasSkill(skill) {
					matchedSkills = append(matchedSkills, skill)
				}
			}
			skillScore = float64(len(matchedSkills)) / float64(len(requiredSkills)) * 100
		}

		historyScore := math.Min(100, float64(hiredCounts[p.UserID])*20)

		score := distanceScore*cfg.WeightDistance +
			ratingScore*cfg.WeightRating +
			responseScore*cfg.WeightResponse +
			completionScore*cfg.WeightCompletion +
			skillScore*cfg.WeightSkill +
			historyScore*cfg.WeightHistory

		candidates = append(candidates, Candidate{
			WorkerID:        p.UserID,
			Name:            p.Name,
			Phone:           p.Phone,
			Avatar:          p.Avatar,
			Distance:        math.Round(distance),
			Rating:          p.AverageRating,
			AcceptanceRate:  p.AcceptanceRate,
			CompletionRate:  p.CompletionRate,
			CompletedOrders: p.CompletedOrders,
			SkillScore:      skillScore,
			HistoryScore:    historyScore,
			Score:           math.Round(score*100) / 100,
			Reasons:         matchReasons(p, distance, matchedSkills, historyScore),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if cfg.Limit > 0 && len(candidates) > cfg.Limit {
		candidates = candidates[:cfg.Limit]
	}
	return candidates
}

// matchReasons derives the human-readable reason list. Presentation only:
// it must never influence ranking.
func matchReasons(p *worker.Profile, distance float64, matchedSkills []string, historyScore float64) []string {
	var reasons []string
	if distance < 1000 {
		reasons = append(reasons, "distance very close")
	} else if distance < 3000 {
		reasons = append(reasons, "distance nearby")
	}
	if p.AverageRating >= 4.8 {
		reasons = append(reasons, "excellent rating")
	} else if p.AverageRating >= 4.5 {
		reasons = append(reasons, "good rating")
	}
	if p.CompletedOrders > 100 {
		reasons = append(reasons, "experienced")
	}
	if p.AcceptanceRate >= 95 {
		reasons = append(reasons, "responds quickly")
	}
	if len(matchedSkills) > 0 {
		reasons = append(reasons, "skills matched: "+strings.Join(matchedSkills, ", "))
	}
	if historyScore > 0 {
		reasons = append(reasons, "good past collaboration")
	}
	return reasons
}

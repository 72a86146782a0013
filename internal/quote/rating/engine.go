// internal/quote/rating/engine.go
package rating

import (
	"math"

	"quoteflow-workers/internal/models"
)

// Component weights. They sum to 100.
const (
	premiumWeight    = 40
	termsWeight      = 25
	coverageWeight   = 20
	timelinessWeight = 10
	commissionWeight = 5
)

// Score rates a candidate against the current pool and returns an integer
// in [0,100]. The comparison baseline is whatever is priced in the pool
// right now, so scores shift as candidates are added or updated.
func Score(candidate *models.CandidateQuote, pool []*models.CandidateQuote) int {
	priced := pricedOnly(pool)
	if len(priced) == 0 {
		return 0
	}

	total := premiumComponent(candidate, priced) +
		termsComponent(candidate.TermsConditions) +
		coverageComponent(candidate.CoverageLimits) +
		timelinessComponent(candidate.ResponseReceived) +
		commissionComponent(candidate.CommissionSplit, priced)

	return clamp(int(math.Round(total)), 0, 100)
}

// ScoreAll rates every candidate in the pool in place and returns the pool.
func ScoreAll(pool []*models.CandidateQuote) []*models.CandidateQuote {
	for _, c := range pool {
		c.RatingScore = Score(c, pool)
	}
	return pool
}

// premiumComponent scales linearly so the cheapest priced candidate gets
// the full weight and the most expensive gets 0. A degenerate pool (all
// premiums equal, or a single priced candidate) awards a flat half weight.
func premiumComponent(candidate *models.CandidateQuote, priced []*models.CandidateQuote) float64 {
	if candidate.PremiumQuoted <= 0 {
		return 0
	}

	min, max := priced[0].PremiumQuoted, priced[0].PremiumQuoted
	for _, c := range priced[1:] {
		if c.PremiumQuoted < min {
			min = c.PremiumQuoted
		}
		if c.PremiumQuoted > max {
			max = c.PremiumQuoted
		}
	}

	if min == max {
		return premiumWeight / 2
	}

	return ((max - candidate.PremiumQuoted) / (max - min)) * premiumWeight
}

func termsComponent(terms string) float64 {
	score := 0.0
	if len(terms) > 50 {
		score += 20
	}
	if len(terms) > 200 {
		score += 5
	}
	return score
}

func coverageComponent(limits map[string]string) float64 {
	score := float64(len(limits) * 4)
	if score > coverageWeight {
		return coverageWeight
	}
	return score
}

func timelinessComponent(responseReceived bool) float64 {
	if responseReceived {
		return timelinessWeight
	}
	return 0
}

func commissionComponent(split float64, priced []*models.CandidateQuote) float64 {
	var sum float64
	for _, c := range priced {
		sum += c.CommissionSplit
	}
	mean := sum / float64(len(priced))

	if split >= mean {
		return commissionWeight
	}
	return 0
}

func pricedOnly(pool []*models.CandidateQuote) []*models.CandidateQuote {
	priced := make([]*models.CandidateQuote, 0, len(pool))
	for _, c := range pool {
		if c.PremiumQuoted > 0 {
			priced = append(priced, c)
		}
	}
	return priced
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

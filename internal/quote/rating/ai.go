// internal/quote/rating/ai.go
package rating

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"quoteflow-workers/internal/common/errors"
	commonhttp "quoteflow-workers/internal/common/http"
	"quoteflow-workers/internal/common/logger"
	"quoteflow-workers/internal/models"
)

// Adjuster nudges a base rating score. Implementations may be
// non-deterministic; the adjustment is bounded to [-10,+10] regardless.
type Adjuster interface {
	Adjust(ctx context.Context, baseScore int, candidate *models.CandidateQuote) (int, error)
}

const maxAdjustment = 10

// Evaluator runs rating in AI mode: base score plus a bounded adjustment,
// with qualitative labels derived from the final score.
type Evaluator struct {
	adjuster Adjuster
	logger   logger.Logger
}

func NewEvaluator(adjuster Adjuster, log logger.Logger) *Evaluator {
	return &Evaluator{
		adjuster: adjuster,
		logger:   log,
	}
}

// Evaluate scores every candidate in the pool and attaches an AIAnalysis.
// An adjuster failure for one candidate falls back to the base score for
// that candidate; it does not abort the run.
func (e *Evaluator) Evaluate(ctx context.Context, pool []*models.CandidateQuote) []*models.CandidateQuote {
	for _, c := range pool {
		base := Score(c, pool)

		adjustment := 0
		if e.adjuster != nil {
			adj, err := e.adjuster.Adjust(ctx, base, c)
			if err != nil {
				e.logger.Warn("score adjustment failed, using base score", map[string]interface{}{
					"insurerKey": c.Key,
					"baseScore":  base,
					"error":      err.Error(),
				})
			} else {
				adjustment = clamp(adj, -maxAdjustment, maxAdjustment)
			}
		}

		final := clamp(base+adjustment, 0, 100)
		c.RatingScore = final
		c.AIAnalysis = buildAnalysis(final)
		c.AIAnalysis.TermsAnalysis = TermsAnalysisFor(c)
	}
	return pool
}

// buildAnalysis maps the final score onto the qualitative labels shown to
// brokers. Confidence is cosmetic and never feeds back into scoring.
func buildAnalysis(finalScore int) *models.AIAnalysis {
	analysis := &models.AIAnalysis{
		Confidence: fmt.Sprintf("%d%%", 80+rand.Intn(20)),
	}

	switch {
	case finalScore >= 80:
		analysis.PremiumCompetitiveness = "Excellent"
		analysis.Recommendation = "Highly recommended"
	case finalScore >= 70:
		analysis.PremiumCompetitiveness = "Good"
		analysis.Recommendation = "Recommended"
	case finalScore >= 60:
		analysis.PremiumCompetitiveness = "Average"
		analysis.Recommendation = "Consider with caution"
	default:
		analysis.PremiumCompetitiveness = "Below Average"
		analysis.Recommendation = "Not recommended"
	}

	switch {
	case finalScore > 75:
		analysis.RiskAssessment = "Low risk profile"
	case finalScore > 50:
		analysis.RiskAssessment = "Medium risk profile"
	default:
		analysis.RiskAssessment = "High risk profile"
	}

	return analysis
}

// TermsAnalysisFor describes the depth of the candidate's terms text.
func TermsAnalysisFor(candidate *models.CandidateQuote) string {
	if len(candidate.TermsConditions) > 50 {
		return "Comprehensive terms reviewed"
	}
	return "Limited terms information"
}

// RandomAdjuster is the local-mode adjuster: a uniform draw in
// [-10,+10] with no external dependency.
type RandomAdjuster struct{}

func (RandomAdjuster) Adjust(ctx context.Context, baseScore int, candidate *models.CandidateQuote) (int, error) {
	return rand.Intn(2*maxAdjustment+1) - maxAdjustment, nil
}

// GenAIAdjuster calls the GenAI scoring endpoint for an adjustment.
type GenAIAdjuster struct {
	client  *commonhttp.Client
	baseURL string
	apiKey  string
}

func NewGenAIAdjuster(baseURL, apiKey string, timeout time.Duration) *GenAIAdjuster {
	return &GenAIAdjuster{
		client:  commonhttp.NewClient(timeout),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type adjustRequest struct {
	BaseScore       int     `json:"baseScore"`
	InsurerName     string  `json:"insurerName"`
	PremiumQuoted   float64 `json:"premiumQuoted"`
	TermsConditions string  `json:"termsConditions"`
	CoverageCount   int     `json:"coverageCount"`
}

type adjustResponse struct {
	Adjustment int `json:"adjustment"`
}

func (a *GenAIAdjuster) Adjust(ctx context.Context, baseScore int, candidate *models.CandidateQuote) (int, error) {
	body, err := json.Marshal(adjustRequest{
		BaseScore:       baseScore,
		InsurerName:     candidate.InsurerName,
		PremiumQuoted:   candidate.PremiumQuoted,
		TermsConditions: candidate.TermsConditions,
		CoverageCount:   len(candidate.CoverageLimits),
	})
	if err != nil {
		return 0, err
	}

	resp, err := a.client.PostJSON(ctx, a.baseURL+"/v1/quote-adjustment", a.apiKey, body)
	if err != nil {
		if ctx.Err() != nil {
			return 0, errors.NewAdjustmentTimeoutError()
		}
		return 0, errors.NewAdjustmentFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, errors.NewAdjustmentFailedError(
			fmt.Errorf("genai returned status %d: %s", resp.StatusCode, string(payload)))
	}

	var out adjustResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, errors.NewAdjustmentFailedError(err)
	}

	return clamp(out.Adjustment, -maxAdjustment, maxAdjustment), nil
}

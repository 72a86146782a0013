// internal/models/evaluated.go
package models

import "time"

// EvaluationSource records which rating path produced the evaluated set.
type EvaluationSource string

const (
	EvaluationHuman EvaluationSource = "human"
	EvaluationAI    EvaluationSource = "ai"
)

// EvaluatedQuote is a candidate quote frozen into the quote's persisted
// evaluated set. The set is keyed (quote_id, insurer key) and each forward
// replaces the previous set wholesale.
type EvaluatedQuote struct {
	QuoteID          string            `json:"quoteId" db:"quote_id"`
	InsurerKey       string            `json:"insurerKey" db:"insurer_key"`
	InsurerID        string            `json:"insurerId,omitempty" db:"insurer_id"`
	InsurerName      string            `json:"insurerName" db:"insurer_name"`
	InsurerEmail     string            `json:"insurerEmail,omitempty" db:"insurer_email"`
	CommissionSplit  float64           `json:"commissionSplit" db:"commission_split"`
	PremiumQuoted    float64           `json:"premiumQuoted" db:"premium_quoted"`
	TermsConditions  string            `json:"termsConditions" db:"terms_conditions"`
	Exclusions       []string          `json:"exclusions" db:"exclusions"`
	CoverageLimits   map[string]string `json:"coverageLimits" db:"coverage_limits"`
	RatingScore      int               `json:"ratingScore" db:"rating_score"`
	Remarks          string            `json:"remarks,omitempty" db:"remarks"`
	DocumentURL      string            `json:"documentUrl,omitempty" db:"document_url"`
	ResponseReceived bool              `json:"responseReceived" db:"response_received"`
	AIAnalysis       *AIAnalysis       `json:"aiAnalysis,omitempty" db:"ai_analysis"`
	EvaluationSource EvaluationSource  `json:"evaluationSource" db:"evaluation_source"`
	EvaluatedAt      time.Time         `json:"evaluatedAt" db:"evaluated_at"`
}

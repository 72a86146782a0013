// internal/models/candidate.go
package models

import "time"

// CandidateSource distinguishes how a candidate quote entered the pool.
type CandidateSource string

const (
	SourceDispatched CandidateSource = "dispatched"
	SourceManual     CandidateSource = "manual"
)

// DefaultInsurerName is substituted when a candidate is forwarded without
// an insurer name.
const DefaultInsurerName = "Unknown Insurer"

// InsurerDispatch is one RFQ dispatch record produced by the
// insurer-matching stage. It seeds a dispatched candidate in the pool.
type InsurerDispatch struct {
	InsurerID       string    `json:"insurerId"`
	InsurerName     string    `json:"insurerName"`
	InsurerEmail    string    `json:"insurerEmail"`
	CommissionSplit float64   `json:"commissionSplit"`
	DispatchedAt    time.Time `json:"dispatchedAt"`
}

// CandidateQuote is one insurer's response (or expected response) under
// evaluation for a quote.
type CandidateQuote struct {
	Key              string            `json:"key"`
	InsurerID        string            `json:"insurerId,omitempty"`
	InsurerName      string            `json:"insurerName"`
	InsurerEmail     string            `json:"insurerEmail,omitempty"`
	CommissionSplit  float64           `json:"commissionSplit"`
	PremiumQuoted    float64           `json:"premiumQuoted"`
	TermsConditions  string            `json:"termsConditions"`
	Exclusions       []string          `json:"exclusions"`
	CoverageLimits   map[string]string `json:"coverageLimits"`
	RatingScore      int               `json:"ratingScore"`
	Remarks          string            `json:"remarks,omitempty"`
	DocumentURL      string            `json:"documentUrl,omitempty"`
	ResponseReceived bool              `json:"responseReceived"`
	Source           CandidateSource   `json:"source"`
	DispatchedAt     *time.Time        `json:"dispatchedAt,omitempty"`
	AIAnalysis       *AIAnalysis       `json:"aiAnalysis,omitempty"`
}

// Valid reports whether the candidate counts as an actual insurer response.
// Unpriced or unanswered candidates never reach the evaluated set.
func (c *CandidateQuote) Valid() bool {
	return c.ResponseReceived && c.PremiumQuoted > 0
}

// AIAnalysis is the qualitative assessment attached to a candidate when
// rating runs in AI mode.
type AIAnalysis struct {
	PremiumCompetitiveness string `json:"premiumCompetitiveness"`
	TermsAnalysis          string `json:"termsAnalysis"`
	RiskAssessment         string `json:"riskAssessment"`
	Recommendation         string `json:"recommendation"`
	Confidence             string `json:"confidence"`
}

// ExtractedData holds fields pulled out of an uploaded quote document by
// the extraction collaborator, used to prefill a candidate.
type ExtractedData struct {
	Premium         float64           `json:"premium"`
	TermsConditions string            `json:"termsConditions,omitempty"`
	Exclusions      []string          `json:"exclusions,omitempty"`
	CoverageLimits  map[string]string `json:"coverageLimits,omitempty"`
	DocumentURL     string            `json:"documentUrl,omitempty"`
}

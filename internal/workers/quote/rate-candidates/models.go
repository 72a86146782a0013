// internal/workers/quote/rate-candidates/models.go
package ratecandidates

import "quoteflow-workers/internal/models"

type Input struct {
	QuoteID    string                   `json:"quoteId"`
	Mode       string                   `json:"mode,omitempty"` // "human" (default) or "ai"
	Candidates []*models.CandidateQuote `json:"candidates,omitempty"`
}

type Output struct {
	QuoteID    string                   `json:"quoteId"`
	Mode       string                   `json:"mode"`
	Candidates []*models.CandidateQuote `json:"candidates"`
}

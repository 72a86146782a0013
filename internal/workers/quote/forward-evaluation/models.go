// internal/workers/quote/forward-evaluation/models.go
package forwardevaluation

import "quoteflow-workers/internal/models"

type Input struct {
	QuoteID     string                   `json:"quoteId"`
	Quotes      []*models.CandidateQuote `json:"quotes,omitempty"`
	Source      string                   `json:"source,omitempty"` // "human" (default) or "ai"
	ClientEmail string                   `json:"clientEmail,omitempty"`
}

type Output struct {
	QuoteID            string                   `json:"quoteId"`
	Quotes             []*models.EvaluatedQuote `json:"quotes"`
	PartialFailure     bool                     `json:"partialFailure"`
	NotificationFailed bool                     `json:"notificationFailed"`
	Events             []string                 `json:"events,omitempty"`
}

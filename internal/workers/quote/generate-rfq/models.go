// internal/workers/quote/generate-rfq/models.go
package generaterfq

import (
	"time"

	"quoteflow-workers/internal/quote/rfq"
)

type Input struct {
	Quote           rfq.QuoteData `json:"quote"`
	Clauses         []rfq.Clause  `json:"clauses,omitempty"`
	AddOns          []rfq.Clause  `json:"addOns,omitempty"`
	AdditionalNotes string        `json:"additionalNotes,omitempty"`
}

type Output struct {
	QuoteID     string    `json:"quoteId"`
	QuoteNumber string    `json:"quoteNumber"`
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// internal/workers/quote/progress-workflow/models.go
package progressworkflow

import "time"

type Input struct {
	QuoteID string `json:"quoteId"`
	Stage   string `json:"stage"`
	Status  string `json:"status"`
}

type Output struct {
	QuoteID   string    `json:"quoteId"`
	Stage     string    `json:"stage"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

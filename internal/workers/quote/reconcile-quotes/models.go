// internal/workers/quote/reconcile-quotes/models.go
package reconcilequotes

import "quoteflow-workers/internal/models"

const (
	OperationBackfill          = "backfill"
	OperationListEligible      = "list-eligible"
	OperationConvert           = "convert"
	OperationExpiringReminders = "expiring-reminders"
)

type Input struct {
	OrganizationID string `json:"organizationId"`
	Operation      string `json:"operation"`
	// QuoteID and PolicyID drive the convert operation.
	QuoteID  string `json:"quoteId,omitempty"`
	PolicyID string `json:"policyId,omitempty"`
	// Recipient receives expiring-quote reminders.
	Recipient string `json:"recipient,omitempty"`
}

type Output struct {
	OrganizationID string          `json:"organizationId"`
	Operation      string          `json:"operation"`
	Applied        int             `json:"applied,omitempty"`
	Eligible       []*models.Quote `json:"eligible,omitempty"`
	EligibleCount  int             `json:"eligibleCount,omitempty"`
	QuoteID        string          `json:"quoteId,omitempty"`
	PolicyID       string          `json:"policyId,omitempty"`
	Expiring       int             `json:"expiring,omitempty"`
	Reminded       int             `json:"reminded,omitempty"`
}

// internal/models/payment.go
package models

import "time"

// PaymentStatus values tracked on payment transactions.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// PaymentTransaction records the premium payment attached to a quote.
// One row per quote; repeated initiations update the existing row.
type PaymentTransaction struct {
	ID             string                 `json:"id" db:"id"`
	QuoteID        string                 `json:"quoteId" db:"quote_id"`
	ClientID       string                 `json:"clientId" db:"client_id"`
	OrganizationID string                 `json:"organizationId" db:"organization_id"`
	Amount         float64                `json:"amount" db:"amount"`
	Currency       string                 `json:"currency" db:"currency"`
	PaymentMethod  string                 `json:"paymentMethod" db:"payment_method"`
	Status         string                 `json:"status" db:"status"`
	Metadata       map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time              `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time              `json:"updatedAt" db:"updated_at"`
}

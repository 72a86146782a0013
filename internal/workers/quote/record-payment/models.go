// internal/workers/quote/record-payment/models.go
package recordpayment

const (
	OperationRecord       = "record"
	OperationUpdateStatus = "update-status"
	OperationRemind       = "remind"
)

type Input struct {
	QuoteID   string `json:"quoteId"`
	Operation string `json:"operation"`
	// Amount and Currency apply to record; a zero amount falls back to
	// the quote's premium.
	Amount        float64                `json:"amount,omitempty"`
	Currency      string                 `json:"currency,omitempty"`
	PaymentMethod string                 `json:"paymentMethod,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	// Status applies to update-status.
	Status string `json:"status,omitempty"`
	// Recipient and Phone address the remind notification.
	Recipient string `json:"recipient,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type Output struct {
	QuoteID       string `json:"quoteId"`
	Operation     string `json:"operation"`
	PaymentStatus string `json:"paymentStatus,omitempty"`
	Reminded      bool   `json:"reminded,omitempty"`
}

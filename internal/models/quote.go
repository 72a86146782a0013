// internal/models/quote.go
package models

import "time"

// WorkflowStage represents the position of a quote in the broker workflow.
type WorkflowStage string

const (
	StageRFQGeneration   WorkflowStage = "rfq-generation"
	StageInsurerMatching WorkflowStage = "insurer-matching"
	StageQuoteEvaluation WorkflowStage = "quote-evaluation"
	StageClientSelection WorkflowStage = "client-selection"
	StageCompleted       WorkflowStage = "completed"
	StageConverted       WorkflowStage = "converted"
)

// StageOrder maps each stage to its position in the forward-only chain.
var StageOrder = map[WorkflowStage]int{
	StageRFQGeneration:   0,
	StageInsurerMatching: 1,
	StageQuoteEvaluation: 2,
	StageClientSelection: 3,
	StageCompleted:       4,
	StageConverted:       5,
}

// QuoteStatus represents the delivery status of a quote within its stage.
type QuoteStatus string

const (
	StatusDraft    QuoteStatus = "draft"
	StatusSent     QuoteStatus = "sent"
	StatusAccepted QuoteStatus = "accepted"
	StatusRejected QuoteStatus = "rejected"
	StatusExpired  QuoteStatus = "expired"
)

// PendingUnderwriter is the placeholder value used before an insurer
// selection has been copied onto the quote.
const PendingUnderwriter = "TBD"

// Quote represents a broker quote record
type Quote struct {
	ID                string        `json:"id" db:"id"`
	QuoteNumber       string        `json:"quoteNumber" db:"quote_number"`
	ClientID          string        `json:"clientId" db:"client_id"`
	ClientName        string        `json:"clientName" db:"client_name"`
	OrganizationID    string        `json:"organizationId" db:"organization_id"`
	Premium           float64       `json:"premium" db:"premium"`
	SumInsured        float64       `json:"sumInsured" db:"sum_insured"`
	Underwriter       string        `json:"underwriter" db:"underwriter"`
	CommissionRate    float64       `json:"commissionRate" db:"commission_rate"`
	WorkflowStage     WorkflowStage `json:"workflowStage" db:"workflow_stage"`
	Status            QuoteStatus   `json:"status" db:"status"`
	PaymentStatus     string        `json:"paymentStatus" db:"payment_status"`
	ConvertedToPolicy *string       `json:"convertedToPolicy,omitempty" db:"converted_to_policy"`
	FinalContractURL  *string       `json:"finalContractUrl,omitempty" db:"final_contract_url"`
	TermsConditions   string        `json:"termsConditions" db:"terms_conditions"`
	ValidUntil        *time.Time    `json:"validUntil,omitempty" db:"valid_until"`
	CreatedAt         time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time     `json:"updatedAt" db:"updated_at"`
}

// NeedsBackfill reports whether the quote finished evaluation without its
// financial fields being copied over from the selected insurer quote.
func (q *Quote) NeedsBackfill() bool {
	return q.WorkflowStage == StageCompleted &&
		(q.Premium == 0 || q.Underwriter == PendingUnderwriter)
}

// ConversionEligible reports whether the quote can be converted to a policy.
// Every field the policy record inherits must be in place first.
func (q *Quote) ConversionEligible() bool {
	return q.Premium > 0 &&
		q.SumInsured > 0 &&
		q.Underwriter != "" &&
		q.Underwriter != PendingUnderwriter &&
		q.ClientName != "" &&
		q.WorkflowStage == StageCompleted &&
		q.FinalContractURL != nil && *q.FinalContractURL != "" &&
		q.ConvertedToPolicy == nil
}

// KnownStage reports whether the stage value is part of the workflow chain.
func KnownStage(stage WorkflowStage) bool {
	_, ok := StageOrder[stage]
	return ok
}

// KnownStatus reports whether the status value is recognized.
func KnownStatus(status QuoteStatus) bool {
	switch status {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusExpired:
		return true
	}
	return false
}

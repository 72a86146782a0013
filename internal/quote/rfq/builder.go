// internal/quote/rfq/builder.go
package rfq

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"quoteflow-workers/internal/common/logger"
)

// Clause is a policy clause or add-on selected for the request, with its
// effect on premium expressed as a percentage.
type Clause struct {
	Name               string  `json:"name"`
	CustomName         string  `json:"customName,omitempty"`
	Category           string  `json:"category,omitempty"`
	PremiumImpactValue float64 `json:"premiumImpactValue,omitempty"`
}

// QuoteData carries the quote fields the RFQ document is rendered from.
type QuoteData struct {
	QuoteID              string     `json:"quoteId"`
	QuoteNumber          string     `json:"quoteNumber"`
	ClientName           string     `json:"clientName"`
	ClientEmail          string     `json:"clientEmail,omitempty"`
	ClientPhone          string     `json:"clientPhone,omitempty"`
	PolicyType           string     `json:"policyType"`
	SumInsured           float64    `json:"sumInsured"`
	Premium              float64    `json:"premium"`
	CommissionRate       float64    `json:"commissionRate"`
	InsuredItem          string     `json:"insuredItem,omitempty"`
	Location             string     `json:"location,omitempty"`
	InsuredDescription   string     `json:"insuredDescription,omitempty"`
	RiskDetails          string     `json:"riskDetails,omitempty"`
	CoverageRequirements string     `json:"coverageRequirements,omitempty"`
	TermsConditions      string     `json:"termsConditions,omitempty"`
	ValidUntil           *time.Time `json:"validUntil,omitempty"`
}

// Request bundles everything a single RFQ render needs.
type Request struct {
	Quote           QuoteData `json:"quote"`
	Clauses         []Clause  `json:"clauses,omitempty"`
	AddOns          []Clause  `json:"addOns,omitempty"`
	AdditionalNotes string    `json:"additionalNotes,omitempty"`
}

// Document is the rendered RFQ handed to the dispatch step.
type Document struct {
	Content     string    `json:"content"`
	QuoteID     string    `json:"quoteId"`
	QuoteNumber string    `json:"quoteNumber"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Builder renders Request for Quotation documents in the layout insurers
// receive them.
type Builder struct {
	currencySymbol string
	printer        *message.Printer
	logger         logger.Logger
	now            func() time.Time
}

func NewBuilder(currencySymbol string, log logger.Logger) *Builder {
	if currencySymbol == "" {
		currencySymbol = "₦"
	}
	return &Builder{
		currencySymbol: currencySymbol,
		printer:        message.NewPrinter(language.English),
		logger:         log,
		now:            time.Now,
	}
}

// Build renders the RFQ document. Empty quote fields render as "N/A" so a
// partially captured quote still produces a dispatchable request.
func (b *Builder) Build(req Request) *Document {
	q := req.Quote

	var sb strings.Builder
	sb.WriteString("REQUEST FOR QUOTATION\n\n")

	sb.WriteString("Client Information:\n")
	sb.WriteString("- Name: " + orNA(q.ClientName) + "\n")
	sb.WriteString("- Email: " + orNA(q.ClientEmail) + "\n")
	sb.WriteString("- Phone: " + orNA(q.ClientPhone) + "\n\n")

	sb.WriteString("Insurance Details:\n")
	sb.WriteString("- Class of Insurance: " + orNA(q.PolicyType) + "\n")
	sb.WriteString("- Sum Insured: " + b.amount(q.SumInsured) + "\n")
	sb.WriteString("- Premium: " + b.amount(q.Premium) + "\n")
	sb.WriteString(fmt.Sprintf("- Commission Rate: %g%%\n\n", q.CommissionRate))

	sb.WriteString("Insured Item Details:\n")
	sb.WriteString("- Item/Asset: " + orNA(q.InsuredItem) + "\n")
	sb.WriteString("- Location: " + orNA(q.Location) + "\n")
	sb.WriteString("- Description: " + orNA(q.InsuredDescription) + "\n")
	sb.WriteString("- Risk Assessment: " + orNA(q.RiskDetails) + "\n")
	sb.WriteString("- Coverage Requirements: " + orNA(q.CoverageRequirements) + "\n\n")

	sb.WriteString("Terms & Conditions:\n")
	if q.TermsConditions != "" {
		sb.WriteString(q.TermsConditions + "\n")
	} else {
		sb.WriteString("Standard terms and conditions apply.\n")
	}

	if len(req.Clauses) > 0 || len(req.AddOns) > 0 {
		sb.WriteString("\nSelected Clauses and Add-ons:\n")
		line := 0
		for _, c := range req.Clauses {
			line++
			sb.WriteString(fmt.Sprintf("%d. %s [%s]%s\n", line, clauseName(c, "Unknown Clause"), orNA(c.Category), premiumImpact(c)))
		}
		for _, a := range req.AddOns {
			line++
			sb.WriteString(fmt.Sprintf("%d. %s [Add-on]%s\n", line, clauseName(a, "Unknown Add-on"), premiumImpact(a)))
		}
	}

	sb.WriteString("\nValidity: ")
	if q.ValidUntil != nil {
		sb.WriteString(q.ValidUntil.Format("2006-01-02"))
	} else {
		sb.WriteString("N/A")
	}
	sb.WriteString("\n\nPlease provide your best quotation for the above requirements.\n")

	if req.AdditionalNotes != "" {
		sb.WriteString("\nAdditional Notes:\n" + req.AdditionalNotes + "\n")
	}

	doc := &Document{
		Content:     sb.String(),
		QuoteID:     q.QuoteID,
		QuoteNumber: q.QuoteNumber,
		GeneratedAt: b.now().UTC(),
	}

	b.logger.Info("RFQ document rendered", map[string]interface{}{
		"quoteId":     q.QuoteID,
		"quoteNumber": q.QuoteNumber,
		"clauses":     len(req.Clauses),
		"addOns":      len(req.AddOns),
	})
	return doc
}

func (b *Builder) amount(v float64) string {
	return b.currencySymbol + b.printer.Sprintf("%.0f", v)
}

func clauseName(c Clause, fallback string) string {
	if c.CustomName != "" {
		return c.CustomName
	}
	if c.Name != "" {
		return c.Name
	}
	return fallback
}

func premiumImpact(c Clause) string {
	if c.PremiumImpactValue == 0 {
		return ""
	}
	return fmt.Sprintf(" (%+g%% premium impact)", c.PremiumImpactValue)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

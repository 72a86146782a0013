// internal/quote/reconcile/reconciler.go
package reconcile

import (
	"context"
	"fmt"

	"quoteflow-workers/internal/common/errors"
	"quoteflow-workers/internal/common/logger"
	"quoteflow-workers/internal/common/metrics"
	"quoteflow-workers/internal/models"
)

// QuoteSource is the slice of the quote store the reconciler reads and repairs.
type QuoteSource interface {
	Get(ctx context.Context, quoteID string) (*models.Quote, error)
	ListNeedingBackfill(ctx context.Context, organizationID string) ([]*models.Quote, error)
	ApplyBackfill(ctx context.Context, quoteID string, premium float64, underwriter string, commissionRate float64, terms string) error
	ListConversionEligible(ctx context.Context, organizationID string) ([]*models.Quote, error)
	ConvertToPolicy(ctx context.Context, quoteID, policyID string) error
	ListExpiring(ctx context.Context, daysAhead int) ([]*models.Quote, error)
}

// EvaluationSource exposes the evaluated quote data backfills are copied from.
type EvaluationSource interface {
	BestForQuote(ctx context.Context, quoteID string) (*models.EvaluatedQuote, error)
}

// Reconciler repairs completed quotes whose financial fields were never
// copied over from the winning insurer response, and gates which quotes
// are offered for policy conversion.
type Reconciler struct {
	quotes QuoteSource
	evals  EvaluationSource
	logger logger.Logger
}

func New(quotes QuoteSource, evals EvaluationSource, log logger.Logger) *Reconciler {
	return &Reconciler{
		quotes: quotes,
		evals:  evals,
		logger: log,
	}
}

// Backfill copies premium, underwriter, commission rate and terms from the
// best received insurer response onto every completed quote still carrying
// placeholder financials. Rows without a usable source are skipped, not
// failed: the batch always runs to the end. Returns the number of quotes
// repaired. Running it twice is safe, repaired rows no longer match.
func (r *Reconciler) Backfill(ctx context.Context, organizationID string) (int, error) {
	pending, err := r.quotes.ListNeedingBackfill(ctx, organizationID)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, q := range pending {
		best, err := r.evals.BestForQuote(ctx, q.ID)
		if err != nil {
			r.logger.Warn("Backfill source lookup failed, skipping quote", map[string]interface{}{
				"quoteId": q.ID,
				"error":   err.Error(),
			})
			continue
		}
		if best == nil {
			r.logger.Warn("No received insurer response to backfill from, skipping quote", map[string]interface{}{
				"quoteId":     q.ID,
				"quoteNumber": q.QuoteNumber,
			})
			continue
		}

		err = r.quotes.ApplyBackfill(ctx, q.ID, best.PremiumQuoted, best.InsurerName, best.CommissionSplit, best.TermsConditions)
		if err != nil {
			r.logger.Warn("Backfill write failed, skipping quote", map[string]interface{}{
				"quoteId": q.ID,
				"error":   err.Error(),
			})
			continue
		}

		applied++
		metrics.BackfillsApplied.Inc()
		r.logger.Info("Quote backfilled from evaluated data", map[string]interface{}{
			"quoteId":     q.ID,
			"underwriter": best.InsurerName,
			"premium":     best.PremiumQuoted,
		})
	}

	if len(pending) > 0 {
		r.logger.Info("Backfill pass finished", map[string]interface{}{
			"organizationId": organizationID,
			"candidates":     len(pending),
			"applied":        applied,
		})
	}
	return applied, nil
}

// ListConversionEligible returns the quotes ready to become policies.
// A backfill pass runs first so freshly repaired quotes qualify in the
// same call. Rows the database predicate lets through but that fail the
// full eligibility check are dropped with a warning rather than returned.
func (r *Reconciler) ListConversionEligible(ctx context.Context, organizationID string) ([]*models.Quote, error) {
	if _, err := r.Backfill(ctx, organizationID); err != nil {
		return nil, err
	}

	candidates, err := r.quotes.ListConversionEligible(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	eligible := make([]*models.Quote, 0, len(candidates))
	for _, q := range candidates {
		if !q.ConversionEligible() {
			r.logger.Warn("Quote passed the database filter but is not convertible", map[string]interface{}{
				"quoteId":     q.ID,
				"quoteNumber": q.QuoteNumber,
			})
			continue
		}
		eligible = append(eligible, q)
	}
	return eligible, nil
}

// Convert turns an eligible quote into a policy. A quote still carrying
// placeholder financials is repaired inline first, so a convert straight
// after completion does not need a separate backfill pass. Conversion of
// a quote with no evaluated set to repair from is terminal: retrying
// cannot help until an evaluation is forwarded.
func (r *Reconciler) Convert(ctx context.Context, quoteID, policyID string) (*models.Quote, error) {
	q, err := r.quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if q.NeedsBackfill() {
		best, err := r.evals.BestForQuote(ctx, quoteID)
		if err != nil {
			return nil, err
		}
		if best == nil {
			return nil, errors.NewBackfillSourceMissingError(quoteID)
		}
		if err := r.quotes.ApplyBackfill(ctx, quoteID, best.PremiumQuoted, best.InsurerName, best.CommissionSplit, best.TermsConditions); err != nil {
			return nil, err
		}
		metrics.BackfillsApplied.Inc()
		q.Premium = best.PremiumQuoted
		q.Underwriter = best.InsurerName
		q.CommissionRate = best.CommissionSplit
		q.TermsConditions = best.TermsConditions
	}

	if !q.ConversionEligible() {
		return nil, errors.NewBusinessRuleError("Quote is not eligible for policy conversion",
			fmt.Sprintf("quoteId: %s, stage: %s, status: %s", quoteID, q.WorkflowStage, q.Status))
	}

	if err := r.quotes.ConvertToPolicy(ctx, quoteID, policyID); err != nil {
		return nil, err
	}

	q.ConvertedToPolicy = &policyID
	q.WorkflowStage = models.StageConverted
	q.Status = models.StatusAccepted
	metrics.StageTransitions.WithLabelValues(string(models.StageCompleted), string(models.StageConverted)).Inc()
	r.logger.Info("Quote converted to policy", map[string]interface{}{
		"quoteId":  quoteID,
		"policyId": policyID,
	})
	return q, nil
}

// Expiring lists sent quotes whose validity window closes within the next
// daysAhead days, so reminders go out before the quotes lapse.
func (r *Reconciler) Expiring(ctx context.Context, daysAhead int) ([]*models.Quote, error) {
	return r.quotes.ListExpiring(ctx, daysAhead)
}

// internal/quote/forward/forwarder.go
package forward

import (
	"context"
	"fmt"
	"time"

	"quoteflow-workers/internal/common/errors"
	"quoteflow-workers/internal/common/logger"
	"quoteflow-workers/internal/common/metrics"
	"quoteflow-workers/internal/models"
	"quoteflow-workers/internal/quote/audit"
	"quoteflow-workers/internal/quote/notify"
	"quoteflow-workers/internal/quote/rating"
)

// Event names surfaced on the forward result for the presentation layer.
const (
	EventForwarded          = "Forwarded"
	EventNotificationFailed = "NotificationFailed"
	EventStageChainBroken   = "StageChainBroken"
)

// EvaluationStore persists evaluated quote sets.
type EvaluationStore interface {
	ReplaceSet(ctx context.Context, quoteID string, set []*models.EvaluatedQuote) error
}

// StageProgressor drives workflow stage transitions.
type StageProgressor interface {
	Progress(ctx context.Context, quoteID string, stage models.WorkflowStage, status models.QuoteStatus) error
}

// AuditIndexer records forwarded evaluation snapshots.
type AuditIndexer interface {
	IndexSnapshot(ctx context.Context, s audit.Snapshot) error
}

// Request carries everything one forward needs.
type Request struct {
	QuoteID     string
	Pool        []*models.CandidateQuote
	Source      models.EvaluationSource
	ClientEmail string
}

// Result reports what the forward achieved. PartialFailure means the
// evaluation set was persisted and the first stage transition landed, but
// the auto-chain into client-selection did not.
type Result struct {
	Quotes             []*models.EvaluatedQuote `json:"quotes"`
	PartialFailure     bool                     `json:"partialFailure"`
	NotificationFailed bool                     `json:"notificationFailed"`
	Events             []string                 `json:"events"`
}

// Forwarder validates, scores, persists and advances a quote's evaluation.
type Forwarder struct {
	store    EvaluationStore
	stages   StageProgressor
	notifier notify.Notifier
	auditor  AuditIndexer
	logger   logger.Logger
	now      func() time.Time
}

func NewForwarder(store EvaluationStore, stages StageProgressor, notifier notify.Notifier, auditor AuditIndexer, log logger.Logger) *Forwarder {
	return &Forwarder{
		store:    store,
		stages:   stages,
		notifier: notifier,
		auditor:  auditor,
		logger:   log,
		now:      time.Now,
	}
}

// Forward runs the full evaluation handoff for one quote.
func (f *Forwarder) Forward(ctx context.Context, req Request) (*Result, error) {
	if err := validatePool(req.Pool); err != nil {
		return nil, err
	}

	valid := filterValid(req.Pool)
	if len(valid) == 0 {
		return nil, errors.NewNoValidQuotesError(req.QuoteID)
	}

	set := f.buildEvaluatedSet(req, valid)

	if err := f.store.ReplaceSet(ctx, req.QuoteID, set); err != nil {
		return nil, err
	}

	if err := f.stages.Progress(ctx, req.QuoteID, models.StageQuoteEvaluation, models.StatusSent); err != nil {
		return nil, err
	}

	result := &Result{
		Quotes: set,
		Events: []string{EventForwarded},
	}

	// The auto-chain into client-selection is non-fatal: the evaluation is
	// already persisted and the quote is marked evaluated.
	if err := f.stages.Progress(ctx, req.QuoteID, models.StageClientSelection, models.StatusSent); err != nil {
		result.PartialFailure = true
		result.Events = append(result.Events, EventStageChainBroken)
		f.logger.Error("auto-advance to client-selection failed", map[string]interface{}{
			"quoteId": req.QuoteID,
			"error":   err.Error(),
		})
	}

	f.sendNotification(ctx, req, set, result)
	f.indexSnapshot(ctx, req, set)

	metrics.EvaluationsForwarded.Inc()
	f.logger.Info("evaluation forwarded", map[string]interface{}{
		"quoteId":        req.QuoteID,
		"count":          len(set),
		"source":         string(req.Source),
		"partialFailure": result.PartialFailure,
	})

	return result, nil
}

// validatePool rejects candidates whose data is corrupt rather than merely
// incomplete. Unpriced or unanswered candidates are filtered later; a
// received response quoting a negative premium is bad data and aborts the
// forward before anything is persisted.
func validatePool(pool []*models.CandidateQuote) error {
	for _, c := range pool {
		if c.ResponseReceived && c.PremiumQuoted < 0 {
			return errors.NewCandidateInvalidError(
				fmt.Sprintf("candidate %s: negative premium %.2f", c.Key, c.PremiumQuoted))
		}
	}
	return nil
}

// filterValid keeps candidates that are actual responses with a premium.
func filterValid(pool []*models.CandidateQuote) []*models.CandidateQuote {
	valid := make([]*models.CandidateQuote, 0, len(pool))
	for _, c := range pool {
		if c.Valid() {
			valid = append(valid, c)
		}
	}
	return valid
}

// buildEvaluatedSet freezes the surviving candidates into evaluated rows,
// filling missing scores and defaulting optional fields.
func (f *Forwarder) buildEvaluatedSet(req Request, valid []*models.CandidateQuote) []*models.EvaluatedQuote {
	evaluatedAt := f.now().UTC()

	set := make([]*models.EvaluatedQuote, 0, len(valid))
	for _, c := range valid {
		score := c.RatingScore
		if score == 0 {
			// Baseline is the full current pool, not only the survivors.
			score = rating.Score(c, req.Pool)
		}

		insurerName := c.InsurerName
		if insurerName == "" {
			insurerName = models.DefaultInsurerName
		}
		exclusions := c.Exclusions
		if exclusions == nil {
			exclusions = []string{}
		}
		coverage := c.CoverageLimits
		if coverage == nil {
			coverage = map[string]string{}
		}

		set = append(set, &models.EvaluatedQuote{
			QuoteID:          req.QuoteID,
			InsurerKey:       c.Key,
			InsurerID:        c.InsurerID,
			InsurerName:      insurerName,
			InsurerEmail:     c.InsurerEmail,
			CommissionSplit:  c.CommissionSplit,
			PremiumQuoted:    c.PremiumQuoted,
			TermsConditions:  c.TermsConditions,
			Exclusions:       exclusions,
			CoverageLimits:   coverage,
			RatingScore:      score,
			Remarks:          c.Remarks,
			DocumentURL:      c.DocumentURL,
			ResponseReceived: c.ResponseReceived,
			AIAnalysis:       c.AIAnalysis,
			EvaluationSource: req.Source,
			EvaluatedAt:      evaluatedAt,
		})
	}
	return set
}

func (f *Forwarder) sendNotification(ctx context.Context, req Request, set []*models.EvaluatedQuote, result *Result) {
	if f.notifier == nil || req.ClientEmail == "" {
		return
	}

	n := notify.ForwardSummary(req.ClientEmail, req.QuoteID, set)
	if err := f.notifier.Send(ctx, n); err != nil {
		result.NotificationFailed = true
		result.Events = append(result.Events, EventNotificationFailed)
		f.logger.Warn("forward notification failed", map[string]interface{}{
			"quoteId":   req.QuoteID,
			"recipient": req.ClientEmail,
			"error":     err.Error(),
		})
	}
}

func (f *Forwarder) indexSnapshot(ctx context.Context, req Request, set []*models.EvaluatedQuote) {
	if f.auditor == nil {
		return
	}

	err := f.auditor.IndexSnapshot(ctx, audit.Snapshot{
		QuoteID:          req.QuoteID,
		EvaluationSource: req.Source,
		Quotes:           set,
		ForwardedAt:      f.now().UTC(),
	})
	if err != nil {
		f.logger.Warn("audit snapshot indexing failed", map[string]interface{}{
			"quoteId": req.QuoteID,
			"error":   err.Error(),
		})
	}
}

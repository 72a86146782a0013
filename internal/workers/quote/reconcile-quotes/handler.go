// internal/workers/quote/reconcile-quotes/handler.go
package reconcilequotes

import (
	"context"
	"encoding/json"
	"fmt"

	"quoteflow-workers/internal/common/errors"
	"quoteflow-workers/internal/common/logger"
	"quoteflow-workers/internal/common/metrics"
	"quoteflow-workers/internal/models"
	"quoteflow-workers/internal/quote/notify"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "reconcile-quotes"

// Reconciler is the quote repair engine this worker wraps.
type Reconciler interface {
	Backfill(ctx context.Context, organizationID string) (int, error)
	ListConversionEligible(ctx context.Context, organizationID string) ([]*models.Quote, error)
	Convert(ctx context.Context, quoteID, policyID string) (*models.Quote, error)
	Expiring(ctx context.Context, daysAhead int) ([]*models.Quote, error)
}

type Handler struct {
	config       *Config
	reconciler   Reconciler
	notifier     notify.Notifier
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, reconciler Reconciler, notifier notify.Notifier, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		reconciler:   reconciler,
		notifier:     notifier,
		logger:       scoped,
		errorHandler: errors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job,
			errors.NewInputValidationFailedError(fmt.Sprintf("parse input: %v", err)))
		return nil
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return nil
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	switch input.Operation {
	case OperationBackfill:
		if input.OrganizationID == "" {
			return nil, errors.NewInputValidationFailedError("organizationId is required")
		}
		applied, err := h.reconciler.Backfill(ctx, input.OrganizationID)
		if err != nil {
			return nil, err
		}
		return &Output{
			OrganizationID: input.OrganizationID,
			Operation:      input.Operation,
			Applied:        applied,
		}, nil

	case OperationListEligible:
		if input.OrganizationID == "" {
			return nil, errors.NewInputValidationFailedError("organizationId is required")
		}
		eligible, err := h.reconciler.ListConversionEligible(ctx, input.OrganizationID)
		if err != nil {
			return nil, err
		}
		return &Output{
			OrganizationID: input.OrganizationID,
			Operation:      input.Operation,
			Eligible:       eligible,
			EligibleCount:  len(eligible),
		}, nil

	case OperationConvert:
		if input.QuoteID == "" || input.PolicyID == "" {
			return nil, errors.NewInputValidationFailedError("quoteId and policyId are required for convert")
		}
		quote, err := h.reconciler.Convert(ctx, input.QuoteID, input.PolicyID)
		if err != nil {
			return nil, err
		}
		return &Output{
			OrganizationID: quote.OrganizationID,
			Operation:      input.Operation,
			QuoteID:        quote.ID,
			PolicyID:       input.PolicyID,
		}, nil

	case OperationExpiringReminders:
		if input.Recipient == "" {
			return nil, errors.NewInputValidationFailedError("recipient is required for expiring-reminders")
		}
		return h.sendExpiringReminders(ctx, input)

	default:
		return nil, errors.NewInputValidationFailedError("unrecognized operation: " + input.Operation)
	}
}

// sendExpiringReminders mails one reminder per quote whose validity window
// closes inside the configured lookahead. Delivery is best-effort: a failed
// send is logged and counted, never fails the batch.
func (h *Handler) sendExpiringReminders(ctx context.Context, input *Input) (*Output, error) {
	expiring, err := h.reconciler.Expiring(ctx, h.config.DaysAhead)
	if err != nil {
		return nil, err
	}

	reminded := 0
	for _, q := range expiring {
		if h.notifier == nil || q.ValidUntil == nil {
			continue
		}
		n := notify.QuoteExpiring(input.Recipient, q.QuoteNumber, *q.ValidUntil, q.Premium, h.config.Currency)
		if err := h.notifier.Send(ctx, n); err != nil {
			h.logger.Warn("expiry reminder failed", map[string]interface{}{
				"quoteId": q.ID,
				"error":   err.Error(),
			})
			continue
		}
		reminded++
	}

	h.logger.Info("expiry reminder pass finished", map[string]interface{}{
		"expiring": len(expiring),
		"reminded": reminded,
	})
	return &Output{
		OrganizationID: input.OrganizationID,
		Operation:      input.Operation,
		Expiring:       len(expiring),
		Reminded:       reminded,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(ctx)
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

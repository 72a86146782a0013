// internal/workers/quote/record-payment/handler.go
package recordpayment

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
	"github.com/google/uuid"
)

const TaskType = "record-payment"

// PaymentLedger is the slice of the payment store this worker drives.
type PaymentLedger interface {
	Upsert(ctx context.Context, p *models.PaymentTransaction) error
	UpdateStatus(ctx context.Context, quoteID, status string) error
	GetByQuote(ctx context.Context, quoteID string) (*models.PaymentTransaction, error)
}

// QuoteReader resolves the quote a payment belongs to.
type QuoteReader interface {
	Get(ctx context.Context, quoteID string) (*models.Quote, error)
}

type Handler struct {
	config       *Config
	payments     PaymentLedger
	quotes       QuoteReader
	notifier     notify.Notifier
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, payments PaymentLedger, quotes QuoteReader, notifier notify.Notifier, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		payments:     payments,
		quotes:       quotes,
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
	if input.QuoteID == "" {
		return nil, errors.NewInputValidationFailedError("quoteId is required")
	}

	switch input.Operation {
	case OperationRecord:
		return h.record(ctx, input)
	case OperationUpdateStatus:
		return h.updateStatus(ctx, input)
	case OperationRemind:
		return h.remind(ctx, input)
	default:
		return nil, errors.NewInputValidationFailedError("unrecognized operation: " + input.Operation)
	}
}

// record opens (or refreshes) the payment transaction for a quote. The
// amount defaults to the quote's premium, so the usual record call needs
// nothing beyond the quote id.
func (h *Handler) record(ctx context.Context, input *Input) (*Output, error) {
	quote, err := h.quotes.Get(ctx, input.QuoteID)
	if err != nil {
		return nil, err
	}

	amount := input.Amount
	if amount <= 0 {
		amount = quote.Premium
	}
	if amount <= 0 {
		return nil, errors.NewInputValidationFailedError(
			fmt.Sprintf("quote %s has no premium and no amount was given", input.QuoteID))
	}

	currency := input.Currency
	if currency == "" {
		currency = h.config.Currency
	}

	p := &models.PaymentTransaction{
		ID:             uuid.New().String(),
		QuoteID:        quote.ID,
		ClientID:       quote.ClientID,
		OrganizationID: quote.OrganizationID,
		Amount:         amount,
		Currency:       currency,
		PaymentMethod:  input.PaymentMethod,
		Status:         models.PaymentPending,
		Metadata:       input.Metadata,
	}
	if err := h.payments.Upsert(ctx, p); err != nil {
		return nil, err
	}

	h.logger.Info("payment transaction recorded", map[string]interface{}{
		"quoteId":  quote.ID,
		"amount":   amount,
		"currency": currency,
	})
	return &Output{
		QuoteID:       quote.ID,
		Operation:     input.Operation,
		PaymentStatus: models.PaymentPending,
	}, nil
}

func (h *Handler) updateStatus(ctx context.Context, input *Input) (*Output, error) {
	switch input.Status {
	case models.PaymentPending, models.PaymentCompleted, models.PaymentFailed, models.PaymentRefunded:
	default:
		return nil, errors.NewInputValidationFailedError("unrecognized payment status: " + input.Status)
	}

	if err := h.payments.UpdateStatus(ctx, input.QuoteID, input.Status); err != nil {
		return nil, err
	}

	h.logger.Info("payment status updated", map[string]interface{}{
		"quoteId": input.QuoteID,
		"status":  input.Status,
	})
	return &Output{
		QuoteID:       input.QuoteID,
		Operation:     input.Operation,
		PaymentStatus: input.Status,
	}, nil
}

// remind chases an outstanding premium. The reminder is high-priority, so
// a phone number on the input also triggers the SMS channel.
func (h *Handler) remind(ctx context.Context, input *Input) (*Output, error) {
	if input.Recipient == "" {
		return nil, errors.NewInputValidationFailedError("recipient is required for remind")
	}

	payment, err := h.payments.GetByQuote(ctx, input.QuoteID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, errors.NewResourceNotFoundError("payments", "no payment transaction for quote "+input.QuoteID)
	}

	if payment.Status == models.PaymentCompleted || payment.Status == models.PaymentRefunded {
		h.logger.Info("payment already settled, no reminder sent", map[string]interface{}{
			"quoteId": input.QuoteID,
			"status":  payment.Status,
		})
		return &Output{
			QuoteID:       input.QuoteID,
			Operation:     input.Operation,
			PaymentStatus: payment.Status,
		}, nil
	}

	if h.notifier == nil {
		return nil, errors.NewNotificationSendFailedError(notify.KindPaymentReminder,
			fmt.Errorf("no notification channel configured"))
	}

	quote, err := h.quotes.Get(ctx, input.QuoteID)
	if err != nil {
		return nil, err
	}

	n := notify.PaymentReminder(input.Recipient, input.Phone, quote.QuoteNumber, payment.Amount, payment.Currency)
	if err := h.notifier.Send(ctx, n); err != nil {
		return nil, err
	}

	h.logger.Info("payment reminder sent", map[string]interface{}{
		"quoteId":   input.QuoteID,
		"recipient": input.Recipient,
		"sms":       input.Phone != "",
	})
	return &Output{
		QuoteID:       input.QuoteID,
		Operation:     input.Operation,
		PaymentStatus: payment.Status,
		Reminded:      true,
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

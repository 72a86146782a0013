// internal/workers/quote/query-quotes/handler.go
package queryquotes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quoteflow-workers/internal/common/errors"
	"quoteflow-workers/internal/common/logger"
	"quoteflow-workers/internal/common/metrics"
	"quoteflow-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "query-quotes"

// QuoteQuerier is the read-only slice of the quote store this worker serves.
type QuoteQuerier interface {
	ListByOrganization(ctx context.Context, organizationID string) ([]*models.Quote, error)
	ListByStage(ctx context.Context, organizationID string, stage models.WorkflowStage) ([]*models.Quote, error)
}

type Handler struct {
	config       *Config
	quotes       QuoteQuerier
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, quotes QuoteQuerier, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		quotes:       quotes,
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
	if input.OrganizationID == "" {
		return nil, errors.NewInputValidationFailedError("organizationId is required")
	}

	start := time.Now()
	var quotes []*models.Quote
	var err error

	switch input.QueryType {
	case QueryByOrganization:
		quotes, err = h.quotes.ListByOrganization(ctx, input.OrganizationID)

	case QueryByStage:
		stage := models.WorkflowStage(input.Stage)
		if !models.KnownStage(stage) {
			return nil, errors.NewUnknownStageError(input.Stage)
		}
		quotes, err = h.quotes.ListByStage(ctx, input.OrganizationID, stage)

	default:
		return nil, errors.NewInputValidationFailedError("unrecognized queryType: " + input.QueryType)
	}
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start).Milliseconds()
	h.logger.Info("quote query served", map[string]interface{}{
		"organizationId": input.OrganizationID,
		"queryType":      input.QueryType,
		"rows":           len(quotes),
		"elapsedMs":      elapsed,
	})
	return &Output{
		OrganizationID:     input.OrganizationID,
		QueryType:          input.QueryType,
		Quotes:             quotes,
		RowCount:           len(quotes),
		QueryExecutionTime: elapsed,
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

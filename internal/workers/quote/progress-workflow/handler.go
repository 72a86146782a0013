// internal/workers/quote/progress-workflow/handler.go
package progressworkflow

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

const TaskType = "progress-workflow"

// StageController applies validated stage transitions.
type StageController interface {
	Progress(ctx context.Context, quoteID string, stage models.WorkflowStage, status models.QuoteStatus) error
}

type Handler struct {
	config       *Config
	controller   StageController
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, controller StageController, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		controller:   controller,
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

	stage := models.WorkflowStage(input.Stage)
	status := models.QuoteStatus(input.Status)

	if err := h.controller.Progress(ctx, input.QuoteID, stage, status); err != nil {
		return nil, err
	}

	return &Output{
		QuoteID:   input.QuoteID,
		Stage:     input.Stage,
		Status:    input.Status,
		UpdatedAt: time.Now().UTC(),
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

// internal/workers/quote/forward-evaluation/handler.go
package forwardevaluation

import (
	"context"
	"encoding/json"
	"fmt"

	"quoteflow-workers/internal/common/errors"
	"quoteflow-workers/internal/common/logger"
	"quoteflow-workers/internal/common/metrics"
	"quoteflow-workers/internal/models"
	"quoteflow-workers/internal/quote/aggregate"
	"quoteflow-workers/internal/quote/forward"
	"quoteflow-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const TaskType = "forward-evaluation"

// Forwarder is the evaluation handoff this worker wraps.
type Forwarder interface {
	Forward(ctx context.Context, req forward.Request) (*forward.Result, error)
}

type Handler struct {
	config       *Config
	forwarder    Forwarder
	sessions     *aggregate.SessionStore
	registry     *registry.TaskRegistry
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, fwd Forwarder, rdb *redis.Client, reg *registry.TaskRegistry, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	var sessions *aggregate.SessionStore
	if rdb != nil {
		sessions = aggregate.NewSessionStore(rdb, config.PoolTTL, scoped)
	}
	return &Handler{
		config:       config,
		forwarder:    fwd,
		sessions:     sessions,
		registry:     reg,
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

	if err := h.validateVariables(job.Variables); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return nil
	}

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

// validateVariables checks the raw job variables against the registry's
// input schema before decoding into the typed input.
func (h *Handler) validateVariables(variables string) error {
	if h.registry == nil {
		return nil
	}

	var vars map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &vars); err != nil {
		return errors.NewInputValidationFailedError(fmt.Sprintf("parse variables: %v", err))
	}
	if err := h.registry.ValidateInput(TaskType, vars); err != nil {
		return errors.NewInputValidationFailedError(err.Error())
	}
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.QuoteID == "" {
		return nil, errors.NewInputValidationFailedError("quoteId is required")
	}

	source := models.EvaluationHuman
	if input.Source == string(models.EvaluationAI) {
		source = models.EvaluationAI
	}

	result, err := h.forwarder.Forward(ctx, forward.Request{
		QuoteID:     input.QuoteID,
		Pool:        input.Quotes,
		Source:      source,
		ClientEmail: input.ClientEmail,
	})
	if err != nil {
		return nil, err
	}

	// The open session has been superseded by the persisted set.
	if h.sessions != nil {
		if err := h.sessions.Delete(ctx, input.QuoteID); err != nil {
			h.logger.Warn("failed to drop pool session after forward", map[string]interface{}{
				"quoteId": input.QuoteID,
				"error":   err.Error(),
			})
		}
	}

	h.logger.Info("evaluation forwarded", map[string]interface{}{
		"quoteId":        input.QuoteID,
		"quotes":         len(result.Quotes),
		"partialFailure": result.PartialFailure,
	})

	return &Output{
		QuoteID:            input.QuoteID,
		Quotes:             result.Quotes,
		PartialFailure:     result.PartialFailure,
		NotificationFailed: result.NotificationFailed,
		Events:             result.Events,
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

func (h *Handler) ValidateVariables(variables string) error {
	return h.validateVariables(variables)
}

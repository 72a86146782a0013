// internal/workers/quote/rate-candidates/handler.go
package ratecandidates

import (
	"context"
	"encoding/json"
	"fmt"

	"quoteflow-workers/internal/common/errors"
	"quoteflow-workers/internal/common/logger"
	"quoteflow-workers/internal/common/metrics"
	"quoteflow-workers/internal/models"
	"quoteflow-workers/internal/quote/aggregate"
	"quoteflow-workers/internal/quote/rating"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "rate-candidates"

	ModeHuman = "human"
	ModeAI    = "ai"
)

type Handler struct {
	config       *Config
	sessions     *aggregate.SessionStore
	adjuster     rating.Adjuster
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, rdb *redis.Client, adjuster rating.Adjuster, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sessions:     aggregate.NewSessionStore(rdb, config.PoolTTL, scoped),
		adjuster:     adjuster,
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

	mode := input.Mode
	if mode == "" {
		mode = ModeHuman
	}
	if mode != ModeHuman && mode != ModeAI {
		return nil, errors.NewInputValidationFailedError("unrecognized rating mode: " + mode)
	}

	pool, fromSession, err := h.resolvePool(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, errors.NewNoValidQuotesError(input.QuoteID)
	}

	switch mode {
	case ModeAI:
		evaluator := rating.NewEvaluator(h.adjuster, h.logger)
		pool = evaluator.Evaluate(ctx, pool)
	default:
		pool = rating.ScoreAll(pool)
	}
	metrics.QuotesEvaluated.WithLabelValues(mode).Add(float64(len(pool)))

	if fromSession != nil {
		// Scores belong to the open session too, so reopening the screen
		// shows them without a re-rate.
		if err := h.sessions.Save(ctx, input.QuoteID, fromSession); err != nil {
			h.logger.Warn("failed to persist rated pool session", map[string]interface{}{
				"quoteId": input.QuoteID,
				"error":   err.Error(),
			})
		}
	}

	h.logger.Info("candidate pool rated", map[string]interface{}{
		"quoteId":    input.QuoteID,
		"mode":       mode,
		"candidates": len(pool),
	})

	return &Output{
		QuoteID:    input.QuoteID,
		Mode:       mode,
		Candidates: pool,
	}, nil
}

// resolvePool prefers candidates carried in the job variables; with none,
// it falls back to the open evaluation session in Redis.
func (h *Handler) resolvePool(ctx context.Context, input *Input) ([]*models.CandidateQuote, *aggregate.Pool, error) {
	if len(input.Candidates) > 0 {
		return input.Candidates, nil, nil
	}

	session, err := h.sessions.Load(ctx, input.QuoteID)
	if err != nil {
		return nil, nil, errors.NewQueryExecutionFailedError("load pool session", err)
	}
	if session == nil {
		return nil, nil, nil
	}
	return session.All(), session, nil
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

// internal/quote/workflow/controller.go
package workflow

import (
	"context"
	"time"

	"quoteflow-workers/internal/common/errors"
	"quoteflow-workers/internal/common/logger"
	"quoteflow-workers/internal/common/metrics"
	"quoteflow-workers/internal/models"
)

// StageStore is the slice of the quote store the controller needs.
type StageStore interface {
	Get(ctx context.Context, quoteID string) (*models.Quote, error)
	UpdateStage(ctx context.Context, quoteID string, stage models.WorkflowStage, status models.QuoteStatus) error
}

// Controller drives quote workflow stage transitions. It is the only
// component that mutates workflow_stage.
type Controller struct {
	store      StageStore
	logger     logger.Logger
	maxRetries int
	baseDelay  time.Duration
}

func NewController(store StageStore, log logger.Logger) *Controller {
	return &Controller{
		store:      store,
		logger:     log,
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
	}
}

// Progress moves the quote to the target stage and status. Stages only move
// forward; writing the current stage again is allowed so the status can
// change on its own. Transient store failures are retried with backoff.
func (c *Controller) Progress(ctx context.Context, quoteID string, stage models.WorkflowStage, status models.QuoteStatus) error {
	if !models.KnownStage(stage) {
		return errors.NewUnknownStageError(string(stage))
	}
	if !models.KnownStatus(status) {
		return errors.NewInputValidationFailedError("unrecognized status: " + string(status))
	}

	quote, err := c.store.Get(ctx, quoteID)
	if err != nil {
		return err
	}

	current := quote.WorkflowStage
	if models.KnownStage(current) && models.StageOrder[stage] < models.StageOrder[current] {
		return errors.NewInvalidTransitionError(string(current), string(stage))
	}

	if err := c.updateWithRetry(ctx, quoteID, stage, status); err != nil {
		return errors.NewStageProgressionFailedError(quoteID, string(stage), err)
	}

	metrics.StageTransitions.WithLabelValues(string(current), string(stage)).Inc()
	c.logger.Info("workflow stage progressed", map[string]interface{}{
		"quoteId": quoteID,
		"from":    string(current),
		"to":      string(stage),
		"status":  string(status),
	})
	return nil
}

func (c *Controller) updateWithRetry(ctx context.Context, quoteID string, stage models.WorkflowStage, status models.QuoteStatus) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		lastErr = c.store.UpdateStage(ctx, quoteID, stage, status)
		if lastErr == nil {
			return nil
		}

		// Only transient store errors are worth another attempt.
		if stdErr := errors.ToStandardError(lastErr); !stdErr.Retryable || attempt == c.maxRetries {
			return lastErr
		}

		delay := c.baseDelay * time.Duration(1<<attempt)
		c.logger.Warn("stage write failed, retrying", map[string]interface{}{
			"quoteId": quoteID,
			"stage":   string(stage),
			"attempt": attempt + 1,
			"error":   lastErr.Error(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

// internal/quote/workflow/controller_test.go
package workflow

import (
	"context"
	"testing"

	"quoteflow-workers/internal/common/errors"
	"quoteflow-workers/internal/common/logger"
	"quoteflow-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

// fakeStore records stage writes and can fail a configured number of times.
type fakeStore struct {
	quote        *models.Quote
	getErr       error
	updateErr    error
	failuresLeft int
	updates      []struct {
		stage  models.WorkflowStage
		status models.QuoteStatus
	}
}

func (f *fakeStore) Get(ctx context.Context, quoteID string) (*models.Quote, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.quote, nil
}

func (f *fakeStore) UpdateStage(ctx context.Context, quoteID string, stage models.WorkflowStage, status models.QuoteStatus) error {
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return f.updateErr
	}
	f.updates = append(f.updates, struct {
		stage  models.WorkflowStage
		status models.QuoteStatus
	}{stage, status})
	f.quote.WorkflowStage = stage
	f.quote.Status = status
	return nil
}

func quoteAt(stage models.WorkflowStage) *models.Quote {
	return &models.Quote{
		ID:            "quote-1",
		WorkflowStage: stage,
		Status:        models.StatusDraft,
	}
}

func newTestController(store StageStore, t *testing.T) *Controller {
	c := NewController(store, newTestLogger(t))
	c.baseDelay = 0 // no sleeping in tests
	return c
}

// ==========================
// Transition Tests
// ==========================

func TestController_ForwardProgression(t *testing.T) {
	tests := []struct {
		name    string
		current models.WorkflowStage
		target  models.WorkflowStage
	}{
		{"one step forward", models.StageRFQGeneration, models.StageInsurerMatching},
		{"skip ahead", models.StageInsurerMatching, models.StageClientSelection},
		{"into terminal stage", models.StageCompleted, models.StageConverted},
		{"same stage rewrite", models.StageQuoteEvaluation, models.StageQuoteEvaluation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{quote: quoteAt(tt.current)}
			c := newTestController(store, t)

			err := c.Progress(context.Background(), "quote-1", tt.target, models.StatusSent)
			assert.NoError(t, err)
			assert.Len(t, store.updates, 1)
			assert.Equal(t, tt.target, store.updates[0].stage)
			assert.Equal(t, models.StatusSent, store.updates[0].status)
		})
	}
}

func TestController_BackwardTransitionRejected(t *testing.T) {
	store := &fakeStore{quote: quoteAt(models.StageClientSelection)}
	c := newTestController(store, t)

	err := c.Progress(context.Background(), "quote-1", models.StageQuoteEvaluation, models.StatusSent)
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidTransition, errors.ToStandardError(err).Code)
	assert.Empty(t, store.updates)
}

func TestController_UnknownStageRejected(t *testing.T) {
	store := &fakeStore{quote: quoteAt(models.StageRFQGeneration)}
	c := newTestController(store, t)

	err := c.Progress(context.Background(), "quote-1", "underwriting-review", models.StatusSent)
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnknownStage, errors.ToStandardError(err).Code)
	assert.Empty(t, store.updates)
}

func TestController_UnknownStatusRejected(t *testing.T) {
	store := &fakeStore{quote: quoteAt(models.StageRFQGeneration)}
	c := newTestController(store, t)

	err := c.Progress(context.Background(), "quote-1", models.StageInsurerMatching, "archived")
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeInputValidationFailed, errors.ToStandardError(err).Code)
}

func TestController_MissingQuote(t *testing.T) {
	store := &fakeStore{getErr: errors.NewQuoteNotFoundError("quote-1")}
	c := newTestController(store, t)

	err := c.Progress(context.Background(), "quote-1", models.StageInsurerMatching, models.StatusSent)
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeQuoteNotFound, errors.ToStandardError(err).Code)
}

// ==========================
// Retry Tests
// ==========================

func TestController_RetriesTransientWriteFailure(t *testing.T) {
	store := &fakeStore{
		quote:        quoteAt(models.StageQuoteEvaluation),
		updateErr:    errors.NewQueryExecutionFailedError("update quote stage", context.DeadlineExceeded),
		failuresLeft: 2,
	}
	c := newTestController(store, t)

	err := c.Progress(context.Background(), "quote-1", models.StageClientSelection, models.StatusSent)
	assert.NoError(t, err)
	assert.Len(t, store.updates, 1)
}

func TestController_ExhaustedRetriesSurfaceStageProgressionFailure(t *testing.T) {
	store := &fakeStore{
		quote:        quoteAt(models.StageQuoteEvaluation),
		updateErr:    errors.NewQueryExecutionFailedError("update quote stage", context.DeadlineExceeded),
		failuresLeft: 10,
	}
	c := newTestController(store, t)

	err := c.Progress(context.Background(), "quote-1", models.StageClientSelection, models.StatusSent)
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeStageProgressionFailed, errors.ToStandardError(err).Code)
	assert.Empty(t, store.updates)
}

func TestController_NonRetryableWriteFailureStopsImmediately(t *testing.T) {
	store := &fakeStore{
		quote:        quoteAt(models.StageQuoteEvaluation),
		updateErr:    errors.NewQuoteNotFoundError("quote-1"),
		failuresLeft: 10,
	}
	c := newTestController(store, t)

	err := c.Progress(context.Background(), "quote-1", models.StageClientSelection, models.StatusSent)
	assert.Error(t, err)
	assert.Equal(t, 9, store.failuresLeft, "single attempt expected for non-retryable error")
}

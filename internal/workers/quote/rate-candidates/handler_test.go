// internal/workers/quote/rate-candidates/handler_test.go
package ratecandidates

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"quoteflow-workers/internal/common/errors"
	"quoteflow-workers/internal/common/logger"
	"quoteflow-workers/internal/models"
	"quoteflow-workers/internal/quote/aggregate"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		PoolTTL: 2 * time.Hour,
	}
}

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

// fixedAdjuster always returns the same delta, keeping AI mode deterministic.
type fixedAdjuster struct {
	delta int
}

func (f fixedAdjuster) Adjust(ctx context.Context, baseScore int, candidate *models.CandidateQuote) (int, error) {
	return f.delta, nil
}

func newTestHandler(t *testing.T, rdb *redis.Client, delta int) *Handler {
	if rdb == nil {
		rdb, _ = redismock.NewClientMock()
	}
	return NewHandler(createTestConfig(), rdb, fixedAdjuster{delta: delta}, newTestLogger(t))
}

func createTestCandidates() []*models.CandidateQuote {
	return []*models.CandidateQuote{
		{
			Key:              "leadway",
			InsurerName:      "Leadway Assurance",
			PremiumQuoted:    100000,
			TermsConditions:  strings.Repeat("Comprehensive cover terms. ", 3), // > 50 chars
			CoverageLimits:   map[string]string{"fire": "full", "theft": "full"},
			CommissionSplit:  10,
			ResponseReceived: true,
		},
		{
			Key:              "aiico",
			InsurerName:      "AIICO",
			PremiumQuoted:    200000,
			TermsConditions:  "Basic terms",
			CommissionSplit:  5,
			ResponseReceived: true,
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_HumanMode(t *testing.T) {
	h := newTestHandler(t, nil, 0)

	output, err := h.Execute(context.Background(), &Input{
		QuoteID:    "quote-1",
		Mode:       ModeHuman,
		Candidates: createTestCandidates(),
	})

	require.NoError(t, err)
	require.Len(t, output.Candidates, 2)
	assert.Equal(t, ModeHuman, output.Mode)

	// Cheapest candidate: 40 premium + 20 terms + 8 coverage + 10 timeliness + 5 commission.
	assert.Equal(t, 83, output.Candidates[0].RatingScore)
	// Most expensive: only timeliness scores.
	assert.Equal(t, 10, output.Candidates[1].RatingScore)
	assert.Nil(t, output.Candidates[0].AIAnalysis)
}

func TestHandler_Execute_DefaultsToHumanMode(t *testing.T) {
	h := newTestHandler(t, nil, 0)

	output, err := h.Execute(context.Background(), &Input{
		QuoteID:    "quote-1",
		Candidates: createTestCandidates(),
	})

	require.NoError(t, err)
	assert.Equal(t, ModeHuman, output.Mode)
}

func TestHandler_Execute_AIMode(t *testing.T) {
	h := newTestHandler(t, nil, 5)

	output, err := h.Execute(context.Background(), &Input{
		QuoteID:    "quote-1",
		Mode:       ModeAI,
		Candidates: createTestCandidates(),
	})

	require.NoError(t, err)
	assert.Equal(t, ModeAI, output.Mode)

	// Base scores plus the fixed +5 adjustment.
	assert.Equal(t, 88, output.Candidates[0].RatingScore)
	assert.Equal(t, 15, output.Candidates[1].RatingScore)

	for _, c := range output.Candidates {
		require.NotNil(t, c.AIAnalysis)
		assert.NotEmpty(t, c.AIAnalysis.Recommendation)
		assert.NotEmpty(t, c.AIAnalysis.RiskAssessment)
	}
	assert.Equal(t, "Comprehensive terms reviewed", output.Candidates[0].AIAnalysis.TermsAnalysis)
	assert.Equal(t, "Limited terms information", output.Candidates[1].AIAnalysis.TermsAnalysis)
}

// ==========================
// Session Pool Tests
// ==========================

func TestHandler_Execute_LoadsPoolFromSession(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	h := newTestHandler(t, rdb, 0)

	pool := &aggregate.Pool{
		Dispatched: createTestCandidates(),
		Manual:     []*models.CandidateQuote{},
	}
	data, err := json.Marshal(pool)
	require.NoError(t, err)

	mock.ExpectGet("quote:pool:quote-1").SetVal(string(data))
	mock.Regexp().ExpectSet("quote:pool:quote-1", `.*"ratingScore":83.*`, 2*time.Hour).SetVal("OK")

	output, err := h.Execute(context.Background(), &Input{QuoteID: "quote-1", Mode: ModeHuman})

	require.NoError(t, err)
	require.Len(t, output.Candidates, 2)
	assert.Equal(t, 83, output.Candidates[0].RatingScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_NoCandidatesAnywhere(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	h := newTestHandler(t, rdb, 0)

	mock.ExpectGet("quote:pool:quote-1").RedisNil()

	_, err := h.Execute(context.Background(), &Input{QuoteID: "quote-1"})
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeNoValidQuotes, errors.ToStandardError(err).Code)
}

// ==========================
// Input Validation Tests
// ==========================

func TestHandler_Execute_InputValidation(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{"missing quote id", &Input{Mode: ModeHuman, Candidates: createTestCandidates()}},
		{"unrecognized mode", &Input{QuoteID: "quote-1", Mode: "oracle", Candidates: createTestCandidates()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, nil, 0)
			_, err := h.Execute(context.Background(), tt.input)
			assert.Error(t, err)
			assert.Equal(t, errors.ErrCodeInputValidationFailed, errors.ToStandardError(err).Code)
		})
	}
}

// internal/quote/store/evaluated_test.go
package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"quoteflow-workers/internal/common/errors"
	"quoteflow-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func createEvaluatedSet(quoteID string, n int) []*models.EvaluatedQuote {
	set := make([]*models.EvaluatedQuote, 0, n)
	for i := 0; i < n; i++ {
		set = append(set, &models.EvaluatedQuote{
			QuoteID:          quoteID,
			InsurerKey:       fmt.Sprintf("ins-%d", i+1),
			InsurerName:      fmt.Sprintf("Insurer %d", i+1),
			CommissionSplit:  10,
			PremiumQuoted:    float64(1_000_000 * (i + 1)),
			TermsConditions:  "standard terms",
			Exclusions:       []string{},
			CoverageLimits:   map[string]string{},
			RatingScore:      90 - i*10,
			ResponseReceived: true,
			EvaluationSource: models.EvaluationHuman,
			EvaluatedAt:      time.Now(),
		})
	}
	return set
}

// ==========================
// ReplaceSet Tests
// ==========================

func TestEvaluatedStore_ReplaceSet(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewEvaluatedStore(db, newTestLogger(t))

	set := createEvaluatedSet("quote-1", 2)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM evaluated_quotes`).
		WithArgs("quote-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO evaluated_quotes`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO evaluated_quotes`).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := s.ReplaceSet(context.Background(), "quote-1", set)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluatedStore_ReplaceSet_RollsBackOnInsertFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewEvaluatedStore(db, newTestLogger(t))

	set := createEvaluatedSet("quote-1", 1)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM evaluated_quotes`).
		WithArgs("quote-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO evaluated_quotes`).
		WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectRollback()

	err := s.ReplaceSet(context.Background(), "quote-1", set)
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeEvaluationPersistFailed, errors.ToStandardError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluatedStore_ReplaceSet_EmptySetClearsRows(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewEvaluatedStore(db, newTestLogger(t))

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM evaluated_quotes`).
		WithArgs("quote-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	err := s.ReplaceSet(context.Background(), "quote-1", nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// BestForQuote Tests
// ==========================

func TestEvaluatedStore_BestForQuote(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewEvaluatedStore(db, newTestLogger(t))

	rows := sqlmock.NewRows([]string{
		"quote_id", "insurer_key", "insurer_name", "commission_split",
		"premium_quoted", "terms_conditions", "rating_score",
		"response_received", "evaluation_source", "evaluated_at",
	}).AddRow(
		"quote-1", "ins-1", "Leadway Assurance", 12.5,
		2_500_000.0, "standard terms", 87,
		true, "human", time.Now(),
	)

	mock.ExpectQuery(`FROM evaluated_quotes`).
		WithArgs("quote-1").
		WillReturnRows(rows)

	best, err := s.BestForQuote(context.Background(), "quote-1")
	assert.NoError(t, err)
	assert.NotNil(t, best)
	assert.Equal(t, "Leadway Assurance", best.InsurerName)
	assert.Equal(t, 87, best.RatingScore)
}

func TestEvaluatedStore_BestForQuote_NoRows(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewEvaluatedStore(db, newTestLogger(t))

	mock.ExpectQuery(`FROM evaluated_quotes`).
		WithArgs("quote-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"quote_id", "insurer_key", "insurer_name", "commission_split",
			"premium_quoted", "terms_conditions", "rating_score",
			"response_received", "evaluation_source", "evaluated_at",
		}))

	best, err := s.BestForQuote(context.Background(), "quote-1")
	assert.NoError(t, err)
	assert.Nil(t, best)
}

// ==========================
// ListForQuote Tests
// ==========================

func TestEvaluatedStore_ListForQuote(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewEvaluatedStore(db, newTestLogger(t))

	rows := sqlmock.NewRows([]string{
		"quote_id", "insurer_key", "insurer_id", "insurer_name", "insurer_email",
		"commission_split", "premium_quoted", "terms_conditions",
		"exclusions", "coverage_limits", "rating_score", "remarks",
		"document_url", "response_received", "ai_analysis",
		"evaluation_source", "evaluated_at",
	}).AddRow(
		"quote-1", "ins-1", "ins-1", "Leadway Assurance", "quotes@leadway.test",
		12.5, 2_500_000.0, "standard terms",
		[]byte(`["war"]`), []byte(`{"fire":"50000000"}`), 87, nil,
		nil, true, []byte(`{"premiumCompetitiveness":"Excellent","termsAnalysis":"","riskAssessment":"","recommendation":"Highly recommended","confidence":"92%"}`),
		"ai", time.Now(),
	)

	mock.ExpectQuery(`FROM evaluated_quotes`).
		WithArgs("quote-1").
		WillReturnRows(rows)

	set, err := s.ListForQuote(context.Background(), "quote-1")
	assert.NoError(t, err)
	assert.Len(t, set, 1)
	assert.Equal(t, []string{"war"}, set[0].Exclusions)
	assert.Equal(t, "50000000", set[0].CoverageLimits["fire"])
	assert.NotNil(t, set[0].AIAnalysis)
	assert.Equal(t, "Excellent", set[0].AIAnalysis.PremiumCompetitiveness)
	assert.Equal(t, models.EvaluationAI, set[0].EvaluationSource)
}

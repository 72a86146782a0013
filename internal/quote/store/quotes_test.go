// internal/quote/store/quotes_test.go
package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"quoteflow-workers/internal/common/errors"
	"quoteflow-workers/internal/common/logger"
	"quoteflow-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
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

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

var quoteRowColumns = []string{
	"id", "quote_number", "client_id", "client_name", "organization_id",
	"premium", "sum_insured", "underwriter", "commission_rate",
	"workflow_stage", "status", "payment_status",
	"converted_to_policy", "final_contract_url", "terms_conditions",
	"valid_until", "created_at", "updated_at",
}

func addQuoteRow(rows *sqlmock.Rows, id string, premium float64, underwriter string, stage models.WorkflowStage) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(
		id, "Q-2026-001", "client-1", "Acme Ltd", "org-1",
		premium, 10_000_000.0, underwriter, 12.5,
		string(stage), "sent", "pending",
		nil, "https://docs.test/contract.pdf", "standard terms",
		now.Add(30*24*time.Hour), now, now,
	)
}

// ==========================
// QuoteStore Tests
// ==========================

func TestQuoteStore_Get(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewQuoteStore(db, newTestLogger(t))

	rows := sqlmock.NewRows(quoteRowColumns)
	addQuoteRow(rows, "quote-1", 2_500_000, "Leadway Assurance", models.StageCompleted)

	mock.ExpectQuery(`FROM quotes`).WithArgs("quote-1").WillReturnRows(rows)

	q, err := s.Get(context.Background(), "quote-1")
	assert.NoError(t, err)
	assert.Equal(t, "quote-1", q.ID)
	assert.Equal(t, 2_500_000.0, q.Premium)
	assert.Equal(t, models.StageCompleted, q.WorkflowStage)
	assert.NotNil(t, q.FinalContractURL)
	assert.Nil(t, q.ConvertedToPolicy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteStore_Get_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewQuoteStore(db, newTestLogger(t))

	mock.ExpectQuery(`FROM quotes`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	q, err := s.Get(context.Background(), "missing")
	assert.Nil(t, q)
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeQuoteNotFound, errors.ToStandardError(err).Code)
}

func TestQuoteStore_Get_DeadlineMapsToQueryTimeout(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewQuoteStore(db, newTestLogger(t))

	mock.ExpectQuery(`FROM quotes`).
		WithArgs("quote-1").
		WillReturnError(context.DeadlineExceeded)

	_, err := s.Get(context.Background(), "quote-1")
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeQueryTimeout, errors.ToStandardError(err).Code)
	assert.True(t, errors.ToStandardError(err).Retryable)
}

func TestQuoteStore_UpdateStage(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewQuoteStore(db, newTestLogger(t))

	mock.ExpectExec(`UPDATE quotes`).
		WithArgs("quote-1", "client-selection", "sent").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.UpdateStage(context.Background(), "quote-1", models.StageClientSelection, models.StatusSent)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteStore_UpdateStage_MissingQuote(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewQuoteStore(db, newTestLogger(t))

	mock.ExpectExec(`UPDATE quotes`).
		WithArgs("ghost", "completed", "sent").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateStage(context.Background(), "ghost", models.StageCompleted, models.StatusSent)
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeQuoteNotFound, errors.ToStandardError(err).Code)
}

func TestQuoteStore_ListNeedingBackfill(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewQuoteStore(db, newTestLogger(t))

	rows := sqlmock.NewRows(quoteRowColumns)
	addQuoteRow(rows, "quote-1", 0, models.PendingUnderwriter, models.StageCompleted)
	addQuoteRow(rows, "quote-2", 2_000_000, models.PendingUnderwriter, models.StageCompleted)

	mock.ExpectQuery(`FROM quotes`).
		WithArgs("org-1", "completed", models.PendingUnderwriter).
		WillReturnRows(rows)

	quotes, err := s.ListNeedingBackfill(context.Background(), "org-1")
	assert.NoError(t, err)
	assert.Len(t, quotes, 2)
	assert.True(t, quotes[0].NeedsBackfill())
}

func TestQuoteStore_ApplyBackfill(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewQuoteStore(db, newTestLogger(t))

	mock.ExpectExec(`UPDATE quotes`).
		WithArgs("quote-1", 2_500_000.0, "Leadway Assurance", 12.5, "terms text").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.ApplyBackfill(context.Background(), "quote-1", 2_500_000, "Leadway Assurance", 12.5, "terms text")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteStore_ListConversionEligible(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewQuoteStore(db, newTestLogger(t))

	rows := sqlmock.NewRows(quoteRowColumns)
	addQuoteRow(rows, "quote-1", 2_500_000, "Leadway Assurance", models.StageCompleted)

	mock.ExpectQuery(`FROM quotes`).
		WithArgs("org-1", "completed", models.PendingUnderwriter).
		WillReturnRows(rows)

	quotes, err := s.ListConversionEligible(context.Background(), "org-1")
	assert.NoError(t, err)
	assert.Len(t, quotes, 1)
	assert.True(t, quotes[0].ConversionEligible())
}

func TestQuoteStore_ConvertToPolicy(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewQuoteStore(db, newTestLogger(t))

	mock.ExpectExec(`UPDATE quotes`).
		WithArgs("quote-1", "accepted", "policy-9", "converted").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, s.ConvertToPolicy(context.Background(), "quote-1", "policy-9"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteStore_ConvertToPolicy_AlreadyConverted(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewQuoteStore(db, newTestLogger(t))

	mock.ExpectExec(`UPDATE quotes`).
		WithArgs("quote-1", "accepted", "policy-9", "converted").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.ConvertToPolicy(context.Background(), "quote-1", "policy-9")
	assert.Error(t, err)
}

func TestQuoteStore_ListExpiring(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewQuoteStore(db, newTestLogger(t))

	rows := sqlmock.NewRows(quoteRowColumns)
	addQuoteRow(rows, "quote-1", 2_500_000, "Leadway Assurance", models.StageClientSelection)

	mock.ExpectQuery(`FROM quotes`).
		WithArgs("sent", 30).
		WillReturnRows(rows)

	quotes, err := s.ListExpiring(context.Background(), 30)
	assert.NoError(t, err)
	assert.Len(t, quotes, 1)
}

// internal/quote/store/payments_test.go
package store

import (
	"context"
	"testing"
	"time"

	"quoteflow-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func createTestPayment() *models.PaymentTransaction {
	return &models.PaymentTransaction{
		ID:             "pay-1",
		QuoteID:        "quote-1",
		ClientID:       "client-1",
		OrganizationID: "org-1",
		Amount:         2_500_000,
		Currency:       "NGN",
		PaymentMethod:  "bank_transfer",
		Status:         models.PaymentPending,
		Metadata:       map[string]interface{}{"channel": "portal"},
	}
}

func TestPaymentStore_Upsert(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewPaymentStore(db, newTestLogger(t))

	mock.ExpectExec(`INSERT INTO payment_transactions`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, s.Upsert(context.Background(), createTestPayment()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentStore_UpdateStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewPaymentStore(db, newTestLogger(t))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE payment_transactions`).
		WithArgs("quote-1", models.PaymentCompleted).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE quotes`).
		WithArgs("quote-1", models.PaymentCompleted).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, s.UpdateStatus(context.Background(), "quote-1", models.PaymentCompleted))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentStore_UpdateStatus_NoTransaction(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewPaymentStore(db, newTestLogger(t))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE payment_transactions`).
		WithArgs("quote-9", models.PaymentCompleted).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.UpdateStatus(context.Background(), "quote-9", models.PaymentCompleted)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentStore_GetByQuote(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewPaymentStore(db, newTestLogger(t))

	rows := sqlmock.NewRows([]string{
		"id", "quote_id", "client_id", "organization_id", "amount", "currency",
		"payment_method", "status", "metadata", "created_at", "updated_at",
	}).AddRow(
		"pay-1", "quote-1", "client-1", "org-1", 2_500_000.0, "NGN",
		"bank_transfer", "pending", []byte(`{"channel":"portal"}`),
		time.Now(), time.Now(),
	)

	mock.ExpectQuery(`FROM payment_transactions`).
		WithArgs("quote-1").
		WillReturnRows(rows)

	p, err := s.GetByQuote(context.Background(), "quote-1")
	assert.NoError(t, err)
	assert.NotNil(t, p)
	assert.Equal(t, "portal", p.Metadata["channel"])
}

func TestPaymentStore_GetByQuote_Missing(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	s := NewPaymentStore(db, newTestLogger(t))

	mock.ExpectQuery(`FROM payment_transactions`).
		WithArgs("quote-9").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "quote_id", "client_id", "organization_id", "amount", "currency",
			"payment_method", "status", "metadata", "created_at", "updated_at",
		}))

	p, err := s.GetByQuote(context.Background(), "quote-9")
	assert.NoError(t, err)
	assert.Nil(t, p)
}

// internal/quote/store/payments.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"quoteflow-workers/internal/common/errors"
	"quoteflow-workers/internal/common/logger"
	"quoteflow-workers/internal/models"
)

// PaymentStore persists premium payment transactions. One row per quote;
// re-initiating payment updates the existing row.
type PaymentStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPaymentStore(db *sql.DB, log logger.Logger) *PaymentStore {
	return &PaymentStore{
		db:     db,
		logger: log,
	}
}

// Upsert inserts or refreshes the payment transaction keyed by quote_id.
func (s *PaymentStore) Upsert(ctx context.Context, p *models.PaymentTransaction) error {
	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return errors.NewQueryExecutionFailedError("encode payment metadata", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO payment_transactions (
			id, quote_id, client_id, organization_id, amount, currency,
			payment_method, status, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (quote_id) DO UPDATE SET
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			payment_method = EXCLUDED.payment_method,
			status = EXCLUDED.status,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()`,
		p.ID, p.QuoteID, p.ClientID, p.OrganizationID, p.Amount, p.Currency,
		p.PaymentMethod, p.Status, metadata)
	if err != nil {
		return queryError("upsert payment transaction", err)
	}
	return nil
}

// UpdateStatus moves the payment row to a new status and mirrors it onto
// the quote's payment_status field.
func (s *PaymentStore) UpdateStatus(ctx context.Context, quoteID, status string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return queryError("begin payment status update", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE payment_transactions
		SET status = $2, updated_at = NOW()
		WHERE quote_id = $1`, quoteID, status)
	if err != nil {
		return queryError("update payment status", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return errors.NewResourceNotFoundError("payments", "no payment transaction for quote "+quoteID)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE quotes
		SET payment_status = $2, updated_at = NOW()
		WHERE id = $1`, quoteID, status); err != nil {
		return queryError("mirror payment status onto quote", err)
	}

	if err := tx.Commit(); err != nil {
		return queryError("commit payment status update", err)
	}
	return nil
}

// GetByQuote fetches the payment transaction for a quote, nil if absent.
func (s *PaymentStore) GetByQuote(ctx context.Context, quoteID string) (*models.PaymentTransaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, quote_id, client_id, organization_id, amount, currency,
		       payment_method, status, metadata, created_at, updated_at
		FROM payment_transactions
		WHERE quote_id = $1`, quoteID)

	var p models.PaymentTransaction
	var metadata []byte
	err := row.Scan(
		&p.ID, &p.QuoteID, &p.ClientID, &p.OrganizationID, &p.Amount,
		&p.Currency, &p.PaymentMethod, &p.Status, &metadata,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("get payment transaction", err)
	}

	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &p.Metadata)
	}
	return &p, nil
}

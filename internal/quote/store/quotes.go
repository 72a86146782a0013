// internal/quote/store/quotes.go
package store

import (
	"context"
	"database/sql"

	"quoteflow-workers/internal/common/errors"
	"quoteflow-workers/internal/common/logger"
	"quoteflow-workers/internal/models"
)

const quoteColumns = `
	id, quote_number, client_id, client_name, organization_id,
	premium, sum_insured, underwriter, commission_rate,
	workflow_stage, status, payment_status,
	converted_to_policy, final_contract_url, terms_conditions,
	valid_until, created_at, updated_at`

// QuoteStore is the data access layer for canonical quote records.
type QuoteStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewQuoteStore(db *sql.DB, log logger.Logger) *QuoteStore {
	return &QuoteStore{
		db:     db,
		logger: log,
	}
}

// Get fetches one quote by id.
func (s *QuoteStore) Get(ctx context.Context, quoteID string) (*models.Quote, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT`+quoteColumns+`
		FROM quotes
		WHERE id = $1`, quoteID)

	q, err := scanQuote(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewQuoteNotFoundError(quoteID)
	}
	if err != nil {
		return nil, queryError("get quote", err)
	}
	return q, nil
}

// UpdateStage writes workflow stage and status and refreshes updated_at.
// It is the only mutator of workflow_stage.
func (s *QuoteStore) UpdateStage(ctx context.Context, quoteID string, stage models.WorkflowStage, status models.QuoteStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE quotes
		SET workflow_stage = $2, status = $3, updated_at = NOW()
		WHERE id = $1`, quoteID, string(stage), string(status))
	if err != nil {
		return queryError("update quote stage", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return errors.NewQuoteNotFoundError(quoteID)
	}
	return nil
}

// ListNeedingBackfill returns completed quotes still carrying placeholder
// financial data.
func (s *QuoteStore) ListNeedingBackfill(ctx context.Context, organizationID string) ([]*models.Quote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+quoteColumns+`
		FROM quotes
		WHERE organization_id = $1
		  AND workflow_stage = $2
		  AND (premium = 0 OR underwriter = $3)`,
		organizationID, string(models.StageCompleted), models.PendingUnderwriter)
	if err != nil {
		return nil, queryError("list quotes needing backfill", err)
	}
	defer rows.Close()

	return collectQuotes(rows)
}

// ApplyBackfill copies the winning evaluated quote's financials onto the
// canonical record.
func (s *QuoteStore) ApplyBackfill(ctx context.Context, quoteID string, premium float64, underwriter string, commissionRate float64, terms string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE quotes
		SET premium = $2, underwriter = $3, commission_rate = $4,
		    terms_conditions = $5, updated_at = NOW()
		WHERE id = $1`, quoteID, premium, underwriter, commissionRate, terms)
	if err != nil {
		return queryError("apply quote backfill", err)
	}
	return nil
}

// ListConversionEligible returns quotes passing the conversion predicate.
// Callers re-validate each row; the SQL predicate is the first filter only.
func (s *QuoteStore) ListConversionEligible(ctx context.Context, organizationID string) ([]*models.Quote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+quoteColumns+`
		FROM quotes
		WHERE organization_id = $1
		  AND workflow_stage = $2
		  AND premium > 0
		  AND sum_insured > 0
		  AND underwriter IS NOT NULL
		  AND underwriter NOT IN ('', $3)
		  AND client_name <> ''
		  AND final_contract_url IS NOT NULL
		  AND converted_to_policy IS NULL`,
		organizationID, string(models.StageCompleted), models.PendingUnderwriter)
	if err != nil {
		return nil, queryError("list conversion eligible quotes", err)
	}
	defer rows.Close()

	return collectQuotes(rows)
}

// ConvertToPolicy marks the quote converted and links the policy record.
func (s *QuoteStore) ConvertToPolicy(ctx context.Context, quoteID, policyID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE quotes
		SET status = $2, converted_to_policy = $3, workflow_stage = $4, updated_at = NOW()
		WHERE id = $1 AND converted_to_policy IS NULL`,
		quoteID, string(models.StatusAccepted), policyID, string(models.StageConverted))
	if err != nil {
		return queryError("convert quote to policy", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return errors.NewQuoteNotFoundError(quoteID)
	}
	return nil
}

// ListExpiring returns sent quotes whose validity ends inside the window.
func (s *QuoteStore) ListExpiring(ctx context.Context, daysAhead int) ([]*models.Quote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+quoteColumns+`
		FROM quotes
		WHERE status = $1
		  AND valid_until IS NOT NULL
		  AND valid_until BETWEEN NOW() AND NOW() + ($2 || ' days')::interval`,
		string(models.StatusSent), daysAhead)
	if err != nil {
		return nil, queryError("list expiring quotes", err)
	}
	defer rows.Close()

	return collectQuotes(rows)
}

// ListByStage returns an organization's quotes in a given stage.
func (s *QuoteStore) ListByStage(ctx context.Context, organizationID string, stage models.WorkflowStage) ([]*models.Quote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+quoteColumns+`
		FROM quotes
		WHERE organization_id = $1 AND workflow_stage = $2
		ORDER BY updated_at DESC`, organizationID, string(stage))
	if err != nil {
		return nil, queryError("list quotes by stage", err)
	}
	defer rows.Close()

	return collectQuotes(rows)
}

// ListByOrganization returns all of an organization's quotes.
func (s *QuoteStore) ListByOrganization(ctx context.Context, organizationID string) ([]*models.Quote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+quoteColumns+`
		FROM quotes
		WHERE organization_id = $1
		ORDER BY updated_at DESC`, organizationID)
	if err != nil {
		return nil, queryError("list quotes by organization", err)
	}
	defer rows.Close()

	return collectQuotes(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuote(row rowScanner) (*models.Quote, error) {
	var q models.Quote
	var validUntil sql.NullTime
	var convertedToPolicy, finalContractURL sql.NullString

	err := row.Scan(
		&q.ID, &q.QuoteNumber, &q.ClientID, &q.ClientName, &q.OrganizationID,
		&q.Premium, &q.SumInsured, &q.Underwriter, &q.CommissionRate,
		&q.WorkflowStage, &q.Status, &q.PaymentStatus,
		&convertedToPolicy, &finalContractURL, &q.TermsConditions,
		&validUntil, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if convertedToPolicy.Valid {
		q.ConvertedToPolicy = &convertedToPolicy.String
	}
	if finalContractURL.Valid {
		q.FinalContractURL = &finalContractURL.String
	}
	if validUntil.Valid {
		t := validUntil.Time
		q.ValidUntil = &t
	}
	return &q, nil
}

func collectQuotes(rows *sql.Rows) ([]*models.Quote, error) {
	quotes := []*models.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, queryError("scan quote row", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("iterate quote rows", err)
	}
	return quotes, nil
}

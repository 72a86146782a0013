// internal/quote/store/evaluated.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"quoteflow-workers/internal/common/errors"
	"quoteflow-workers/internal/common/logger"
	"quoteflow-workers/internal/models"
)

// EvaluatedStore persists the evaluated quote sets. The set for a quote is
// replaced wholesale on every forward, inside one transaction.
type EvaluatedStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewEvaluatedStore(db *sql.DB, log logger.Logger) *EvaluatedStore {
	return &EvaluatedStore{
		db:     db,
		logger: log,
	}
}

// ReplaceSet deletes any prior evaluation set for the quote and inserts the
// new one atomically.
func (s *EvaluatedStore) ReplaceSet(ctx context.Context, quoteID string, set []*models.EvaluatedQuote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewEvaluationPersistFailedError(quoteID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM evaluated_quotes WHERE quote_id = $1`, quoteID); err != nil {
		return errors.NewEvaluationPersistFailedError(quoteID, err)
	}

	for _, eq := range set {
		exclusions, err := json.Marshal(eq.Exclusions)
		if err != nil {
			return errors.NewEvaluationPersistFailedError(quoteID, err)
		}
		coverage, err := json.Marshal(eq.CoverageLimits)
		if err != nil {
			return errors.NewEvaluationPersistFailedError(quoteID, err)
		}
		var analysis []byte
		if eq.AIAnalysis != nil {
			if analysis, err = json.Marshal(eq.AIAnalysis); err != nil {
				return errors.NewEvaluationPersistFailedError(quoteID, err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO evaluated_quotes (
				quote_id, insurer_key, insurer_id, insurer_name, insurer_email,
				commission_split, premium_quoted, terms_conditions,
				exclusions, coverage_limits, rating_score, remarks,
				document_url, response_received, ai_analysis,
				evaluation_source, evaluated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			eq.QuoteID, eq.InsurerKey, nullable(eq.InsurerID), eq.InsurerName,
			nullable(eq.InsurerEmail), eq.CommissionSplit, eq.PremiumQuoted,
			eq.TermsConditions, exclusions, coverage, eq.RatingScore,
			nullable(eq.Remarks), nullable(eq.DocumentURL), eq.ResponseReceived,
			nullableBytes(analysis), string(eq.EvaluationSource), eq.EvaluatedAt)
		if err != nil {
			return errors.NewEvaluationPersistFailedError(quoteID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewEvaluationPersistFailedError(quoteID, err)
	}

	s.logger.Info("evaluation set replaced", map[string]interface{}{
		"quoteId": quoteID,
		"count":   len(set),
	})
	return nil
}

// BestForQuote returns the received row with the highest rating for a
// quote, lowest premium winning ties. Missing rows return (nil, nil).
func (s *EvaluatedStore) BestForQuote(ctx context.Context, quoteID string) (*models.EvaluatedQuote, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT quote_id, insurer_key, insurer_name, commission_split,
		       premium_quoted, terms_conditions, rating_score,
		       response_received, evaluation_source, evaluated_at
		FROM evaluated_quotes
		WHERE quote_id = $1 AND response_received = TRUE
		ORDER BY rating_score DESC, premium_quoted ASC
		LIMIT 1`, quoteID)

	var eq models.EvaluatedQuote
	err := row.Scan(
		&eq.QuoteID, &eq.InsurerKey, &eq.InsurerName, &eq.CommissionSplit,
		&eq.PremiumQuoted, &eq.TermsConditions, &eq.RatingScore,
		&eq.ResponseReceived, &eq.EvaluationSource, &eq.EvaluatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("best evaluated quote", err)
	}
	return &eq, nil
}

// ListForQuote returns the full evaluation set for a quote.
func (s *EvaluatedStore) ListForQuote(ctx context.Context, quoteID string) ([]*models.EvaluatedQuote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT quote_id, insurer_key, insurer_id, insurer_name, insurer_email,
		       commission_split, premium_quoted, terms_conditions,
		       exclusions, coverage_limits, rating_score, remarks,
		       document_url, response_received, ai_analysis,
		       evaluation_source, evaluated_at
		FROM evaluated_quotes
		WHERE quote_id = $1
		ORDER BY rating_score DESC`, quoteID)
	if err != nil {
		return nil, queryError("list evaluated quotes", err)
	}
	defer rows.Close()

	set := []*models.EvaluatedQuote{}
	for rows.Next() {
		var eq models.EvaluatedQuote
		var insurerID, insurerEmail, remarks, documentURL sql.NullString
		var exclusions, coverage, analysis []byte

		err := rows.Scan(
			&eq.QuoteID, &eq.InsurerKey, &insurerID, &eq.InsurerName, &insurerEmail,
			&eq.CommissionSplit, &eq.PremiumQuoted, &eq.TermsConditions,
			&exclusions, &coverage, &eq.RatingScore, &remarks,
			&documentURL, &eq.ResponseReceived, &analysis,
			&eq.EvaluationSource, &eq.EvaluatedAt,
		)
		if err != nil {
			return nil, queryError("scan evaluated quote", err)
		}

		eq.InsurerID = insurerID.String
		eq.InsurerEmail = insurerEmail.String
		eq.Remarks = remarks.String
		eq.DocumentURL = documentURL.String

		if err := json.Unmarshal(exclusions, &eq.Exclusions); err != nil {
			eq.Exclusions = []string{}
		}
		if err := json.Unmarshal(coverage, &eq.CoverageLimits); err != nil {
			eq.CoverageLimits = map[string]string{}
		}
		if len(analysis) > 0 {
			var a models.AIAnalysis
			if err := json.Unmarshal(analysis, &a); err == nil {
				eq.AIAnalysis = &a
			}
		}

		set = append(set, &eq)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("iterate evaluated quotes", err)
	}
	return set, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

// internal/quote/store/store.go

// Package store holds the PostgreSQL data access layers for quotes,
// evaluated sets and payment transactions.
package store

import (
	"context"
	stderrors "errors"

	"quoteflow-workers/internal/common/errors"
)

// queryError maps a driver failure onto the standard error vocabulary.
// A context deadline surfaces as a timeout, which carries a shorter retry
// budget than a generic execution failure.
func queryError(operation string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewQueryTimeoutError(operation)
	}
	return errors.NewQueryExecutionFailedError(operation, err)
}

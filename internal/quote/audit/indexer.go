// internal/quote/audit/indexer.go
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quoteflow-workers/internal/common/errors"
	"quoteflow-workers/internal/common/logger"
	"quoteflow-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// Snapshot is the audit document indexed after each evaluation forward.
type Snapshot struct {
	QuoteID          string                   `json:"quoteId"`
	EvaluationSource models.EvaluationSource  `json:"evaluationSource"`
	Quotes           []*models.EvaluatedQuote `json:"quotes"`
	Count            int                      `json:"count"`
	ForwardedAt      time.Time                `json:"forwardedAt"`
}

// Indexer writes evaluation snapshots to Elasticsearch. All calls are
// best-effort; the forward path logs failures and moves on.
type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	return &Indexer{
		client: client,
		index:  index,
		logger: log,
	}
}

// IndexSnapshot stores one forward's evaluation set. The document id
// includes the forward timestamp so repeated forwards keep their history.
func (i *Indexer) IndexSnapshot(ctx context.Context, s Snapshot) error {
	if i.client == nil {
		return nil // audit indexing disabled
	}

	s.Count = len(s.Quotes)
	body, err := json.Marshal(s)
	if err != nil {
		return errors.ToStandardError(fmt.Errorf("encode audit snapshot: %w", err))
	}

	docID := fmt.Sprintf("%s-%d", s.QuoteID, s.ForwardedAt.UnixMilli())
	res, err := i.client.Index(
		i.index,
		bytes.NewReader(body),
		i.client.Index.WithDocumentID(docID),
		i.client.Index.WithContext(ctx),
	)
	if err != nil {
		return auditError(s.QuoteID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return auditError(s.QuoteID, fmt.Errorf("elasticsearch responded %s", res.Status()))
	}

	i.logger.Debug("evaluation snapshot indexed", map[string]interface{}{
		"quoteId": s.QuoteID,
		"docId":   docID,
		"count":   s.Count,
	})
	return nil
}

func auditError(quoteID string, err error) error {
	return &errors.StandardError{
		Code:      errors.ErrCodeAuditIndexFailed,
		Message:   "Failed to index evaluation snapshot",
		Details:   fmt.Sprintf("quoteId: %s, error: %s", quoteID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

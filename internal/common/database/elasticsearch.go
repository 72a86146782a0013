// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quoteflow-workers/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// Mapping for the evaluation snapshot index. Snapshots are append-only
// documents written when an evaluation is forwarded.
const snapshotMapping = `{
  "mappings": {
    "properties": {
      "quoteId":          { "type": "keyword" },
      "evaluationSource": { "type": "keyword" },
      "count":            { "type": "integer" },
      "forwardedAt":      { "type": "date" },
      "quotes":           { "type": "object", "enabled": false }
    }
  }
}`

// ElasticsearchClient wraps the Elasticsearch client together with the
// snapshot index it writes to.
type ElasticsearchClient struct {
	Client *elasticsearch.Client
	Index  string
}

// NewElasticsearch creates a new Elasticsearch client
func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}

	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &ElasticsearchClient{Client: es, Index: cfg.Index}, nil
}

// Ping tests the Elasticsearch connection
func (c *ElasticsearchClient) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := c.Client.Ping(
		c.Client.Ping.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}

	return nil
}

// EnsureIndex creates the snapshot index with its mapping if it does not
// exist yet. Safe to call on every startup.
func (c *ElasticsearchClient) EnsureIndex(ctx context.Context) error {
	exists, err := c.Client.Indices.Exists(
		[]string{c.Index},
		c.Client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index check failed: %w", err)
	}
	defer exists.Body.Close()

	if exists.StatusCode == 200 {
		return nil
	}

	res, err := c.Client.Indices.Create(
		c.Index,
		c.Client.Indices.Create.WithContext(ctx),
		c.Client.Indices.Create.WithBody(strings.NewReader(snapshotMapping)),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index create failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch index create error: %s", res.Status())
	}

	return nil
}

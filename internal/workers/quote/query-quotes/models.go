// internal/workers/quote/query-quotes/models.go
package queryquotes

import "quoteflow-workers/internal/models"

const (
	QueryByOrganization = "by-organization"
	QueryByStage        = "by-stage"
)

type Input struct {
	OrganizationID string `json:"organizationId"`
	QueryType      string `json:"queryType"`
	// Stage narrows a by-stage query to one workflow stage.
	Stage string `json:"stage,omitempty"`
}

type Output struct {
	OrganizationID     string          `json:"organizationId"`
	QueryType          string          `json:"queryType"`
	Quotes             []*models.Quote `json:"quotes"`
	RowCount           int             `json:"rowCount"`
	QueryExecutionTime int64           `json:"queryExecutionTime"` // milliseconds
}

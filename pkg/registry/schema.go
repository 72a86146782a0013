// pkg/registry/schema.go
package registry

// TaskRegistry is the catalog of worker task types this deployment serves,
// loaded from configs/task-registry.json.
type TaskRegistry struct {
	Version     string           `json:"version"`
	LastUpdated string           `json:"lastUpdated"`
	Tasks       []TaskDefinition `json:"tasks"`
}

// TaskDefinition describes one Zeebe task type: its schemas, error codes
// and execution defaults.
type TaskDefinition struct {
	ID           string                 `json:"id"`
	DisplayName  string                 `json:"displayName"`
	Description  string                 `json:"description"`
	Category     string                 `json:"category"`
	Version      string                 `json:"version"`
	TaskType     string                 `json:"taskType"`
	InputSchema  map[string]interface{} `json:"inputSchema"`
	OutputSchema map[string]interface{} `json:"outputSchema"`
	ErrorCodes   []string               `json:"errorCodes"`
	Timeout      string                 `json:"timeout"`
	Retries      int                    `json:"retries"`
	Workflows    []string               `json:"workflows"`
	Tags         []string               `json:"tags"`
}

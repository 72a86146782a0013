// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

// Load reads and parses the task registry file.
func Load(path string) (*TaskRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task registry: %w", err)
	}
	var reg TaskRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse task registry: %w", err)
	}
	return &reg, nil
}

// Find returns the definition for a task type, or nil when unregistered.
func (r *TaskRegistry) Find(taskType string) *TaskDefinition {
	for i := range r.Tasks {
		if r.Tasks[i].TaskType == taskType {
			return &r.Tasks[i]
		}
	}
	return nil
}

// ValidateInput checks job variables against the task's input schema.
// Tasks without a schema accept anything.
func (r *TaskRegistry) ValidateInput(taskType string, variables map[string]interface{}) error {
	def := r.Find(taskType)
	if def == nil {
		return fmt.Errorf("task type %q is not registered", taskType)
	}
	return validate(def.InputSchema, variables)
}

func validate(schemaMap, data map[string]interface{}) error {
	if len(schemaMap) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("input validation failed: %v", errs)
	}

	return nil
}

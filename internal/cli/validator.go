package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/flowmesh/flowmesh/internal/models"
	"github.com/flowmesh/flowmesh/internal/validators"
)

type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidateWorkflowFile validates a workflow definition from a file
func ValidateWorkflowFile(filename string) (*ValidationResult, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var workflow models.Workflow
	if err := json.Unmarshal(data, &workflow); err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []string{fmt.Sprintf("Invalid JSON: %v", err)},
		}, nil
	}

	return ValidateWorkflow(&workflow), nil
}

// ValidateWorkflow validates a workflow definition
func ValidateWorkflow(workflow *models.Workflow) *ValidationResult {
	if err := validators.NewWorkflowValidator().Validate(workflow); err != nil {
		return &ValidationResult{Valid: false, Errors: []string{err.Error()}}
	}
	return &ValidationResult{Valid: true}
}

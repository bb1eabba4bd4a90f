package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus represents the status of a workflow execution
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusSuccess   ExecutionStatus = "success"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

// IsTerminal reports whether no further status transition is allowed.
func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case ExecutionStatusSuccess, ExecutionStatusFailed, ExecutionStatusCancelled:
		return true
	}
	return false
}

// Execution represents one run of a workflow. It transitions exactly once
// from running to a terminal state and is immutable thereafter.
type Execution struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	WorkflowID   string          `json:"workflow_id" db:"workflow_id"`
	UserID       string          `json:"user_id" db:"user_id"`
	Status       ExecutionStatus `json:"status" db:"status"`
	TriggerInput JSONB           `json:"trigger_input" db:"trigger_input"`
	Context      JSONB           `json:"context" db:"context"`
	StartedAt    time.Time       `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	DurationMs   *int            `json:"duration_ms,omitempty" db:"duration_ms"`
	ErrorMessage *string         `json:"error_message,omitempty" db:"error_message"`
}

// IntegrationResult is the outcome of one (integration, action) call.
// Never mutated after creation; failures are data, not errors.
type IntegrationResult struct {
	Status        string                 `json:"status"` // success, error
	Integration   string                 `json:"integration"`
	Action        string                 `json:"action"`
	Result        map[string]interface{} `json:"result,omitempty"`
	Error         string                 `json:"error,omitempty"`
	MockExecution bool                   `json:"mock_execution,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
}

// Succeeded reports whether the call completed without error.
func (r *IntegrationResult) Succeeded() bool {
	return r.Status == "success"
}

// AsMap renders the result for merging into an execution context.
func (r *IntegrationResult) AsMap() map[string]interface{} {
	out := map[string]interface{}{
		"status":      r.Status,
		"integration": r.Integration,
		"action":      r.Action,
		"timestamp":   r.Timestamp.Unix(),
	}
	if r.Result != nil {
		out["result"] = r.Result
	}
	if r.Error != "" {
		out["error"] = r.Error
	}
	if r.MockExecution {
		out["mock_execution"] = true
	}
	return out
}

// JSONB is a custom type for handling JSONB columns
type JSONB map[string]interface{}

// Scan implements the sql.Scanner interface for JSONB
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		*j = make(map[string]interface{})
		return nil
	}

	result := make(map[string]interface{})
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}

	*j = result
	return nil
}

// Value implements the driver.Valuer interface for JSONB
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return json.Marshal(map[string]interface{}{})
	}
	return json.Marshal(j)
}

// ExecutionListResponse represents a paginated list of executions
type ExecutionListResponse struct {
	Executions []Execution `json:"executions"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
}

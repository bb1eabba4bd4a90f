package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/flowmesh/flowmesh/internal/models"
	"github.com/flowmesh/flowmesh/pkg/database"
)

// WorkflowRepository reads workflow definition snapshots from PostgreSQL.
// Definition authoring happens in an external service; the engine only
// needs lookups and run counters.
type WorkflowRepository struct {
	db *database.PostgresDB
}

// NewWorkflowRepository creates a new workflow repository
func NewWorkflowRepository(db *database.PostgresDB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// GetWorkflowByID retrieves a workflow definition by ID
func (r *WorkflowRepository) GetWorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `
		SELECT id, user_id, name, description, nodes, connections,
		       status, run_count, created_at, updated_at
		FROM workflows
		WHERE id = $1`

	var workflow models.Workflow
	var nodes, connections []byte

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&workflow.ID,
		&workflow.UserID,
		&workflow.Name,
		&workflow.Description,
		&nodes,
		&connections,
		&workflow.Status,
		&workflow.RunCount,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("workflow not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	if err := json.Unmarshal(nodes, &workflow.Nodes); err != nil {
		return nil, fmt.Errorf("failed to decode workflow nodes: %w", err)
	}
	if err := json.Unmarshal(connections, &workflow.Connections); err != nil {
		return nil, fmt.Errorf("failed to decode workflow connections: %w", err)
	}

	return &workflow, nil
}

// IncrementRunCount bumps the workflow's execution counter
func (r *WorkflowRepository) IncrementRunCount(ctx context.Context, id string) error {
	query := `UPDATE workflows SET run_count = run_count + 1, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment run count: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("workflow not found: %s", id)
	}

	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/flowmesh/flowmesh/internal/models"
	"github.com/flowmesh/flowmesh/pkg/database"
	"github.com/google/uuid"
)

// ExecutionRepository persists execution records in PostgreSQL.
type ExecutionRepository struct {
	db *database.PostgresDB
}

// NewExecutionRepository creates a new execution repository
func NewExecutionRepository(db *database.PostgresDB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

// CreateExecution inserts a new workflow execution
func (r *ExecutionRepository) CreateExecution(ctx context.Context, execution *models.Execution) error {
	query := `
		INSERT INTO executions (
			id, workflow_id, user_id, status, trigger_input, context,
			started_at, completed_at, duration_ms, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		execution.ID,
		execution.WorkflowID,
		execution.UserID,
		execution.Status,
		execution.TriggerInput,
		execution.Context,
		execution.StartedAt,
		execution.CompletedAt,
		execution.DurationMs,
		execution.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to create execution: %w", err)
	}

	return nil
}

// UpdateExecution updates an existing execution record
func (r *ExecutionRepository) UpdateExecution(ctx context.Context, execution *models.Execution) error {
	query := `
		UPDATE executions
		SET status = $2, context = $3, completed_at = $4, duration_ms = $5,
			error_message = $6
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		execution.ID,
		execution.Status,
		execution.Context,
		execution.CompletedAt,
		execution.DurationMs,
		execution.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to update execution: %w", err)
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("execution not found: %s", execution.ID)
	}

	return nil
}

// GetExecutionByID retrieves an execution by id
func (r *ExecutionRepository) GetExecutionByID(ctx context.Context, id uuid.UUID) (*models.Execution, error) {
	query := `
		SELECT id, workflow_id, user_id, status, trigger_input, context,
			started_at, completed_at, duration_ms, error_message
		FROM executions
		WHERE id = $1`

	execution := &models.Execution{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&execution.ID,
		&execution.WorkflowID,
		&execution.UserID,
		&execution.Status,
		&execution.TriggerInput,
		&execution.Context,
		&execution.StartedAt,
		&execution.CompletedAt,
		&execution.DurationMs,
		&execution.ErrorMessage,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("execution not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}

	return execution, nil
}

// ListExecutions retrieves executions filtered by workflow and status,
// newest first.
func (r *ExecutionRepository) ListExecutions(
	ctx context.Context,
	workflowID *string,
	status *models.ExecutionStatus,
	limit, offset int,
) ([]models.Execution, int64, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argPos := 1

	if workflowID != nil {
		where += fmt.Sprintf(" AND workflow_id = $%d", argPos)
		args = append(args, *workflowID)
		argPos++
	}

	if status != nil {
		where += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, *status)
		argPos++
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM executions " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count executions: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, workflow_id, user_id, status, trigger_input, context,
			started_at, completed_at, duration_ms, error_message
		FROM executions %s
		ORDER BY started_at DESC
		LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var executions []models.Execution
	for rows.Next() {
		var execution models.Execution
		if err := rows.Scan(
			&execution.ID,
			&execution.WorkflowID,
			&execution.UserID,
			&execution.Status,
			&execution.TriggerInput,
			&execution.Context,
			&execution.StartedAt,
			&execution.CompletedAt,
			&execution.DurationMs,
			&execution.ErrorMessage,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan execution: %w", err)
		}
		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	return executions, total, nil
}

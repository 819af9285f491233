package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/persistence"
)

// ExecutionRepository handles execution-related database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

// Save upserts the execution record. Transitioning into paused clears the
// pause request flag so a later resume does not immediately pause again.
func (r *ExecutionRepository) Save(ctx context.Context, execution *models.WorkflowExecution) error {
	triggerJSON, err := json.Marshal(execution.TriggerData)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger data: %w", err)
	}

	resultJSON, err := json.Marshal(execution.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	var authJSON []byte
	if execution.Authorization != nil {
		authJSON, err = json.Marshal(execution.Authorization)
		if err != nil {
			return fmt.Errorf("failed to marshal authorization: %w", err)
		}
	}

	query := `
		INSERT INTO workflow_executions (id, workflow_id, user_id, status, trigger_data, result, error, authorization_data, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			result = EXCLUDED.result,
			error = EXCLUDED.error,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at,
			pause_requested = CASE WHEN EXCLUDED.status = 'paused' THEN false ELSE workflow_executions.pause_requested END
	`

	var startedAt *time.Time
	if !execution.StartedAt.IsZero() {
		startedAt = &execution.StartedAt
	}

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.WorkflowID,
		execution.UserID,
		execution.Status,
		triggerJSON,
		resultJSON,
		execution.Error,
		authJSON,
		startedAt,
		execution.CompletedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	return nil
}

// GetByID returns an execution by its ID.
func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	query := `
		SELECT
			id
		  , workflow_id
		  , user_id
		  , status
		  , trigger_data
		  , result
		  , error
		  , authorization_data
		  , started_at
		  , completed_at
		FROM workflow_executions
		WHERE id = $1
	`

	var (
		execution   models.WorkflowExecution
		userID      sql.NullString
		triggerJSON []byte
		resultJSON  []byte
		authJSON    []byte
		startedAt   sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&execution.ID,
		&execution.WorkflowID,
		&userID,
		&execution.Status,
		&triggerJSON,
		&resultJSON,
		&execution.Error,
		&authJSON,
		&startedAt,
		&execution.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	execution.UserID = userID.String
	execution.StartedAt = startedAt.Time

	if len(triggerJSON) > 0 {
		if err := json.Unmarshal(triggerJSON, &execution.TriggerData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger data: %w", err)
		}
	}

	if len(resultJSON) > 0 {
		if err := json.Unmarshal(resultJSON, &execution.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
	}

	if len(authJSON) > 0 {
		if err := json.Unmarshal(authJSON, &execution.Authorization); err != nil {
			return nil, fmt.Errorf("failed to unmarshal authorization: %w", err)
		}
	}

	return &execution, nil
}

// UpdateStatus updates the status and error of an execution.
func (r *ExecutionRepository) UpdateStatus(ctx context.Context, id string, status models.ExecutionStatus, execErr string) error {
	query := `
		UPDATE workflow_executions
		SET status = $2,
			error = $3,
			completed_at = CASE WHEN $2 IN ('completed', 'failed') AND completed_at IS NULL THEN NOW() ELSE completed_at END,
			pause_requested = CASE WHEN $2 = 'paused' THEN false ELSE pause_requested END
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, execErr)
	if err != nil {
		return persistence.NewExecutionError("UpdateStatus", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewExecutionError("UpdateStatus", id, err)
	}

	if affected == 0 {
		return persistence.NewExecutionError("UpdateStatus", id, persistence.ErrExecutionNotFound)
	}

	return nil
}

// Status returns just the status column of an execution.
func (r *ExecutionRepository) Status(ctx context.Context, id string) (models.ExecutionStatus, error) {
	var status models.ExecutionStatus

	err := r.db.QueryRowContext(ctx, "SELECT status FROM workflow_executions WHERE id = $1", id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", persistence.NewExecutionError("Status", id, persistence.ErrExecutionNotFound)
		}

		return "", persistence.NewExecutionError("Status", id, err)
	}

	return status, nil
}

// RequestPause flags the execution for a cooperative pause at the next node
// boundary.
func (r *ExecutionRepository) RequestPause(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE workflow_executions SET pause_requested = true WHERE id = $1", id)
	if err != nil {
		return persistence.NewExecutionError("RequestPause", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewExecutionError("RequestPause", id, err)
	}

	if affected == 0 {
		return persistence.NewExecutionError("RequestPause", id, persistence.ErrExecutionNotFound)
	}

	return nil
}

// PauseRequested reports whether a pause has been requested.
func (r *ExecutionRepository) PauseRequested(ctx context.Context, id string) (bool, error) {
	var requested bool

	err := r.db.QueryRowContext(ctx,
		"SELECT pause_requested FROM workflow_executions WHERE id = $1", id).Scan(&requested)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, persistence.NewExecutionError("PauseRequested", id, persistence.ErrExecutionNotFound)
		}

		return false, persistence.NewExecutionError("PauseRequested", id, err)
	}

	return requested, nil
}

// UpsertNodeExecution writes the single record for an (execution, node) pair.
func (r *ExecutionRepository) UpsertNodeExecution(ctx context.Context, record *models.NodeExecution) error {
	outputJSON, err := json.Marshal(record.Output)
	if err != nil {
		return fmt.Errorf("failed to marshal node output: %w", err)
	}

	query := `
		INSERT INTO node_executions (execution_id, node_id, status, output, error, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (execution_id, node_id) DO UPDATE SET
			status = EXCLUDED.status,
			output = EXCLUDED.output,
			error = EXCLUDED.error,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at
	`

	var startedAt *time.Time
	if !record.StartedAt.IsZero() {
		startedAt = &record.StartedAt
	}

	_, err = r.db.ExecContext(ctx, query,
		record.ExecutionID,
		record.NodeID,
		record.Status,
		outputJSON,
		record.Error,
		startedAt,
		record.CompletedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("UpsertNodeExecution", record.ExecutionID, err)
	}

	return nil
}

// NodeExecution returns the record for one (execution, node) pair.
func (r *ExecutionRepository) NodeExecution(ctx context.Context, executionID, nodeID string) (*models.NodeExecution, error) {
	query := `
		SELECT execution_id, node_id, status, output, error, started_at, completed_at
		FROM node_executions
		WHERE execution_id = $1 AND node_id = $2
	`

	record, err := r.scanNodeExecution(r.db.QueryRowContext(ctx, query, executionID, nodeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("NodeExecution", executionID, persistence.ErrNodeExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("NodeExecution", executionID, err)
	}

	return record, nil
}

// NodeExecutions returns all node records of an execution ordered by start time.
func (r *ExecutionRepository) NodeExecutions(ctx context.Context, executionID string) ([]*models.NodeExecution, error) {
	query := `
		SELECT execution_id, node_id, status, output, error, started_at, completed_at
		FROM node_executions
		WHERE execution_id = $1
		ORDER BY started_at
	`

	rows, err := r.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, persistence.NewExecutionError("NodeExecutions", executionID, err)
	}

	defer func() {
		_ = rows.Close()
	}()

	records := make([]*models.NodeExecution, 0)

	for rows.Next() {
		record, err := r.scanNodeExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node execution: %w", err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating node executions: %w", err)
	}

	return records, nil
}

// AppendLog appends one execution log entry.
func (r *ExecutionRepository) AppendLog(ctx context.Context, entry *models.ExecutionLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO execution_logs (execution_id, node_id, level, message, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ExecutionID, entry.NodeID, entry.Level, entry.Message, entry.Timestamp)
	if err != nil {
		return persistence.NewExecutionError("AppendLog", entry.ExecutionID, err)
	}

	return nil
}

// Logs returns the log entries of an execution in insertion order.
func (r *ExecutionRepository) Logs(ctx context.Context, executionID string) ([]*models.ExecutionLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT execution_id, node_id, level, message, timestamp
		FROM execution_logs
		WHERE execution_id = $1
		ORDER BY id
	`, executionID)
	if err != nil {
		return nil, persistence.NewExecutionError("Logs", executionID, err)
	}

	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*models.ExecutionLog, 0)

	for rows.Next() {
		var entry models.ExecutionLog

		err := rows.Scan(&entry.ExecutionID, &entry.NodeID, &entry.Level, &entry.Message, &entry.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating log entries: %w", err)
	}

	return entries, nil
}

func (r *ExecutionRepository) scanNodeExecution(scanner rowScanner) (*models.NodeExecution, error) {
	var (
		record     models.NodeExecution
		outputJSON []byte
		startedAt  sql.NullTime
	)

	err := scanner.Scan(
		&record.ExecutionID,
		&record.NodeID,
		&record.Status,
		&outputJSON,
		&record.Error,
		&startedAt,
		&record.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	record.StartedAt = startedAt.Time

	if len(outputJSON) > 0 {
		if err := json.Unmarshal(outputJSON, &record.Output); err != nil {
			return nil, fmt.Errorf("failed to unmarshal node output: %w", err)
		}
	}

	return &record, nil
}

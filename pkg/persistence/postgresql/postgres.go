// Package postgresql provides PostgreSQL persistence implementation for
// workflows, executions, and schedules.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db            *sql.DB
	logger        *slog.Logger
	workflowRepo  *WorkflowRepository
	executionRepo *ExecutionRepository
	scheduleRepo  *ScheduleRepository
}

// NewPersistence creates a new PostgreSQL persistence layer and runs
// migrations on initialization.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:            database,
		logger:        logger,
		workflowRepo:  NewWorkflowRepository(database, logger),
		executionRepo: NewExecutionRepository(database, logger),
		scheduleRepo:  NewScheduleRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Workflows returns all workflows from the database.
func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	return p.workflowRepo.GetAll(ctx)
}

// WorkflowByID returns a workflow by its ID.
func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	return p.workflowRepo.GetByID(ctx, id)
}

// SaveWorkflow saves a workflow to the database.
func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return p.workflowRepo.Save(ctx, workflow)
}

// DeleteWorkflow soft deletes a workflow by setting deleted_at timestamp.
func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	return p.workflowRepo.Delete(ctx, id)
}

// SaveExecution upserts an execution record.
func (p *Persistence) SaveExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	return p.executionRepo.Save(ctx, execution)
}

// ExecutionByID returns an execution by its ID.
func (p *Persistence) ExecutionByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	return p.executionRepo.GetByID(ctx, id)
}

// UpdateExecutionStatus updates the status and error of an execution.
func (p *Persistence) UpdateExecutionStatus(ctx context.Context, id string, status models.ExecutionStatus, execErr string) error {
	return p.executionRepo.UpdateStatus(ctx, id, status, execErr)
}

// ExecutionStatus returns the current status of an execution.
func (p *Persistence) ExecutionStatus(ctx context.Context, id string) (models.ExecutionStatus, error) {
	return p.executionRepo.Status(ctx, id)
}

// RequestPause flags an execution for a cooperative pause.
func (p *Persistence) RequestPause(ctx context.Context, id string) error {
	return p.executionRepo.RequestPause(ctx, id)
}

// PauseRequested reports whether a pause has been requested for an execution.
func (p *Persistence) PauseRequested(ctx context.Context, id string) (bool, error) {
	return p.executionRepo.PauseRequested(ctx, id)
}

// UpsertNodeExecution writes the record for an (execution, node) pair.
func (p *Persistence) UpsertNodeExecution(ctx context.Context, record *models.NodeExecution) error {
	return p.executionRepo.UpsertNodeExecution(ctx, record)
}

// NodeExecution returns the record of one (execution, node) pair.
func (p *Persistence) NodeExecution(ctx context.Context, executionID, nodeID string) (*models.NodeExecution, error) {
	return p.executionRepo.NodeExecution(ctx, executionID, nodeID)
}

// NodeExecutions returns all node records of an execution.
func (p *Persistence) NodeExecutions(ctx context.Context, executionID string) ([]*models.NodeExecution, error) {
	return p.executionRepo.NodeExecutions(ctx, executionID)
}

// AppendLog appends an execution log entry.
func (p *Persistence) AppendLog(ctx context.Context, entry *models.ExecutionLog) error {
	return p.executionRepo.AppendLog(ctx, entry)
}

// Logs returns the log entries of an execution.
func (p *Persistence) Logs(ctx context.Context, executionID string) ([]*models.ExecutionLog, error) {
	return p.executionRepo.Logs(ctx, executionID)
}

// SaveSchedule upserts a schedule.
func (p *Persistence) SaveSchedule(ctx context.Context, schedule *models.Schedule) error {
	return p.scheduleRepo.Save(ctx, schedule)
}

// DueSchedules returns active schedules due at the given time.
func (p *Persistence) DueSchedules(ctx context.Context, now time.Time) ([]*models.Schedule, error) {
	return p.scheduleRepo.Due(ctx, now)
}

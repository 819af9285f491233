// Package persistence provides data storage abstraction layer for workflows,
// executions, and schedules.
package persistence

import (
	"context"
	"time"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
)

type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error

	SaveExecution(ctx context.Context, execution *models.WorkflowExecution) error
	ExecutionByID(ctx context.Context, id string) (*models.WorkflowExecution, error)
	UpdateExecutionStatus(ctx context.Context, id string, status models.ExecutionStatus, execErr string) error
	ExecutionStatus(ctx context.Context, id string) (models.ExecutionStatus, error)
	RequestPause(ctx context.Context, id string) error
	PauseRequested(ctx context.Context, id string) (bool, error)

	UpsertNodeExecution(ctx context.Context, record *models.NodeExecution) error
	NodeExecution(ctx context.Context, executionID, nodeID string) (*models.NodeExecution, error)
	NodeExecutions(ctx context.Context, executionID string) ([]*models.NodeExecution, error)

	AppendLog(ctx context.Context, entry *models.ExecutionLog) error
	Logs(ctx context.Context, executionID string) ([]*models.ExecutionLog, error)

	SaveSchedule(ctx context.Context, schedule *models.Schedule) error
	DueSchedules(ctx context.Context, now time.Time) ([]*models.Schedule, error)

	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

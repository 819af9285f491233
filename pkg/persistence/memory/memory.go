// Package memory provides an in-memory persistence implementation for tests
// and local development. All data is lost on process exit.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/persistence"
)

type nodeKey struct {
	executionID string
	nodeID      string
}

// Persistence implements the persistence layer with mutex-guarded maps.
type Persistence struct {
	mu             sync.RWMutex
	workflows      map[string]*models.Workflow
	executions     map[string]*models.WorkflowExecution
	nodeExecutions map[nodeKey]*models.NodeExecution
	logs           map[string][]*models.ExecutionLog
	schedules      map[string]*models.Schedule
	pauseRequests  map[string]bool
}

// NewPersistence creates an empty in-memory persistence layer.
func NewPersistence() *Persistence {
	return &Persistence{
		workflows:      make(map[string]*models.Workflow),
		executions:     make(map[string]*models.WorkflowExecution),
		nodeExecutions: make(map[nodeKey]*models.NodeExecution),
		logs:           make(map[string][]*models.ExecutionLog),
		schedules:      make(map[string]*models.Schedule),
		pauseRequests:  make(map[string]bool),
	}
}

func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	workflows := make([]*models.Workflow, 0, len(p.workflows))
	for _, workflow := range p.workflows {
		if workflow.DeletedAt == nil {
			workflows = append(workflows, workflow)
		}
	}

	sort.Slice(workflows, func(i, j int) bool { return workflows[i].ID < workflows[j].ID })

	return workflows, nil
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.workflows[workflow.ID] = workflow

	return nil
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	workflow, exists := p.workflows[id]
	if !exists || workflow.DeletedAt != nil {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	return workflow, nil
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	workflow, exists := p.workflows[id]
	if !exists {
		return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
	}

	now := time.Now().UTC()
	workflow.DeletedAt = &now

	return nil
}

func (p *Persistence) SaveExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.executions[execution.ID] = execution

	if execution.Status == models.ExecutionStatusPaused {
		delete(p.pauseRequests, execution.ID)
	}

	return nil
}

func (p *Persistence) ExecutionByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	execution, exists := p.executions[id]
	if !exists {
		return nil, persistence.NewExecutionError("ExecutionByID", id, persistence.ErrExecutionNotFound)
	}

	return execution, nil
}

func (p *Persistence) UpdateExecutionStatus(ctx context.Context, id string, status models.ExecutionStatus, execErr string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	execution, exists := p.executions[id]
	if !exists {
		return persistence.NewExecutionError("UpdateExecutionStatus", id, persistence.ErrExecutionNotFound)
	}

	execution.Status = status
	execution.Error = execErr

	if status.IsTerminal() && execution.CompletedAt == nil {
		now := time.Now().UTC()
		execution.CompletedAt = &now
	}

	if status == models.ExecutionStatusPaused {
		delete(p.pauseRequests, id)
	}

	return nil
}

func (p *Persistence) ExecutionStatus(ctx context.Context, id string) (models.ExecutionStatus, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	execution, exists := p.executions[id]
	if !exists {
		return "", persistence.NewExecutionError("ExecutionStatus", id, persistence.ErrExecutionNotFound)
	}

	return execution.Status, nil
}

func (p *Persistence) RequestPause(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.executions[id]; !exists {
		return persistence.NewExecutionError("RequestPause", id, persistence.ErrExecutionNotFound)
	}

	p.pauseRequests[id] = true

	return nil
}

func (p *Persistence) PauseRequested(ctx context.Context, id string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.pauseRequests[id], nil
}

func (p *Persistence) UpsertNodeExecution(ctx context.Context, record *models.NodeExecution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	copied := *record
	p.nodeExecutions[nodeKey{record.ExecutionID, record.NodeID}] = &copied

	return nil
}

func (p *Persistence) NodeExecution(ctx context.Context, executionID, nodeID string) (*models.NodeExecution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	record, exists := p.nodeExecutions[nodeKey{executionID, nodeID}]
	if !exists {
		return nil, persistence.NewExecutionError("NodeExecution", executionID, persistence.ErrNodeExecutionNotFound)
	}

	return record, nil
}

func (p *Persistence) NodeExecutions(ctx context.Context, executionID string) ([]*models.NodeExecution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	records := make([]*models.NodeExecution, 0)

	for key, record := range p.nodeExecutions {
		if key.executionID == executionID {
			records = append(records, record)
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].StartedAt.Before(records[j].StartedAt) })

	return records, nil
}

func (p *Persistence) AppendLog(ctx context.Context, entry *models.ExecutionLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logs[entry.ExecutionID] = append(p.logs[entry.ExecutionID], entry)

	return nil
}

func (p *Persistence) Logs(ctx context.Context, executionID string) ([]*models.ExecutionLog, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.logs[executionID], nil
}

func (p *Persistence) SaveSchedule(ctx context.Context, schedule *models.Schedule) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.schedules[schedule.ID] = schedule

	return nil
}

func (p *Persistence) DueSchedules(ctx context.Context, now time.Time) ([]*models.Schedule, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	due := make([]*models.Schedule, 0)

	for _, schedule := range p.schedules {
		if schedule.Due(now) {
			due = append(due, schedule)
		}
	}

	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })

	return due, nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return nil
}

func (p *Persistence) Close(ctx context.Context) error {
	return nil
}

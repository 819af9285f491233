package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/eventbus"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/events"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/graph"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/otelhelper"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/persistence"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/registry"
)

// Runner drives one workflow execution from pending to a terminal state.
// It validates and orders the graph, runs nodes sequentially through the
// NodeExecutor, checks for pause requests at node boundaries, and on a
// resumed attempt skips nodes that already completed.
type Runner struct {
	persistence persistence.Persistence
	executor    *NodeExecutor
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	logger      *slog.Logger
	workerID    string
}

// NewRunner creates a run controller. The publisher may be nil, in which
// case lifecycle events are not emitted.
func NewRunner(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	publisher eventbus.EventPublisher,
	tracer trace.Tracer,
	workerID string,
) *Runner {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("engine")
	}

	return &Runner{
		persistence: persistence,
		executor:    NewNodeExecutor(persistence, registry, tracer),
		publisher:   publisher,
		tracer:      tracer,
		logger:      logger.With("module", "engine"),
		workerID:    workerID,
	}
}

// Run executes the workflow behind the given execution until it reaches a
// terminal state or pauses. Re-running a terminal execution is a no-op that
// returns the stored record, so redelivered jobs are safe. A paused
// execution is also a no-op: it stays paused until a resume moves it back
// to pending and enqueues a fresh job, at which point nodes with a
// completed record are skipped and their stored outputs feed downstream
// templating.
func (r *Runner) Run(ctx context.Context, executionID string) (*models.WorkflowExecution, error) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "engine.run",
		attribute.String(otelhelper.ExecutionIDKey, executionID),
		attribute.String(otelhelper.WorkerIDKey, r.workerID),
	)
	defer span.End()

	execution, err := r.persistence.ExecutionByID(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch execution %s: %w", executionID, err)
	}

	logger := r.logger.With("execution_id", execution.ID, "workflow_id", execution.WorkflowID)

	if execution.Status.IsTerminal() {
		logger.InfoContext(ctx, "Execution already terminal, nothing to do", "status", execution.Status)

		return execution, nil
	}

	if execution.Status == models.ExecutionStatusPaused {
		logger.InfoContext(ctx, "Execution is paused, waiting for resume")

		return execution, nil
	}

	workflow, err := r.persistence.WorkflowByID(ctx, execution.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %s: %w", execution.WorkflowID, err)
	}

	if err := graph.Validate(workflow.Nodes, workflow.Edges); err != nil {
		otelhelper.SetError(span, err)

		return execution, r.fail(ctx, execution, "", err, 0)
	}

	ordered, err := graph.Sort(workflow.Nodes, workflow.Edges)
	if err != nil {
		otelhelper.SetError(span, err)

		return execution, r.fail(ctx, execution, "", err, 0)
	}

	started := time.Now().UTC()
	if execution.StartedAt.IsZero() {
		execution.StartedAt = started
	}

	execution.Status = models.ExecutionStatusRunning
	execution.Error = ""

	if err := r.persistence.SaveExecution(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to mark execution running: %w", err)
	}

	execCtx := models.ExecutionContext{
		ExecutionID:   execution.ID,
		WorkflowID:    execution.WorkflowID,
		UserID:        execution.UserID,
		TriggerData:   execution.TriggerData,
		Variables:     workflow.Variables,
		NodeOutputs:   make(map[string]any),
		Authorization: execution.Authorization,
		Logger:        logger,
	}

	completed, err := r.completedNodes(ctx, execution.ID)
	if err != nil {
		return nil, err
	}

	for nodeID, output := range completed {
		execCtx.NodeOutputs[nodeID] = output
	}

	// Completed records from a prior attempt mean this job is a resume.
	resuming := len(completed) > 0

	if resuming {
		logger.InfoContext(ctx, "Resuming execution", "completed_nodes", len(completed))
		r.publish(ctx, execution, events.ExecutionResumed{
			BaseEvent:   r.baseEvent(events.ExecutionResumedEvent, execution.WorkflowID),
			ExecutionID: execution.ID,
		})
	} else {
		logger.InfoContext(ctx, "Starting execution", "nodes", len(ordered))
		r.publish(ctx, execution, events.ExecutionStarted{
			BaseEvent:    r.baseEvent(events.ExecutionStartedEvent, execution.WorkflowID),
			ExecutionID:  execution.ID,
			WorkflowName: workflow.Name,
			TriggerData:  execution.TriggerData,
		})
	}

	executed := len(completed)

	for _, node := range ordered {
		if _, done := completed[node.ID]; done {
			continue
		}

		if !node.Enabled {
			logger.InfoContext(ctx, "Node is disabled, skipping", "node_id", node.ID)

			continue
		}

		paused, err := r.persistence.PauseRequested(ctx, execution.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check pause request: %w", err)
		}

		if paused {
			return execution, r.pause(ctx, execution, node.ID)
		}

		r.publish(ctx, execution, events.NodeStarted{
			BaseEvent:   r.baseEvent(events.NodeStartedEvent, execution.WorkflowID),
			ExecutionID: execution.ID,
			NodeID:      node.ID,
		})

		nodeStarted := time.Now().UTC()

		output, err := r.executor.ExecuteNode(ctx, node, execCtx)
		if err != nil {
			otelhelper.SetError(span, err)
			r.publish(ctx, execution, events.NodeFailed{
				BaseEvent:   r.baseEvent(events.NodeFailedEvent, execution.WorkflowID),
				ExecutionID: execution.ID,
				NodeID:      node.ID,
				Error:       err.Error(),
				Timeout:     IsNodeTimeout(err),
			})

			return execution, r.fail(ctx, execution, node.ID, err, executed)
		}

		execCtx.NodeOutputs[node.ID] = output
		executed++

		r.publish(ctx, execution, events.NodeCompleted{
			BaseEvent:   r.baseEvent(events.NodeCompletedEvent, execution.WorkflowID),
			ExecutionID: execution.ID,
			NodeID:      node.ID,
			Output:      output,
			DurationMs:  time.Since(nodeStarted).Milliseconds(),
		})
	}

	// Every executed node contributes its output to the run result.
	result := execCtx.NodeOutputs

	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusCompleted
	execution.Result = result
	execution.CompletedAt = &now

	if err := r.persistence.SaveExecution(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to mark execution completed: %w", err)
	}

	logger.InfoContext(ctx, "Execution completed",
		"nodes_executed", executed,
		"duration", now.Sub(execution.StartedAt))

	r.publish(ctx, execution, events.ExecutionCompleted{
		BaseEvent:     r.baseEvent(events.ExecutionCompletedEvent, execution.WorkflowID),
		ExecutionID:   execution.ID,
		DurationMs:    now.Sub(execution.StartedAt).Milliseconds(),
		NodesExecuted: executed,
		Result:        result,
	})

	return execution, nil
}

// completedNodes returns the outputs of nodes that already finished in a
// prior attempt, keyed by node ID.
func (r *Runner) completedNodes(ctx context.Context, executionID string) (map[string]any, error) {
	records, err := r.persistence.NodeExecutions(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch node executions: %w", err)
	}

	completed := make(map[string]any)

	for _, record := range records {
		if record.Status == models.NodeExecutionStatusCompleted {
			completed[record.NodeID] = record.Output
		}
	}

	return completed, nil
}

func (r *Runner) pause(ctx context.Context, execution *models.WorkflowExecution, nodeID string) error {
	if err := r.persistence.UpdateExecutionStatus(ctx, execution.ID, models.ExecutionStatusPaused, ""); err != nil {
		return fmt.Errorf("failed to mark execution paused: %w", err)
	}

	execution.Status = models.ExecutionStatusPaused

	r.logger.InfoContext(ctx, "Execution paused", "execution_id", execution.ID, "paused_at_node", nodeID)

	r.publish(ctx, execution, events.ExecutionPaused{
		BaseEvent:    r.baseEvent(events.ExecutionPausedEvent, execution.WorkflowID),
		ExecutionID:  execution.ID,
		PausedAtNode: nodeID,
	})

	return ErrExecutionPaused
}

// fail marks the execution failed with the verbatim node error.
func (r *Runner) fail(ctx context.Context, execution *models.WorkflowExecution, nodeID string, runErr error, executed int) error {
	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusFailed
	execution.Error = runErr.Error()
	execution.CompletedAt = &now

	if err := r.persistence.SaveExecution(ctx, execution); err != nil {
		r.logger.ErrorContext(ctx, "Failed to mark execution failed",
			"execution_id", execution.ID, "error", err)
	}

	var durationMs int64
	if !execution.StartedAt.IsZero() {
		durationMs = now.Sub(execution.StartedAt).Milliseconds()
	}

	r.publish(ctx, execution, events.ExecutionFailed{
		BaseEvent:     r.baseEvent(events.ExecutionFailedEvent, execution.WorkflowID),
		ExecutionID:   execution.ID,
		NodeID:        nodeID,
		Error:         runErr.Error(),
		DurationMs:    durationMs,
		NodesExecuted: executed,
	})

	return runErr
}

func (r *Runner) baseEvent(eventType events.EventType, workflowID string) events.BaseEvent {
	base := events.NewBaseEvent(eventType, workflowID)
	base.WorkerID = r.workerID

	return base
}

// publish emits a lifecycle event; publish failures are logged, never
// surfaced, so observability cannot fail a run.
func (r *Runner) publish(ctx context.Context, execution *models.WorkflowExecution, event eventbus.Event) {
	if r.publisher == nil {
		return
	}

	if err := r.publisher.Publish(ctx, execution.WorkflowID, event); err != nil {
		r.logger.ErrorContext(ctx, "Failed to publish event",
			"execution_id", execution.ID, "event_type", event.GetType(), "error", err)
	}
}

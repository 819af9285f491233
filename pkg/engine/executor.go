package engine

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/otelhelper"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/persistence"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/registry"
)

// NodeExecutor runs one node through its block handler and keeps the
// per-node execution record current. Every attempt writes a running record
// before the handler starts, so a crashed worker leaves evidence of where
// it died.
type NodeExecutor struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	tracer      trace.Tracer
}

// NewNodeExecutor creates a node executor.
func NewNodeExecutor(persistence persistence.Persistence, registry *registry.Registry, tracer trace.Tracer) *NodeExecutor {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("engine")
	}

	return &NodeExecutor{
		persistence: persistence,
		registry:    registry,
		tracer:      tracer,
	}
}

// ExecuteNode runs a single node and records the outcome. The handler gets
// a deadline derived from its block class; exceeding it fails the node with
// a timeout. The returned output is the handler output on success.
func (e *NodeExecutor) ExecuteNode(ctx context.Context, node *models.Node, execCtx models.ExecutionContext) (any, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.execute_node",
		attribute.String(otelhelper.ExecutionIDKey, execCtx.ExecutionID),
		attribute.String(otelhelper.WorkflowIDKey, execCtx.WorkflowID),
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.BlockTypeKey, string(node.BlockType)),
	)
	defer span.End()

	logger := execCtx.Logger.With("node_id", node.ID, "block_type", node.BlockType)

	factory, err := e.registry.Factory(node.BlockType)
	if err != nil {
		dispatchErr := &DispatchError{NodeID: node.ID, BlockType: string(node.BlockType), Err: err}
		otelhelper.SetError(span, dispatchErr)
		e.recordFailure(ctx, execCtx.ExecutionID, node.ID, dispatchErr)

		return nil, dispatchErr
	}

	handler, err := factory.Create(ctx, node)
	if err != nil {
		dispatchErr := &DispatchError{NodeID: node.ID, BlockType: string(node.BlockType), Err: err}
		otelhelper.SetError(span, dispatchErr)
		e.recordFailure(ctx, execCtx.ExecutionID, node.ID, dispatchErr)

		return nil, dispatchErr
	}

	started := time.Now().UTC()

	record := &models.NodeExecution{
		ExecutionID: execCtx.ExecutionID,
		NodeID:      node.ID,
		Status:      models.NodeExecutionStatusRunning,
		StartedAt:   started,
	}
	if err := e.persistence.UpsertNodeExecution(ctx, record); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Executing node", "timeout", factory.Timeout())

	nodeCtx, cancel := context.WithTimeout(ctx, factory.Timeout())
	defer cancel()

	output, err := handler.Execute(nodeCtx, execCtx)
	if err != nil {
		handlerErr := &HandlerError{
			NodeID:  node.ID,
			Timeout: errors.Is(nodeCtx.Err(), context.DeadlineExceeded),
			Err:     err,
		}
		otelhelper.SetError(span, handlerErr)
		logger.ErrorContext(ctx, "Node execution failed", "error", err, "timeout", handlerErr.Timeout)

		completed := time.Now().UTC()
		record.Status = models.NodeExecutionStatusFailed
		record.Error = handlerErr.Error()
		record.CompletedAt = &completed
		e.upsertOrLog(ctx, record)

		return nil, handlerErr
	}

	completed := time.Now().UTC()
	record.Status = models.NodeExecutionStatusCompleted
	record.Output = output
	record.CompletedAt = &completed

	if err := e.persistence.UpsertNodeExecution(ctx, record); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Node execution completed", "duration", completed.Sub(started))

	return output, nil
}

// recordFailure writes a failed node record with the verbatim error text.
// Used for dispatch failures, where no running record exists yet.
func (e *NodeExecutor) recordFailure(ctx context.Context, executionID, nodeID string, nodeErr error) {
	now := time.Now().UTC()

	e.upsertOrLog(ctx, &models.NodeExecution{
		ExecutionID: executionID,
		NodeID:      nodeID,
		Status:      models.NodeExecutionStatusFailed,
		Error:       nodeErr.Error(),
		StartedAt:   now,
		CompletedAt: &now,
	})
}

// upsertOrLog persists a node record; persistence errors here are appended
// to the execution log and swallowed, since the node outcome is the error
// that matters to the caller.
func (e *NodeExecutor) upsertOrLog(ctx context.Context, record *models.NodeExecution) {
	if err := e.persistence.UpsertNodeExecution(ctx, record); err != nil {
		_ = e.persistence.AppendLog(ctx, &models.ExecutionLog{
			ExecutionID: record.ExecutionID,
			NodeID:      record.NodeID,
			Level:       models.LogLevelError,
			Message:     "failed to persist node record: " + err.Error(),
			Timestamp:   time.Now().UTC(),
		})
	}
}

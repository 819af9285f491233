package engine_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/cmd"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/engine"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/persistence/memory"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/registry"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/testutil"
)

// slowFactory serves the custom block kind with a handler that blocks until
// its context deadline, with a deliberately tiny budget.
type slowFactory struct{}

type slowHandler struct{}

func (slowFactory) Create(_ context.Context, _ *models.Node) (blocks.Handler, error) {
	return slowHandler{}, nil
}

func (slowFactory) ID() models.BlockType   { return models.BlockTypeCustom }
func (slowFactory) Name() string           { return "Slow" }
func (slowFactory) Description() string    { return "blocks until the deadline" }
func (slowFactory) Schema() map[string]any { return map[string]any{"type": "object"} }
func (slowFactory) Timeout() time.Duration { return 20 * time.Millisecond }

func (slowHandler) Execute(ctx context.Context, _ models.ExecutionContext) (any, error) {
	<-ctx.Done()

	return nil, ctx.Err()
}

func testExecContext(executionID, workflowID string) models.ExecutionContext {
	return models.ExecutionContext{
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		UserID:      "test-user",
		NodeOutputs: map[string]any{},
		Logger:      slog.Default(),
	}
}

func TestExecuteNode_UnregisteredBlockTypeIsDispatchError(t *testing.T) {
	persistence := memory.NewPersistence()
	reg := registry.NewRegistry(slog.Default())
	executor := engine.NewNodeExecutor(persistence, reg, nil)

	node := testutil.CreateTestNode(testutil.WithID("mystery"))

	_, err := executor.ExecuteNode(t.Context(), node, testExecContext("exec-1", "wf-1"))
	require.Error(t, err)

	var dispatchErr *engine.DispatchError

	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, "mystery", dispatchErr.NodeID)

	// Dispatch failures still leave a failed record behind.
	record, err := persistence.NodeExecution(t.Context(), "exec-1", "mystery")
	require.NoError(t, err)
	assert.Equal(t, models.NodeExecutionStatusFailed, record.Status)
	assert.NotEmpty(t, record.Error)
}

func TestExecuteNode_InvalidConfigIsDispatchError(t *testing.T) {
	persistence := memory.NewPersistence()
	executor := engine.NewNodeExecutor(persistence, cmd.NewRegistry(slog.Default()), nil)

	node := testutil.CreateTestNode(testutil.WithID("bad"), testutil.WithConfig(map[string]any{}))

	_, err := executor.ExecuteNode(t.Context(), node, testExecContext("exec-1", "wf-1"))
	require.Error(t, err)

	var dispatchErr *engine.DispatchError

	require.ErrorAs(t, err, &dispatchErr)
	assert.Contains(t, dispatchErr.Err.Error(), "expression")
}

func TestExecuteNode_TimeoutFlagsHandlerError(t *testing.T) {
	persistence := memory.NewPersistence()
	reg := registry.NewRegistry(slog.Default())
	reg.RegisterBlock(slowFactory{})
	executor := engine.NewNodeExecutor(persistence, reg, nil)

	node := testutil.CreateTestNode(testutil.WithID("slow"), testutil.WithBlockType(models.BlockTypeCustom))

	_, err := executor.ExecuteNode(t.Context(), node, testExecContext("exec-1", "wf-1"))
	require.Error(t, err)

	var handlerErr *engine.HandlerError

	require.ErrorAs(t, err, &handlerErr)
	assert.True(t, handlerErr.Timeout)
	assert.True(t, engine.IsNodeTimeout(err))

	record, err := persistence.NodeExecution(t.Context(), "exec-1", "slow")
	require.NoError(t, err)
	assert.Equal(t, models.NodeExecutionStatusFailed, record.Status)
	assert.Contains(t, record.Error, "timed out")
	// The failure keeps the original start time from the running record.
	assert.False(t, record.StartedAt.IsZero())
	require.NotNil(t, record.CompletedAt)
	assert.True(t, record.CompletedAt.After(record.StartedAt) || record.CompletedAt.Equal(record.StartedAt))
}

func TestExecuteNode_SuccessRecordsOutput(t *testing.T) {
	persistence := memory.NewPersistence()
	executor := engine.NewNodeExecutor(persistence, cmd.NewRegistry(slog.Default()), nil)

	node := testutil.CreateTestNode(testutil.WithID("ok"), testutil.WithConfig(map[string]any{"expression": "done"}))

	output, err := executor.ExecuteNode(t.Context(), node, testExecContext("exec-1", "wf-1"))
	require.NoError(t, err)

	result, ok := output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "done", result["result"])

	record, err := persistence.NodeExecution(t.Context(), "exec-1", "ok")
	require.NoError(t, err)
	assert.Equal(t, models.NodeExecutionStatusCompleted, record.Status)
	assert.Equal(t, output, record.Output)
}

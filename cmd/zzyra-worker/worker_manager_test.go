package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/cmd"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/eventbus"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/events"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/persistence/memory"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/testutil"
)

// stubBus satisfies the event bus without a broker; published events are
// collected for inspection.
type stubBus struct {
	published []eventbus.Event
}

func (b *stubBus) Publish(_ context.Context, _ string, event eventbus.Event) error {
	b.published = append(b.published, event)

	return nil
}

func (b *stubBus) Handle(events.EventType, eventbus.EventHandler) error { return nil }
func (b *stubBus) Subscribe(context.Context) error                     { return nil }
func (b *stubBus) Close() error                                        { return nil }
func (b *stubBus) GenerateID() string                                  { return "stub" }

func newTestWorker(t *testing.T, persistence *memory.Persistence) (*WorkerManager, *stubBus) {
	t.Helper()

	logger := slog.Default()
	jobBus := &stubBus{}
	lifecycleBus := &stubBus{}

	worker := NewWorkerManager("worker-test", persistence, jobBus, lifecycleBus, logger, cmd.NewRegistry(logger), nil)

	return worker, jobBus
}

func jobFor(execution *models.WorkflowExecution) *events.ExecutionRequested {
	return &events.ExecutionRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionRequestedEvent, execution.WorkflowID),
		ExecutionID: execution.ID,
		UserID:      execution.UserID,
		Attempt:     1,
	}
}

func TestHandleExecutionRequested_SuccessAcks(t *testing.T) {
	persistence := memory.NewPersistence()
	worker, _ := newTestWorker(t, persistence)

	workflow := testutil.CreateTestWorkflow([]*models.Node{testutil.CreateTestNode(testutil.WithID("only"))}, nil)
	require.NoError(t, persistence.SaveWorkflow(t.Context(), workflow))

	execution := testutil.CreateTestExecution(workflow.ID)
	require.NoError(t, persistence.SaveExecution(t.Context(), execution))

	err := worker.handleExecutionRequested(t.Context(), jobFor(execution))
	assert.NoError(t, err)

	status, err := persistence.ExecutionStatus(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, status)
}

func TestHandleExecutionRequested_NodeFailureAcks(t *testing.T) {
	persistence := memory.NewPersistence()
	worker, _ := newTestWorker(t, persistence)

	broken := testutil.CreateTestNode(testutil.WithID("broken"), testutil.WithConfig(map[string]any{"expression": "{{.nodes.x"}))
	workflow := testutil.CreateTestWorkflow([]*models.Node{broken}, nil)
	require.NoError(t, persistence.SaveWorkflow(t.Context(), workflow))

	execution := testutil.CreateTestExecution(workflow.ID)
	require.NoError(t, persistence.SaveExecution(t.Context(), execution))

	// The failure is terminal and durably recorded, so the job is acked
	// rather than redelivered.
	err := worker.handleExecutionRequested(t.Context(), jobFor(execution))
	assert.NoError(t, err)

	status, err := persistence.ExecutionStatus(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, status)
}

func TestHandleExecutionRequested_InvalidGraphAcks(t *testing.T) {
	persistence := memory.NewPersistence()
	worker, _ := newTestWorker(t, persistence)

	a := testutil.CreateTestNode(testutil.WithID("a"))
	b := testutil.CreateTestNode(testutil.WithID("b"))
	workflow := testutil.CreateTestWorkflow(
		[]*models.Node{a, b},
		[]*models.Edge{testutil.Edge("a", "b"), testutil.Edge("b", "a")},
	)
	require.NoError(t, persistence.SaveWorkflow(t.Context(), workflow))

	execution := testutil.CreateTestExecution(workflow.ID)
	require.NoError(t, persistence.SaveExecution(t.Context(), execution))

	err := worker.handleExecutionRequested(t.Context(), jobFor(execution))
	assert.NoError(t, err)

	status, err := persistence.ExecutionStatus(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, status)
}

func TestHandleExecutionRequested_PausedRunAcksWithoutExecuting(t *testing.T) {
	persistence := memory.NewPersistence()
	worker, _ := newTestWorker(t, persistence)

	workflow := testutil.CreateTestWorkflow([]*models.Node{testutil.CreateTestNode(testutil.WithID("only"))}, nil)
	require.NoError(t, persistence.SaveWorkflow(t.Context(), workflow))

	execution := testutil.CreateTestExecution(workflow.ID)
	execution.Status = models.ExecutionStatusPaused
	require.NoError(t, persistence.SaveExecution(t.Context(), execution))

	// A redelivered job must not act as an implicit resume: the message is
	// acked and the run stays paused until the resume endpoint re-enqueues it.
	err := worker.handleExecutionRequested(t.Context(), jobFor(execution))
	assert.NoError(t, err)

	status, err := persistence.ExecutionStatus(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusPaused, status)

	records, err := persistence.NodeExecutions(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHandleExecutionRequested_InfrastructureErrorNacks(t *testing.T) {
	persistence := memory.NewPersistence()
	worker, _ := newTestWorker(t, persistence)

	// No execution stored: the fetch fails, which is an infrastructure
	// error and must nack for redelivery.
	job := &events.ExecutionRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionRequestedEvent, "wf-1"),
		ExecutionID: "missing",
		Attempt:     1,
	}

	err := worker.handleExecutionRequested(t.Context(), job)
	assert.Error(t, err)
}

func TestHandleExecutionRequested_WrongEventTypeAcks(t *testing.T) {
	persistence := memory.NewPersistence()
	worker, _ := newTestWorker(t, persistence)

	err := worker.handleExecutionRequested(t.Context(), &events.NodeStarted{})
	assert.NoError(t, err)
}

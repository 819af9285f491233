package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/persistence"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/testutil"
)

func TestWorkflowLifecycle(t *testing.T) {
	p := NewPersistence()

	workflow := testutil.CreateTestWorkflow([]*models.Node{testutil.CreateTestNode()}, nil)
	require.NoError(t, p.SaveWorkflow(t.Context(), workflow))

	loaded, err := p.WorkflowByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.ID, loaded.ID)

	listed, err := p.Workflows(t.Context())
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	// Deletion is soft: the workflow disappears from reads.
	require.NoError(t, p.DeleteWorkflow(t.Context(), workflow.ID))

	_, err = p.WorkflowByID(t.Context(), workflow.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))

	listed, err = p.Workflows(t.Context())
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestWorkflowByID_NotFound(t *testing.T) {
	p := NewPersistence()

	_, err := p.WorkflowByID(t.Context(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestExecutionStatusTransitions(t *testing.T) {
	p := NewPersistence()

	execution := testutil.CreateTestExecution("wf-1")
	require.NoError(t, p.SaveExecution(t.Context(), execution))

	status, err := p.ExecutionStatus(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusPending, status)

	require.NoError(t, p.UpdateExecutionStatus(t.Context(), execution.ID, models.ExecutionStatusFailed, "node n1 exploded"))

	loaded, err := p.ExecutionByID(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, loaded.Status)
	assert.Equal(t, "node n1 exploded", loaded.Error)
	// Terminal transitions stamp a completion time.
	assert.NotNil(t, loaded.CompletedAt)
}

func TestPauseRequestLifecycle(t *testing.T) {
	p := NewPersistence()

	execution := testutil.CreateTestExecution("wf-1")
	require.NoError(t, p.SaveExecution(t.Context(), execution))

	require.Error(t, p.RequestPause(t.Context(), "missing"))

	require.NoError(t, p.RequestPause(t.Context(), execution.ID))

	paused, err := p.PauseRequested(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.True(t, paused)

	// Transitioning into paused consumes the request.
	require.NoError(t, p.UpdateExecutionStatus(t.Context(), execution.ID, models.ExecutionStatusPaused, ""))

	paused, err = p.PauseRequested(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.False(t, paused)
}

func TestUpsertNodeExecution(t *testing.T) {
	p := NewPersistence()

	record := &models.NodeExecution{
		ExecutionID: "exec-1",
		NodeID:      "n1",
		Status:      models.NodeExecutionStatusRunning,
		StartedAt:   time.Now().UTC(),
	}
	require.NoError(t, p.UpsertNodeExecution(t.Context(), record))

	// Upserting the same pair replaces instead of duplicating.
	completedAt := time.Now().UTC()
	record.Status = models.NodeExecutionStatusCompleted
	record.Output = map[string]any{"result": "ok"}
	record.CompletedAt = &completedAt
	require.NoError(t, p.UpsertNodeExecution(t.Context(), record))

	records, err := p.NodeExecutions(t.Context(), "exec-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.NodeExecutionStatusCompleted, records[0].Status)

	// The stored record is a copy, detached from the caller's struct.
	record.Status = models.NodeExecutionStatusFailed

	loaded, err := p.NodeExecution(t.Context(), "exec-1", "n1")
	require.NoError(t, err)
	assert.Equal(t, models.NodeExecutionStatusCompleted, loaded.Status)
}

func TestNodeExecutions_SortedByStartTime(t *testing.T) {
	p := NewPersistence()

	base := time.Now().UTC()

	offsets := map[string]time.Duration{"first": 0, "second": time.Second, "third": 2 * time.Second}

	for _, nodeID := range []string{"third", "first", "second"} {
		require.NoError(t, p.UpsertNodeExecution(t.Context(), &models.NodeExecution{
			ExecutionID: "exec-1",
			NodeID:      nodeID,
			Status:      models.NodeExecutionStatusCompleted,
			StartedAt:   base.Add(offsets[nodeID]),
		}))
	}

	records, err := p.NodeExecutions(t.Context(), "exec-1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "first", records[0].NodeID)
	assert.Equal(t, "second", records[1].NodeID)
	assert.Equal(t, "third", records[2].NodeID)
}

func TestLogsAppendInOrder(t *testing.T) {
	p := NewPersistence()

	for _, message := range []string{"one", "two", "three"} {
		require.NoError(t, p.AppendLog(t.Context(), &models.ExecutionLog{
			ExecutionID: "exec-1",
			Level:       models.LogLevelInfo,
			Message:     message,
			Timestamp:   time.Now().UTC(),
		}))
	}

	logs, err := p.Logs(t.Context(), "exec-1")
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "one", logs[0].Message)
	assert.Equal(t, "three", logs[2].Message)
}

func TestDueSchedules(t *testing.T) {
	p := NewPersistence()

	now := time.Now().UTC()

	due := &models.Schedule{ID: "due", WorkflowID: "wf-1", CronExpression: "* * * * *", Active: true, NextDueAt: now.Add(-time.Minute)}
	future := &models.Schedule{ID: "future", WorkflowID: "wf-1", CronExpression: "* * * * *", Active: true, NextDueAt: now.Add(time.Hour)}
	inactive := &models.Schedule{ID: "inactive", WorkflowID: "wf-1", CronExpression: "* * * * *", Active: false, NextDueAt: now.Add(-time.Minute)}

	for _, schedule := range []*models.Schedule{due, future, inactive} {
		require.NoError(t, p.SaveSchedule(t.Context(), schedule))
	}

	found, err := p.DueSchedules(t.Context(), now)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "due", found[0].ID)
}

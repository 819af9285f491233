package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/cmd"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/eventbus"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/events"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/persistence/memory"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/testutil"
)

// stubJobBus satisfies the event bus interface without a broker and records
// published jobs.
type stubJobBus struct {
	published []eventbus.Event
}

func (b *stubJobBus) Publish(_ context.Context, _ string, event eventbus.Event) error {
	b.published = append(b.published, event)

	return nil
}

func (b *stubJobBus) Handle(events.EventType, eventbus.EventHandler) error { return nil }
func (b *stubJobBus) Subscribe(context.Context) error                      { return nil }
func (b *stubJobBus) Close() error                                         { return nil }
func (b *stubJobBus) GenerateID() string                                   { return "stub" }

func setupTestApp(persistence *memory.Persistence) (*fiber.App, *stubJobBus) {
	jobBus := &stubJobBus{}

	api := NewAPI(
		slog.Default(),
		persistence,
		cmd.NewRegistry(slog.Default()),
		jobBus,
		nil,
	)

	return api.App(), jobBus
}

func jsonRequest(method, target string, payload any) *http.Request {
	var body io.Reader

	if payload != nil {
		encoded, _ := json.Marshal(payload)
		body = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return req
}

func TestAPI_RootEndpoint(t *testing.T) {
	app, _ := setupTestApp(memory.NewPersistence())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Zzyra API", string(body))
}

func TestAPI_Liveness(t *testing.T) {
	app, _ := setupTestApp(memory.NewPersistence())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_GetWorkflows(t *testing.T) {
	persistence := memory.NewPersistence()

	workflow := testutil.CreateTestWorkflow([]*models.Node{testutil.CreateTestNode()}, nil)
	require.NoError(t, persistence.SaveWorkflow(t.Context(), workflow))

	app, _ := setupTestApp(persistence)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/workflows", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Workflows []models.Workflow `json:"workflows"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Workflows, 1)
	assert.Equal(t, workflow.ID, payload.Workflows[0].ID)
}

func TestAPI_GetWorkflow_NotFound(t *testing.T) {
	app, _ := setupTestApp(memory.NewPersistence())

	resp, err := app.Test(jsonRequest(http.MethodGet, "/workflows/missing", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CreateWorkflow(t *testing.T) {
	persistence := memory.NewPersistence()
	app, _ := setupTestApp(persistence)

	payload := map[string]any{
		"name":  "Price alert",
		"owner": "user-1",
		"nodes": []map[string]any{
			{
				"id":         "n1",
				"block_type": "transform",
				"name":       "shape",
				"config":     map[string]any{"expression": "ok"},
				"enabled":    true,
			},
		},
	}

	resp, err := app.Test(jsonRequest(http.MethodPost, "/workflows", payload))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Workflow

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	// Workflows default to draft until explicitly published.
	assert.Equal(t, models.WorkflowStatusDraft, created.Status)

	_, err = persistence.WorkflowByID(t.Context(), created.ID)
	assert.NoError(t, err)
}

func TestAPI_CreateWorkflow_InvalidNodeConfig(t *testing.T) {
	app, _ := setupTestApp(memory.NewPersistence())

	payload := map[string]any{
		"name":  "Broken",
		"owner": "user-1",
		"nodes": []map[string]any{
			{
				"id":         "n1",
				"block_type": "transform",
				"name":       "shape",
				"config":     map[string]any{},
				"enabled":    true,
			},
		},
	}

	resp, err := app.Test(jsonRequest(http.MethodPost, "/workflows", payload))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ValidateWorkflow_ReportsCycle(t *testing.T) {
	persistence := memory.NewPersistence()

	a := testutil.CreateTestNode(testutil.WithID("a"))
	b := testutil.CreateTestNode(testutil.WithID("b"))
	workflow := testutil.CreateTestWorkflow(
		[]*models.Node{a, b},
		[]*models.Edge{testutil.Edge("a", "b"), testutil.Edge("b", "a")},
	)
	require.NoError(t, persistence.SaveWorkflow(t.Context(), workflow))

	app, _ := setupTestApp(persistence)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/workflows/"+workflow.ID+"/validate", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.False(t, result.Valid)
	assert.Contains(t, result.Error, "cycle")
}

func TestAPI_CreateExecution_PublishesJob(t *testing.T) {
	persistence := memory.NewPersistence()

	workflow := testutil.CreateTestWorkflow([]*models.Node{testutil.CreateTestNode()}, nil)
	require.NoError(t, persistence.SaveWorkflow(t.Context(), workflow))

	app, jobBus := setupTestApp(persistence)

	payload := map[string]any{
		"user_id":      "user-1",
		"trigger_data": map[string]any{"manual": true},
	}

	resp, err := app.Test(jsonRequest(http.MethodPost, "/workflows/"+workflow.ID+"/executions", payload))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var execution models.WorkflowExecution

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&execution))
	assert.Equal(t, models.ExecutionStatusPending, execution.Status)
	assert.Equal(t, workflow.ID, execution.WorkflowID)

	require.Len(t, jobBus.published, 1)
	job, ok := jobBus.published[0].(events.ExecutionRequested)
	require.True(t, ok)
	assert.Equal(t, execution.ID, job.ExecutionID)
	assert.Equal(t, 1, job.Attempt)
}

func TestAPI_CreateExecution_DraftWorkflowConflicts(t *testing.T) {
	persistence := memory.NewPersistence()

	workflow := testutil.CreateTestWorkflow([]*models.Node{testutil.CreateTestNode()}, nil)
	workflow.Status = models.WorkflowStatusDraft
	require.NoError(t, persistence.SaveWorkflow(t.Context(), workflow))

	app, jobBus := setupTestApp(persistence)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/workflows/"+workflow.ID+"/executions", map[string]any{}))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Empty(t, jobBus.published)
}

func TestAPI_CreateExecution_OnChainBlocksRequireAuthorization(t *testing.T) {
	persistence := memory.NewPersistence()

	tx := testutil.CreateTestNode(
		testutil.WithID("tx"),
		testutil.WithBlockType(models.BlockTypeTransaction),
		testutil.WithConfig(map[string]any{"rpc_url": "http://localhost", "to": "0xabc", "value": "0x1"}),
	)
	workflow := testutil.CreateTestWorkflow([]*models.Node{tx}, nil)
	require.NoError(t, persistence.SaveWorkflow(t.Context(), workflow))

	app, jobBus := setupTestApp(persistence)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/workflows/"+workflow.ID+"/executions", map[string]any{"user_id": "user-1"}))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, jobBus.published)

	// With a session key the run is accepted.
	payload := map[string]any{
		"user_id": "user-1",
		"authorization": map[string]any{
			"session_key": "sk-test",
			"delegator":   "0xdelegator",
		},
	}

	resp, err = app.Test(jsonRequest(http.MethodPost, "/workflows/"+workflow.ID+"/executions", payload))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Len(t, jobBus.published, 1)
}

func TestAPI_PauseAndResumeExecution(t *testing.T) {
	persistence := memory.NewPersistence()

	workflow := testutil.CreateTestWorkflow([]*models.Node{testutil.CreateTestNode()}, nil)
	require.NoError(t, persistence.SaveWorkflow(t.Context(), workflow))

	execution := testutil.CreateTestExecution(workflow.ID)
	execution.Status = models.ExecutionStatusRunning
	require.NoError(t, persistence.SaveExecution(t.Context(), execution))

	app, jobBus := setupTestApp(persistence)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/executions/"+execution.ID+"/pause", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	paused, err := persistence.PauseRequested(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.True(t, paused)

	// Resume is only valid from the paused status.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/executions/"+execution.ID+"/resume", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	require.NoError(t, persistence.UpdateExecutionStatus(t.Context(), execution.ID, models.ExecutionStatusPaused, ""))

	resp, err = app.Test(jsonRequest(http.MethodPost, "/executions/"+execution.ID+"/resume", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, jobBus.published, 1)

	// The resume moved the run back to pending, so the worker will pick
	// the fresh job up instead of treating it as a paused no-op.
	status, err := persistence.ExecutionStatus(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusPending, status)
}

func TestAPI_PauseExecution_TerminalConflicts(t *testing.T) {
	persistence := memory.NewPersistence()

	execution := testutil.CreateTestExecution("wf-1")
	execution.Status = models.ExecutionStatusCompleted
	require.NoError(t, persistence.SaveExecution(t.Context(), execution))

	app, _ := setupTestApp(persistence)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/executions/"+execution.ID+"/pause", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_CreateSchedule(t *testing.T) {
	persistence := memory.NewPersistence()

	workflow := testutil.CreateTestWorkflow([]*models.Node{testutil.CreateTestNode()}, nil)
	require.NoError(t, persistence.SaveWorkflow(t.Context(), workflow))

	app, _ := setupTestApp(persistence)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/workflows/"+workflow.ID+"/schedules", map[string]any{
		"cron_expression": "*/10 * * * *",
	}))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var schedule models.Schedule

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&schedule))
	assert.Equal(t, workflow.ID, schedule.WorkflowID)
	assert.True(t, schedule.Active)
	assert.False(t, schedule.NextDueAt.IsZero())
}

func TestAPI_CreateSchedule_InvalidCron(t *testing.T) {
	persistence := memory.NewPersistence()

	workflow := testutil.CreateTestWorkflow([]*models.Node{testutil.CreateTestNode()}, nil)
	require.NoError(t, persistence.SaveWorkflow(t.Context(), workflow))

	app, _ := setupTestApp(persistence)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/workflows/"+workflow.ID+"/schedules", map[string]any{
		"cron_expression": "not a cron",
	}))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_GetBlockTypes(t *testing.T) {
	app, _ := setupTestApp(memory.NewPersistence())

	resp, err := app.Test(jsonRequest(http.MethodGet, "/blocks", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		BlockTypes []struct {
			ID     string         `json:"id"`
			Name   string         `json:"name"`
			Schema map[string]any `json:"schema"`
		} `json:"block_types"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Len(t, payload.BlockTypes, 9)
}

func TestAPI_HealthCheck(t *testing.T) {
	app, _ := setupTestApp(memory.NewPersistence())

	resp, err := app.Test(jsonRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// Package web provides HTTP handlers and REST API endpoints for workflow
// and execution management.
package web

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/authz"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/eventbus"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/events"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/graph"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/persistence"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/registry"
)

type APIHandlers struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	validator   *validator.Validate
	registry    *registry.Registry
	jobBus      eventbus.EventPublisher
	authzCache  *authz.Cache
}

func NewAPIHandlers(
	logger *slog.Logger,
	persistence persistence.Persistence,
	validator *validator.Validate,
	registry *registry.Registry,
	jobBus eventbus.EventPublisher,
	authzCache *authz.Cache,
) *APIHandlers {
	return &APIHandlers{
		logger:      logger.With("module", "web"),
		persistence: persistence,
		validator:   validator,
		registry:    registry,
		jobBus:      jobBus,
		authzCache:  authzCache,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.persistence.Workflows(c.Context())
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.persistence.WorkflowByID(c.Context(), id)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var workflow models.Workflow

	if err := c.Bind().Body(&workflow); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if workflow.Status == "" {
		workflow.Status = models.WorkflowStatusDraft
	}

	if err := h.validator.Struct(&workflow); err != nil {
		return badRequest(c, err.Error())
	}

	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	for _, node := range workflow.Nodes {
		result, err := h.registry.ValidateConfig(node.BlockType, node.Config)
		if err != nil {
			return badRequest(c, "node "+node.ID+": "+err.Error())
		}

		if !result.Valid {
			return badRequest(c, "node "+node.ID+" has invalid config: "+result.Errors[0].Message)
		}
	}

	if err := h.persistence.SaveWorkflow(c.Context(), &workflow); err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.persistence.DeleteWorkflow(c.Context(), id); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ValidateWorkflow runs structural graph validation without executing
// anything.
func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.persistence.WorkflowByID(c.Context(), id)
	if err != nil {
		return handleError(c, err)
	}

	if err := graph.Validate(workflow.Nodes, workflow.Edges); err != nil {
		return c.JSON(fiber.Map{"valid": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"valid": true})
}

type createExecutionRequest struct {
	TriggerData   map[string]any        `json:"trigger_data"`
	UserID        string                `json:"user_id"`
	Authorization *models.Authorization `json:"authorization"`
}

// CreateExecution enqueues a run of a published workflow. Workflows with
// on-chain blocks require a session key authorization; the key is checked
// against the revocation cache before the job is published.
func (h *APIHandlers) CreateExecution(c fiber.Ctx) error {
	workflowID := c.Params("id")
	if workflowID == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req createExecutionRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	workflow, err := h.persistence.WorkflowByID(c.Context(), workflowID)
	if err != nil {
		return handleError(c, err)
	}

	if workflow.Status != models.WorkflowStatusPublished {
		return conflict(c, "only published workflows can be executed")
	}

	if err := graph.Validate(workflow.Nodes, workflow.Edges); err != nil {
		return handleError(c, err)
	}

	if needsAuthorization(workflow) {
		if req.Authorization == nil {
			return badRequest(c, "workflow contains on-chain blocks and requires a session key authorization")
		}

		if h.authzCache != nil {
			if err := h.authzCache.Check(c.Context(), req.Authorization); err != nil {
				return badRequest(c, err.Error())
			}

			if _, err := h.authzCache.RecordUsage(c.Context(), req.Authorization); err != nil {
				h.logger.ErrorContext(c.Context(), "Failed to record session key usage", "error", err)
			}
		}
	}

	execution := &models.WorkflowExecution{
		ID:            uuid.New().String(),
		WorkflowID:    workflow.ID,
		UserID:        req.UserID,
		Status:        models.ExecutionStatusPending,
		TriggerData:   req.TriggerData,
		Authorization: req.Authorization,
	}

	if err := h.persistence.SaveExecution(c.Context(), execution); err != nil {
		return handleError(c, err)
	}

	job := events.ExecutionRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionRequestedEvent, workflow.ID),
		ExecutionID: execution.ID,
		UserID:      req.UserID,
		TriggerData: req.TriggerData,
		Attempt:     1,
	}

	if err := h.jobBus.Publish(c.Context(), workflow.ID, job); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(execution)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	execution, err := h.persistence.ExecutionByID(c.Context(), id)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) GetNodeExecutions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	records, err := h.persistence.NodeExecutions(c.Context(), id)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(fiber.Map{"node_executions": records})
}

func (h *APIHandlers) GetExecutionLogs(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	entries, err := h.persistence.Logs(c.Context(), id)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(fiber.Map{"logs": entries})
}

// PauseExecution requests a cooperative pause. The running worker honors it
// at the next node boundary; nothing is interrupted mid-node.
func (h *APIHandlers) PauseExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	status, err := h.persistence.ExecutionStatus(c.Context(), id)
	if err != nil {
		return handleError(c, err)
	}

	if status.IsTerminal() {
		return conflict(c, "execution already "+string(status))
	}

	if err := h.persistence.RequestPause(c.Context(), id); err != nil {
		return handleError(c, err)
	}

	return c.JSON(fiber.Map{"status": "pause_requested"})
}

// ResumeExecution moves a paused execution back to pending and enqueues a
// fresh job. The worker skips completed nodes when it picks the job up
// again. Resume is the only path that revives a paused run: the worker
// treats paused jobs as no-ops, so a redelivered message cannot undo an
// operator's pause.
func (h *APIHandlers) ResumeExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	execution, err := h.persistence.ExecutionByID(c.Context(), id)
	if err != nil {
		return handleError(c, err)
	}

	// Pending is accepted too so a resume whose publish failed can be
	// retried after the status transition already went through.
	switch execution.Status {
	case models.ExecutionStatusPaused:
		if err := h.persistence.UpdateExecutionStatus(c.Context(), id, models.ExecutionStatusPending, ""); err != nil {
			return handleError(c, err)
		}
	case models.ExecutionStatusPending:
	default:
		return conflict(c, "only paused executions can be resumed, current status is "+string(execution.Status))
	}

	job := events.ExecutionRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionRequestedEvent, execution.WorkflowID),
		ExecutionID: execution.ID,
		UserID:      execution.UserID,
		TriggerData: execution.TriggerData,
		Attempt:     1,
	}

	if err := h.jobBus.Publish(c.Context(), execution.WorkflowID, job); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "resume_requested"})
}

type createScheduleRequest struct {
	CronExpression string `json:"cron_expression" validate:"required"`
}

// CreateSchedule attaches a cron schedule to a workflow.
func (h *APIHandlers) CreateSchedule(c fiber.Ctx) error {
	workflowID := c.Params("id")
	if workflowID == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req createScheduleRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	if _, err := h.persistence.WorkflowByID(c.Context(), workflowID); err != nil {
		return handleError(c, err)
	}

	schedule, err := models.NewSchedule(uuid.New().String(), workflowID, req.CronExpression)
	if err != nil {
		return badRequest(c, "invalid cron expression: "+err.Error())
	}

	if err := h.persistence.SaveSchedule(c.Context(), schedule); err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(schedule)
}

// GetBlockTypes lists the registered block factories with their schemas.
func (h *APIHandlers) GetBlockTypes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"block_types": h.registry.BlockSummaries()})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
			"time":   time.Now().UTC(),
		})
	}

	return c.JSON(fiber.Map{"status": "healthy", "time": time.Now().UTC()})
}

// needsAuthorization reports whether the workflow contains blocks that
// require a session key.
func needsAuthorization(workflow *models.Workflow) bool {
	for _, node := range workflow.Nodes {
		if node.Enabled && node.BlockType.RequiresAuthorization() {
			return true
		}
	}

	return false
}

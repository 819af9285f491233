package models

import "time"

// ExecutionStatus defines the possible states of a workflow execution.
// Completed and failed are terminal; paused is a re-enterable interruption
// point that a later dequeue of the same execution id resumes from.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusPaused    ExecutionStatus = "paused"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// IsTerminal reports whether no further state transition is allowed.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// WorkflowExecution is one invocation of a workflow graph, with its own
// status and result. Created when a run is enqueued; mutated only by the run
// controller.
type WorkflowExecution struct {
	ID            string          `json:"id"          validate:"required"`
	WorkflowID    string          `json:"workflow_id" validate:"required"`
	UserID        string          `json:"user_id"`
	Status        ExecutionStatus `json:"status"      validate:"required"`
	TriggerData   map[string]any  `json:"trigger_data,omitempty"`
	Result        map[string]any  `json:"result,omitempty"`
	Error         string          `json:"error,omitempty"`
	Authorization *Authorization  `json:"authorization,omitempty"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// NodeExecutionStatus defines the possible states of a single node execution.
type NodeExecutionStatus string

const (
	NodeExecutionStatusPending   NodeExecutionStatus = "pending"
	NodeExecutionStatusRunning   NodeExecutionStatus = "running"
	NodeExecutionStatusCompleted NodeExecutionStatus = "completed"
	NodeExecutionStatusFailed    NodeExecutionStatus = "failed"
)

// NodeExecution records the lifecycle of one (execution, node) pair. There is
// at most one record per pair; retried runs upsert instead of duplicating.
type NodeExecution struct {
	ExecutionID string              `json:"execution_id" validate:"required"`
	NodeID      string              `json:"node_id"      validate:"required"`
	Status      NodeExecutionStatus `json:"status"`
	Output      any                 `json:"output,omitempty"`
	Error       string              `json:"error,omitempty"`
	StartedAt   time.Time           `json:"started_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

// LogLevel classifies execution log entries.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ExecutionLog is one operator-facing log line attached to a run, optionally
// scoped to a node. The run's terminal error field keeps only the short
// cause; these entries retain the detail.
type ExecutionLog struct {
	ExecutionID string    `json:"execution_id"`
	NodeID      string    `json:"node_id,omitempty"`
	Level       LogLevel  `json:"level"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

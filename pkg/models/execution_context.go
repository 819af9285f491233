package models

import "log/slog"

// ExecutionContext carries everything a block handler may read during one
// node execution: trigger data, workflow variables, the outputs of upstream
// nodes collected so far, and the opaque authorization object for
// blockchain-class blocks. Handlers never mutate it.
type ExecutionContext struct {
	ExecutionID   string         `json:"execution_id"`
	WorkflowID    string         `json:"workflow_id"`
	UserID        string         `json:"user_id,omitempty"`
	TriggerData   map[string]any `json:"trigger_data,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	NodeOutputs   map[string]any `json:"node_outputs,omitempty"`
	Authorization *Authorization `json:"authorization,omitempty"`

	Logger *slog.Logger `json:"-"`
}

// WithLogger returns a shallow copy using the given logger.
func (c ExecutionContext) WithLogger(logger *slog.Logger) *ExecutionContext {
	c.Logger = logger

	return &c
}

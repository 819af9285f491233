// Package engine executes workflow graphs: it validates and orders the
// graph, runs each node through its registered block handler, and drives
// the execution state machine across pause, resume, and failure.
package engine

import (
	"errors"
	"fmt"
)

// ErrExecutionPaused signals that a run stopped cooperatively at a node
// boundary because a pause was requested. It is not a failure: the
// execution stays resumable.
var ErrExecutionPaused = errors.New("execution paused")

// DispatchError indicates a node could not be dispatched to a handler:
// the block type is unregistered or handler construction rejected the
// node configuration. Dispatch failures happen before the handler runs.
type DispatchError struct {
	NodeID    string
	BlockType string
	Err       error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("failed to dispatch node %s (%s): %v", e.NodeID, e.BlockType, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// HandlerError wraps a failure returned by a block handler. The underlying
// error text is preserved untouched so the run record carries exactly what
// the handler reported. Timeout is set when the node exceeded its block
// class budget.
type HandlerError struct {
	NodeID  string
	Timeout bool
	Err     error
}

func (e *HandlerError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("node %s timed out: %v", e.NodeID, e.Err)
	}

	return fmt.Sprintf("node %s failed: %v", e.NodeID, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// IsNodeTimeout checks whether an error indicates a node exceeded its
// execution budget.
func IsNodeTimeout(err error) bool {
	var handlerErr *HandlerError

	return errors.As(err, &handlerErr) && handlerErr.Timeout
}

// Package condition implements the condition block: a sandboxed boolean
// expression over the execution context.
package condition

import (
	"context"
	"errors"
	"fmt"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/sandbox"
)

// Handler executes condition nodes.
type Handler struct {
	nodeID      string
	expression  string
	interpreter *sandbox.Interpreter
}

// NewHandler creates a condition handler from node configuration.
func NewHandler(node *models.Node) (*Handler, error) {
	expression, ok := node.Config["expression"].(string)
	if !ok || expression == "" {
		return nil, errors.New("missing required field 'expression'")
	}

	return &Handler{
		nodeID:      node.ID,
		expression:  expression,
		interpreter: sandbox.New(sandbox.DefaultBudget),
	}, nil
}

// Execute evaluates the expression and emits the boolean outcome. Downstream
// nodes read it as {{.nodes.<id>.result}}.
func (h *Handler) Execute(ctx context.Context, execCtx models.ExecutionContext) (any, error) {
	result, err := h.interpreter.EvaluateBool(ctx, h.expression, blocks.ExpressionData(execCtx))
	if err != nil {
		return nil, fmt.Errorf("condition evaluation failed: %w", err)
	}

	return map[string]any{
		"result":     result,
		"expression": h.expression,
	}, nil
}

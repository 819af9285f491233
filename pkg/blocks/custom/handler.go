// Package custom implements the custom script block: a user-supplied
// expression evaluated by the sandboxed interpreter with a configurable
// wall-clock budget and no ambient I/O access.
package custom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/sandbox"
)

// Handler executes custom script nodes.
type Handler struct {
	nodeID      string
	script      string
	interpreter *sandbox.Interpreter
}

// NewHandler creates a custom handler from node configuration. The optional
// budget_ms field bounds evaluation; the sandbox caps it regardless.
func NewHandler(node *models.Node) (*Handler, error) {
	script, ok := node.Config["script"].(string)
	if !ok || script == "" {
		return nil, errors.New("missing required field 'script'")
	}

	budget := sandbox.DefaultBudget
	if ms, ok := node.Config["budget_ms"].(float64); ok && ms > 0 {
		budget = time.Duration(ms) * time.Millisecond
	}

	return &Handler{
		nodeID:      node.ID,
		script:      script,
		interpreter: sandbox.New(budget),
	}, nil
}

// Execute evaluates the script as a pure function over the context data.
func (h *Handler) Execute(ctx context.Context, execCtx models.ExecutionContext) (any, error) {
	result, err := h.interpreter.Evaluate(ctx, h.script, blocks.ExpressionData(execCtx))
	if err != nil {
		return nil, fmt.Errorf("custom script failed: %w", err)
	}

	return map[string]any{"result": result}, nil
}

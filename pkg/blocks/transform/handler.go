// Package transform implements the data transformation block: it renders a
// template expression against the execution context and emits the result.
package transform

import (
	"context"
	"errors"
	"fmt"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/template"
)

// Handler executes transform nodes.
type Handler struct {
	nodeID     string
	expression string
}

// NewHandler creates a transform handler from node configuration.
func NewHandler(node *models.Node) (*Handler, error) {
	expression, ok := node.Config["expression"].(string)
	if !ok || expression == "" {
		return nil, errors.New("missing required field 'expression'")
	}

	return &Handler{nodeID: node.ID, expression: expression}, nil
}

// Execute renders the expression. Upstream outputs are reachable as
// {{.nodes.<id>...}}.
func (h *Handler) Execute(_ context.Context, execCtx models.ExecutionContext) (any, error) {
	result, err := template.RenderWithContext(h.expression, blocks.TemplateData(execCtx))
	if err != nil {
		return nil, fmt.Errorf("transformation failed: %w", err)
	}

	return map[string]any{"result": result}, nil
}

package condition

import (
	"context"
	"time"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
)

// Factory creates condition handlers.
type Factory struct{}

// NewFactory creates a new factory instance.
func NewFactory() blocks.Factory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, node *models.Node) (blocks.Handler, error) {
	return NewHandler(node)
}

func (f *Factory) ID() models.BlockType {
	return models.BlockTypeCondition
}

func (f *Factory) Name() string {
	return "Condition"
}

func (f *Factory) Description() string {
	return "Evaluates a boolean expression against trigger data, variables, and upstream node outputs"
}

func (f *Factory) Timeout() time.Duration {
	return blocks.TimeoutInProcess
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"description": "Boolean expression, e.g. nodes.price.result > 100 && variables.enabled",
			},
		},
		"required": []string{"expression"},
	}
}

package custom

import (
	"context"
	"time"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
)

// Factory creates custom script handlers.
type Factory struct{}

// NewFactory creates a new factory instance.
func NewFactory() blocks.Factory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, node *models.Node) (blocks.Handler, error) {
	return NewHandler(node)
}

func (f *Factory) ID() models.BlockType {
	return models.BlockTypeCustom
}

func (f *Factory) Name() string {
	return "Custom Script"
}

func (f *Factory) Description() string {
	return "Runs a user-supplied expression in a sandbox with a hard time budget and no I/O access"
}

func (f *Factory) Timeout() time.Duration {
	return blocks.TimeoutInProcess
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"script": map[string]any{
				"type":        "string",
				"description": "Expression evaluated against the execution context data",
			},
			"budget_ms": map[string]any{
				"type":        "number",
				"description": "Wall-clock budget in milliseconds",
			},
		},
		"required": []string{"script"},
	}
}

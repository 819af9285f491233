package webhook

import (
	"context"
	"time"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
)

// Factory creates webhook handlers.
type Factory struct{}

// NewFactory creates a new factory instance.
func NewFactory() blocks.Factory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, node *models.Node) (blocks.Handler, error) {
	return NewHandler(node)
}

func (f *Factory) ID() models.BlockType {
	return models.BlockTypeWebhook
}

func (f *Factory) Name() string {
	return "Webhook"
}

func (f *Factory) Description() string {
	return "Sends an HTTP request to an external endpoint with a templated payload"
}

func (f *Factory) Timeout() time.Duration {
	return blocks.TimeoutNetwork
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Target URL, templated",
			},
			"method": map[string]any{
				"type": "string",
				"enum": []any{"GET", "POST", "PUT", "PATCH", "DELETE"},
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "Request headers, values templated",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Request body, templated",
			},
		},
		"required": []string{"url"},
	}
}

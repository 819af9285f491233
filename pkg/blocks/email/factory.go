package email

import (
	"context"
	"time"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
)

// Factory creates email handlers.
type Factory struct{}

// NewFactory creates a new factory instance.
func NewFactory() blocks.Factory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, node *models.Node) (blocks.Handler, error) {
	return NewHandler(node)
}

func (f *Factory) ID() models.BlockType {
	return models.BlockTypeEmail
}

func (f *Factory) Name() string {
	return "Email"
}

func (f *Factory) Description() string {
	return "Sends an email with templated subject and body over SMTP"
}

func (f *Factory) Timeout() time.Duration {
	return blocks.TimeoutNetwork
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"host":     map[string]any{"type": "string"},
			"port":     map[string]any{"type": "number"},
			"from":     map[string]any{"type": "string"},
			"to":       map[string]any{"type": []any{"string", "array"}},
			"subject":  map[string]any{"type": "string", "description": "Templated subject line"},
			"body":     map[string]any{"type": "string", "description": "Templated message body"},
			"username": map[string]any{"type": "string"},
			"password": map[string]any{"type": "string"},
		},
		"required": []string{"host", "from", "to"},
	}
}

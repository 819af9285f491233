package transaction

import (
	"context"
	"time"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
)

// Factory creates transaction handlers.
type Factory struct{}

// NewFactory creates a new transaction block factory.
func NewFactory() blocks.Factory {
	return &Factory{}
}

// Create creates a transaction handler for the given node.
func (f *Factory) Create(ctx context.Context, node *models.Node) (blocks.Handler, error) {
	return NewHandler(node)
}

// ID returns the block type this factory creates handlers for.
func (f *Factory) ID() models.BlockType {
	return models.BlockTypeTransaction
}

// Name returns the human-readable name of the block.
func (f *Factory) Name() string {
	return "Send Transaction"
}

// Description explains what the block does.
func (f *Factory) Description() string {
	return "Submits a transaction through a delegated session key via an EVM-compatible JSON-RPC endpoint."
}

// Schema returns the JSON schema for transaction node configuration.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"rpc_url": map[string]any{
				"type":        "string",
				"description": "JSON-RPC endpoint URL",
			},
			"to": map[string]any{
				"type":        "string",
				"description": "Recipient address, supports templating",
			},
			"value": map[string]any{
				"type":        "string",
				"description": "Amount in wei, supports templating",
			},
			"data": map[string]any{
				"type":        "string",
				"description": "Optional hex-encoded call data",
			},
		},
		"required": []string{"rpc_url", "to", "value"},
	}
}

// Timeout returns the execution budget for transaction nodes.
func (f *Factory) Timeout() time.Duration {
	return blocks.TimeoutOnChain
}

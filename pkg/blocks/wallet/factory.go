package wallet

import (
	"context"
	"time"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
)

// Factory creates wallet handlers.
type Factory struct{}

// NewFactory creates a new wallet block factory.
func NewFactory() blocks.Factory {
	return &Factory{}
}

// Create creates a wallet handler for the given node.
func (f *Factory) Create(ctx context.Context, node *models.Node) (blocks.Handler, error) {
	return NewHandler(node)
}

// ID returns the block type this factory creates handlers for.
func (f *Factory) ID() models.BlockType {
	return models.BlockTypeWallet
}

// Name returns the human-readable name of the block.
func (f *Factory) Name() string {
	return "Wallet Balance"
}

// Description explains what the block does.
func (f *Factory) Description() string {
	return "Reads the native token balance of an address from an EVM-compatible JSON-RPC endpoint."
}

// Schema returns the JSON schema for wallet node configuration.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"rpc_url": map[string]any{
				"type":        "string",
				"description": "JSON-RPC endpoint URL",
			},
			"address": map[string]any{
				"type":        "string",
				"description": "Account address to query, supports templating",
			},
		},
		"required": []string{"rpc_url", "address"},
	}
}

// Timeout returns the execution budget for wallet nodes.
func (f *Factory) Timeout() time.Duration {
	return blocks.TimeoutOnChain
}

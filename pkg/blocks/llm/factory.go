package llm

import (
	"context"
	"time"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
)

// Factory creates llm handlers.
type Factory struct{}

// NewFactory creates a new llm block factory.
func NewFactory() blocks.Factory {
	return &Factory{}
}

// Create creates an llm handler for the given node.
func (f *Factory) Create(ctx context.Context, node *models.Node) (blocks.Handler, error) {
	return NewHandler(node)
}

// ID returns the block type this factory creates handlers for.
func (f *Factory) ID() models.BlockType {
	return models.BlockTypeLLM
}

// Name returns the human-readable name of the block.
func (f *Factory) Name() string {
	return "LLM Prompt"
}

// Description explains what the block does.
func (f *Factory) Description() string {
	return "Sends a templated prompt to an OpenAI-compatible chat completion endpoint and captures the generated text."
}

// Schema returns the JSON schema for llm node configuration.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"base_url": map[string]any{
				"type":        "string",
				"description": "Base URL of the OpenAI-compatible API, e.g. https://api.openai.com/v1",
			},
			"model": map[string]any{
				"type":        "string",
				"description": "Model identifier to request",
			},
			"prompt": map[string]any{
				"type":        "string",
				"description": "User prompt, supports templating",
			},
			"system": map[string]any{
				"type":        "string",
				"description": "Optional system prompt",
			},
			"temperature": map[string]any{
				"type":        "number",
				"description": "Sampling temperature",
				"default":     0.2,
			},
			"max_tokens": map[string]any{
				"type":        "integer",
				"description": "Maximum completion tokens, 0 for provider default",
			},
		},
		"required": []string{"base_url", "model", "prompt"},
	}
}

// Timeout returns the execution budget for llm nodes.
func (f *Factory) Timeout() time.Duration {
	return blocks.TimeoutLLM
}

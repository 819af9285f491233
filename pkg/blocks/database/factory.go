package database

import (
	"context"
	"time"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
)

// Factory creates database handlers.
type Factory struct{}

// NewFactory creates a new factory instance.
func NewFactory() blocks.Factory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, node *models.Node) (blocks.Handler, error) {
	return NewHandler(node)
}

func (f *Factory) ID() models.BlockType {
	return models.BlockTypeDatabase
}

func (f *Factory) Name() string {
	return "Database"
}

func (f *Factory) Description() string {
	return "Runs a parameterized SQL statement against a PostgreSQL database"
}

func (f *Factory) Timeout() time.Duration {
	return blocks.TimeoutNetwork
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"dsn":   map[string]any{"type": "string", "description": "PostgreSQL connection string"},
			"query": map[string]any{"type": "string", "description": "SQL statement with $1-style placeholders"},
			"args": map[string]any{
				"type":        "array",
				"description": "Statement arguments; string entries are templated",
			},
		},
		"required": []string{"dsn", "query"},
	}
}

// Package registry maps block kind discriminators to handler factories.
// Factories are registered once at process start; dispatch of an unknown
// kind is a hard failure for the node, never a skip.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
)

// Registry holds the block factories available to this process.
type Registry struct {
	logger    *slog.Logger
	factories map[models.BlockType]blocks.Factory
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[models.BlockType]blocks.Factory),
	}
}

// RegisterBlock registers a factory under its own kind discriminator.
// Registering the same kind twice replaces the earlier factory.
func (r *Registry) RegisterBlock(factory blocks.Factory) {
	r.factories[factory.ID()] = factory
}

// Factory returns the factory for the given block kind.
func (r *Registry) Factory(blockType models.BlockType) (blocks.Factory, error) {
	factory, ok := r.factories[blockType]
	if !ok {
		return nil, fmt.Errorf("block type '%s' not registered", blockType)
	}

	return factory, nil
}

// CreateHandler builds a handler for the node's block kind, bound to the
// node's configuration.
func (r *Registry) CreateHandler(ctx context.Context, node *models.Node) (blocks.Handler, error) {
	factory, err := r.Factory(node.BlockType)
	if err != nil {
		return nil, err
	}

	return factory.Create(ctx, node)
}

// BlockTypes returns the registered kinds, for discovery endpoints.
func (r *Registry) BlockTypes() []models.BlockType {
	types := make([]models.BlockType, 0, len(r.factories))
	for blockType := range r.factories {
		types = append(types, blockType)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// BlockSummary describes a registered block for discovery endpoints.
type BlockSummary struct {
	ID          models.BlockType `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Schema      map[string]any   `json:"schema"`
}

// BlockSummaries returns the registered factories with their metadata and
// config schemas, sorted by kind.
func (r *Registry) BlockSummaries() []BlockSummary {
	summaries := make([]BlockSummary, 0, len(r.factories))

	for _, blockType := range r.BlockTypes() {
		factory := r.factories[blockType]
		summaries = append(summaries, BlockSummary{
			ID:          factory.ID(),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	return summaries
}

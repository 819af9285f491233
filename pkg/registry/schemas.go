package registry

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
)

// ValidateConfig statically checks a node configuration against the schema
// published by its block factory. This is the authoring-time check; the
// runtime path revalidates on Create anyway.
func (r *Registry) ValidateConfig(blockType models.BlockType, config map[string]any) (*models.ValidationResult, error) {
	factory, err := r.Factory(blockType)
	if err != nil {
		return nil, err
	}

	schemaLoader := gojsonschema.NewGoLoader(factory.Schema())
	documentLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("failed to validate config for block type '%s': %w", blockType, err)
	}

	validation := &models.ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		validation.Errors = append(validation.Errors, models.ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}

	return validation, nil
}

package registry_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks/condition"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks/transform"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/registry"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/testutil"
)

func newRegistry() *registry.Registry {
	reg := registry.NewRegistry(slog.Default())
	reg.RegisterBlock(transform.NewFactory())
	reg.RegisterBlock(condition.NewFactory())

	return reg
}

func TestFactory_UnregisteredBlockType(t *testing.T) {
	reg := registry.NewRegistry(slog.Default())

	_, err := reg.Factory(models.BlockTypeTransform)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestCreateHandler(t *testing.T) {
	reg := newRegistry()

	node := testutil.CreateTestNode(testutil.WithConfig(map[string]any{"expression": "{{.vars.env}}"}))

	handler, err := reg.CreateHandler(t.Context(), node)
	require.NoError(t, err)
	assert.NotNil(t, handler)
}

func TestBlockTypesAreSorted(t *testing.T) {
	reg := newRegistry()

	types := reg.BlockTypes()
	assert.Equal(t, []models.BlockType{models.BlockTypeCondition, models.BlockTypeTransform}, types)
}

func TestBlockSummaries(t *testing.T) {
	reg := newRegistry()

	summaries := reg.BlockSummaries()
	require.Len(t, summaries, 2)

	for _, summary := range summaries {
		assert.NotEmpty(t, summary.Name)
		assert.NotEmpty(t, summary.Description)
		assert.NotNil(t, summary.Schema)
	}
}

func TestValidateConfig(t *testing.T) {
	reg := newRegistry()

	valid, err := reg.ValidateConfig(models.BlockTypeTransform, map[string]any{"expression": "ok"})
	require.NoError(t, err)
	assert.True(t, valid.Valid)
	assert.Empty(t, valid.Errors)

	// Missing the required expression field.
	invalid, err := reg.ValidateConfig(models.BlockTypeTransform, map[string]any{})
	require.NoError(t, err)
	assert.False(t, invalid.Valid)
	require.NotEmpty(t, invalid.Errors)
	assert.NotEmpty(t, invalid.Errors[0].Message)
}

func TestValidateConfig_UnregisteredBlockType(t *testing.T) {
	reg := newRegistry()

	_, err := reg.ValidateConfig(models.BlockTypeWebhook, map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

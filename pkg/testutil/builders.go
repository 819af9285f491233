// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/google/uuid"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
)

// CreateTestNode creates a test node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:        uuid.New().String(),
		BlockType: models.BlockTypeTransform,
		Name:      "Test Node",
		Config:    map[string]any{"expression": "ok"},
		Enabled:   true,
		PositionX: 100,
		PositionY: 200,
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node ID.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// WithBlockType sets the node block type.
func WithBlockType(blockType models.BlockType) func(*models.Node) {
	return func(n *models.Node) {
		n.BlockType = blockType
	}
}

// WithConfig sets the node configuration.
func WithConfig(config map[string]any) func(*models.Node) {
	return func(n *models.Node) {
		n.Config = config
	}
}

// WithEnabled sets the node enabled status.
func WithEnabled(enabled bool) func(*models.Node) {
	return func(n *models.Node) {
		n.Enabled = enabled
	}
}

// Edge creates an edge between two node ids.
func Edge(source, target string) *models.Edge {
	return &models.Edge{
		ID:     source + "->" + target,
		Source: source,
		Target: target,
	}
}

// CreateTestWorkflow creates a published workflow with the given nodes and edges.
func CreateTestWorkflow(nodes []*models.Node, edges []*models.Edge) *models.Workflow {
	return &models.Workflow{
		ID:          uuid.New().String(),
		Name:        "Test Workflow",
		Description: "A workflow for testing",
		Status:      models.WorkflowStatusPublished,
		Owner:       "test-user",
		Variables:   map[string]any{"env": "test"},
		Nodes:       nodes,
		Edges:       edges,
	}
}

// CreateTestExecution creates a pending execution for the given workflow.
func CreateTestExecution(workflowID string) *models.WorkflowExecution {
	return &models.WorkflowExecution{
		ID:         uuid.New().String(),
		WorkflowID: workflowID,
		UserID:     "test-user",
		Status:     models.ExecutionStatusPending,
	}
}

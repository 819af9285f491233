// Package models defines the core domain models for block-based workflow automation.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow definition.
type WorkflowStatus string

const (
	WorkflowStatusDraft     WorkflowStatus = "draft"     // Editable, not executable
	WorkflowStatusPublished WorkflowStatus = "published" // Executable
	WorkflowStatusArchived  WorkflowStatus = "archived"  // Historical, not executable
)

// Workflow represents a directed graph of typed blocks. The execution engine
// treats it as an immutable snapshot: it is read once per run and never mutated.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description"`
	Status      WorkflowStatus `json:"status"      validate:"required"`
	Nodes       []*Node        `json:"nodes"`
	Edges       []*Edge        `json:"edges"`
	Variables   map[string]any `json:"variables,omitempty"`
	Owner       string         `json:"owner"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty"`
}

// NodeByID returns the node with the given id, if present.
func (w *Workflow) NodeByID(id string) (*Node, bool) {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node, true
		}
	}

	return nil, false
}

// Node represents one unit of work in a workflow graph, tagged with a block
// kind and configuration.
type Node struct {
	ID        string         `json:"id"         validate:"required"`
	BlockType BlockType      `json:"block_type" validate:"required"`
	Name      string         `json:"name"`
	Config    map[string]any `json:"config"`
	Enabled   bool           `json:"enabled"`
	PositionX int            `json:"position_x"`
	PositionY int            `json:"position_y"`
}

// Edge connects two nodes by id. Both endpoints must reference nodes that
// exist in the owning workflow.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

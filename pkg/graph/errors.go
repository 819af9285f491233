// Package graph provides pure validation and deterministic ordering of
// workflow graphs. Nothing in this package performs I/O.
package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies graph validation failures.
type ErrorKind string

const (
	ErrorKindCycle        ErrorKind = "cycle"
	ErrorKindDanglingEdge ErrorKind = "dangling_edge"
	ErrorKindOrphan       ErrorKind = "orphan"
	ErrorKindUnordered    ErrorKind = "unordered"
	ErrorKindDuplicateID  ErrorKind = "duplicate_id"
)

// Error reports why a graph is not an executable plan. NodeIDs names the
// participating nodes: the members of a detected cycle, the endpoints of a
// dangling edge, or the orphaned node.
type Error struct {
	Kind    ErrorKind
	NodeIDs []string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrorKindCycle:
		return fmt.Sprintf("workflow graph contains a cycle involving nodes [%s]", strings.Join(e.NodeIDs, ", "))
	case ErrorKindDanglingEdge:
		return fmt.Sprintf("workflow graph edge references unknown node %s", strings.Join(e.NodeIDs, " -> "))
	case ErrorKindOrphan:
		return fmt.Sprintf("workflow graph node %s is unreachable and leads nowhere", strings.Join(e.NodeIDs, ", "))
	case ErrorKindUnordered:
		return "workflow graph could not be fully ordered"
	case ErrorKindDuplicateID:
		return fmt.Sprintf("workflow graph contains duplicate node id %s", strings.Join(e.NodeIDs, ", "))
	default:
		return "invalid workflow graph"
	}
}

// IsGraphError reports whether err is a graph validation error.
func IsGraphError(err error) bool {
	var target *Error

	return errors.As(err, &target)
}

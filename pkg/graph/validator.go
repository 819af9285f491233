package graph

import (
	"sort"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
)

// Validate checks that (nodes, edges) form an executable plan. It never
// mutates its input and reports the first failure found, in a fixed order:
// duplicate node ids, dangling edges, cycles, orphans.
//
// Orphan policy: any node with in-degree 0 is a valid entry point. A node
// with in-degree 0 and out-degree 0 is an orphan unless it is the only node
// in the graph. A graph with zero nodes is vacuously valid.
func Validate(nodes []*models.Node, edges []*models.Edge) error {
	if len(nodes) == 0 {
		return nil
	}

	index := make(map[string]*models.Node, len(nodes))
	for _, node := range nodes {
		if _, seen := index[node.ID]; seen {
			return &Error{Kind: ErrorKindDuplicateID, NodeIDs: []string{node.ID}}
		}

		index[node.ID] = node
	}

	adjacency := make(map[string][]string, len(nodes))
	inDegree := make(map[string]int, len(nodes))
	outDegree := make(map[string]int, len(nodes))

	for _, edge := range edges {
		if _, ok := index[edge.Source]; !ok {
			return &Error{Kind: ErrorKindDanglingEdge, NodeIDs: []string{edge.Source, edge.Target}}
		}

		if _, ok := index[edge.Target]; !ok {
			return &Error{Kind: ErrorKindDanglingEdge, NodeIDs: []string{edge.Source, edge.Target}}
		}

		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
		inDegree[edge.Target]++
		outDegree[edge.Source]++
	}

	if cycle := findCycle(nodes, adjacency); len(cycle) > 0 {
		return &Error{Kind: ErrorKindCycle, NodeIDs: cycle}
	}

	if len(nodes) > 1 {
		for _, node := range nodes {
			if inDegree[node.ID] == 0 && outDegree[node.ID] == 0 {
				return &Error{Kind: ErrorKindOrphan, NodeIDs: []string{node.ID}}
			}
		}
	}

	return nil
}

const (
	colorWhite = iota // unvisited
	colorGray         // on the current DFS path
	colorBlack        // fully explored
)

// findCycle runs DFS coloring over the graph and returns the node ids on the
// first back-edge cycle found, sorted for stable reporting. Nodes are visited
// in declaration order so detection is deterministic.
func findCycle(nodes []*models.Node, adjacency map[string][]string) []string {
	colors := make(map[string]int, len(nodes))
	stack := make([]string, 0, len(nodes))

	var cycle []string

	var visit func(id string) bool

	visit = func(id string) bool {
		colors[id] = colorGray
		stack = append(stack, id)

		for _, next := range adjacency[id] {
			switch colors[next] {
			case colorGray:
				// Back edge: the cycle is the stack suffix starting at next.
				for i := len(stack) - 1; i >= 0; i-- {
					cycle = append(cycle, stack[i])
					if stack[i] == next {
						break
					}
				}

				return true
			case colorWhite:
				if visit(next) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		colors[id] = colorBlack

		return false
	}

	for _, node := range nodes {
		if colors[node.ID] == colorWhite && visit(node.ID) {
			sort.Strings(cycle)

			return cycle
		}
	}

	return nil
}

package graph

import "github.com/zzyra-io/zzyra-sei-sub011/pkg/models"

// Sort returns the nodes in a deterministic topological order using Kahn's
// algorithm. When several nodes are ready at once, the one that appears
// first in the original nodes slice goes first, so two calls over the same
// graph always produce the identical ordering.
//
// Sort expects a graph that already passed Validate; if a cycle slipped
// through it returns an unordered Error rather than a partial plan.
func Sort(nodes []*models.Node, edges []*models.Edge) ([]*models.Node, error) {
	if len(nodes) == 0 {
		return nil, nil
	}

	position := make(map[string]int, len(nodes))
	for i, node := range nodes {
		position[node.ID] = i
	}

	adjacency := make(map[string][]string, len(nodes))
	inDegree := make(map[string]int, len(nodes))

	for _, edge := range edges {
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
		inDegree[edge.Target]++
	}

	// ready holds the ids of in-degree-0 nodes, kept in original declaration
	// order. Scanning for the minimum position keeps the tie-break exact
	// without a heap; graphs here are small.
	ready := make([]string, 0, len(nodes))
	for _, node := range nodes {
		if inDegree[node.ID] == 0 {
			ready = append(ready, node.ID)
		}
	}

	ordered := make([]*models.Node, 0, len(nodes))

	for len(ready) > 0 {
		best := 0
		for i := 1; i < len(ready); i++ {
			if position[ready[i]] < position[ready[best]] {
				best = i
			}
		}

		id := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		ordered = append(ordered, nodes[position[id]])

		for _, next := range adjacency[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(ordered) != len(nodes) {
		return nil, &Error{Kind: ErrorKindUnordered}
	}

	return ordered, nil
}

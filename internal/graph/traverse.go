package graph

import (
	"fmt"

	"github.com/asifhussain60/cortex-kg/internal/store"
)

// Traversal is the result of a bounded breadth-first walk: every reached
// pattern exactly once, the edges followed, and the shortest-hop path from
// the start to each node.
type Traversal struct {
	Nodes []store.Pattern     `json:"nodes"`
	Edges []store.Edge        `json:"edges"`
	Paths map[string][]string `json:"paths"`
}

// Traverse walks outgoing edges from start up to maxDepth hops, optionally
// restricted to a set of relationship types. Cycles are tolerated: a node
// already reached is never revisited, so the path recorded for each node is
// its shortest in hops. Returns nil when the start pattern does not exist.
func (g *Graph) Traverse(start string, maxDepth int, relTypes []string) (*Traversal, error) {
	if maxDepth < 0 {
		return nil, &store.ValidationError{Field: "max_depth", Reason: fmt.Sprintf("%d is negative", maxDepth)}
	}

	root, err := g.db.PeekPattern(start)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, nil
	}

	result := &Traversal{
		Nodes: []store.Pattern{*root},
		Paths: map[string][]string{start: {start}},
	}
	visited := map[string]bool{start: true}
	frontier := []string{start}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			edges, err := g.db.OutgoingEdges(id, relTypes)
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				result.Edges = append(result.Edges, e)
				if visited[e.To] {
					continue
				}
				visited[e.To] = true

				node, err := g.db.PeekPattern(e.To)
				if err != nil {
					return nil, err
				}
				if node == nil {
					// Endpoint deleted mid-walk; cascade removes the edge
					// momentarily, skip it.
					visited[e.To] = false
					result.Edges = result.Edges[:len(result.Edges)-1]
					continue
				}

				path := append(append([]string{}, result.Paths[id]...), e.To)
				result.Paths[e.To] = path
				result.Nodes = append(result.Nodes, *node)
				next = append(next, e.To)
			}
		}
		frontier = next
	}

	return result, nil
}

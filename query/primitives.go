// Package query exposes the restricted query surface over a read-only CPG:
// five primitives, nothing else. All results are sequences with a fixed,
// reproducible order.
package query

import (
	"github.com/helixlabs/codeprism/cpg"
)

// maxReachabilityDepth bounds reachable-within traversals.
const maxReachabilityDepth = 100

// FindNodes returns all nodes of a kind, in node insertion order.
func FindNodes(g *cpg.Graph, kind cpg.NodeKind) []cpg.NodeID {
	return g.NodesOfKind(kind)
}

// FollowEdge returns the targets of outgoing edges of a kind from a node,
// in edge insertion order.
func FollowEdge(g *cpg.Graph, from cpg.NodeID, kind cpg.EdgeKind) []cpg.NodeID {
	var out []cpg.NodeID
	for _, e := range g.EdgesFrom(from) {
		if e.Kind == kind {
			out = append(out, e.To)
		}
	}
	return out
}

// Filter returns the subset of nodes matching the kind, preserving input
// order. A nil kind passes everything through.
func Filter(g *cpg.Graph, nodes []cpg.NodeID, kind *cpg.NodeKind) []cpg.NodeID {
	if kind == nil {
		return nodes
	}
	var out []cpg.NodeID
	for _, id := range nodes {
		if n, ok := g.Node(id); ok && n.Kind == *kind {
			out = append(out, id)
		}
	}
	return out
}

// Intersect returns the elements of a that also appear in b, in a's order.
func Intersect(a, b []cpg.NodeID) []cpg.NodeID {
	inB := make(map[cpg.NodeID]bool, len(b))
	for _, id := range b {
		inB[id] = true
	}
	var out []cpg.NodeID
	for _, id := range a {
		if inB[id] {
			out = append(out, id)
		}
	}
	return out
}

// ReachableWithin returns all nodes reachable from a node via outgoing
// edges within min(maxDepth, 100) hops, in BFS first-seen order. The start
// node is included.
func ReachableWithin(g *cpg.Graph, from cpg.NodeID, maxDepth int) []cpg.NodeID {
	limit := maxDepth
	if limit > maxReachabilityDepth {
		limit = maxReachabilityDepth
	}

	type entry struct {
		node  cpg.NodeID
		depth int
	}
	var reachable []cpg.NodeID
	visited := map[cpg.NodeID]bool{from: true}
	queue := []entry{{node: from, depth: 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		reachable = append(reachable, current.node)

		if current.depth >= limit {
			continue
		}
		for _, e := range g.EdgesFrom(current.node) {
			if !visited[e.To] {
				visited[e.To] = true
				queue = append(queue, entry{node: e.To, depth: current.depth + 1})
			}
		}
	}
	return reachable
}

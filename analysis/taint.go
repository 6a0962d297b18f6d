package analysis

import (
	"github.com/helixlabs/codeprism/core"
	"github.com/helixlabs/codeprism/cpg"
)

// maxTaintDepth bounds taint propagation.
const maxTaintDepth = 50

// SourceKind tags a taint source.
type SourceKind int

const (
	SourceParameter SourceKind = iota
	SourceExternalInput
)

// SinkKind tags a taint sink.
type SinkKind int

const (
	SinkFunctionCall SinkKind = iota
	SinkReturn
)

// TaintSource is a tagged source node.
type TaintSource struct {
	Kind SourceKind
	Node cpg.NodeID
}

// TaintSink is a tagged sink node.
type TaintSink struct {
	Kind SinkKind
	Node cpg.NodeID
}

// TaintPath is one source-to-sink flow, path inclusive of both endpoints.
type TaintPath struct {
	Source TaintSource
	Path   []cpg.NodeID
	Sink   TaintSink
}

// TaintAnalysis holds the paths and tainted node set of one run.
type TaintAnalysis struct {
	paths    []TaintPath
	tainted  map[cpg.NodeID]bool
	capped   bool
}

// AnalyzeTaint runs a bounded BFS from each source over outgoing DataFlow
// edges in CPG edge order. A node is revisited only on a strictly shorter
// path; depth is capped. Paths are emitted in discovery order, which is
// deterministic given the edge order.
func AnalyzeTaint(g *cpg.Graph, sources []TaintSource, sinks []TaintSink) *TaintAnalysis {
	a := &TaintAnalysis{tainted: make(map[cpg.NodeID]bool)}

	sinkByNode := make(map[cpg.NodeID]TaintSink, len(sinks))
	for _, s := range sinks {
		sinkByNode[s.Node] = s
	}

	// Adjacency in edge insertion order.
	adjacency := make(map[cpg.NodeID][]cpg.NodeID)
	for _, e := range g.Edges {
		if e.Kind == cpg.EdgeDataFlow {
			adjacency[e.From] = append(adjacency[e.From], e.To)
		}
	}

	for _, source := range sources {
		a.propagate(source, sinkByNode, adjacency)
	}
	return a
}

type taintEntry struct {
	node  cpg.NodeID
	path  []cpg.NodeID
	depth int
}

func (a *TaintAnalysis) propagate(source TaintSource, sinks map[cpg.NodeID]TaintSink, adjacency map[cpg.NodeID][]cpg.NodeID) {
	queue := []taintEntry{{node: source.Node, path: []cpg.NodeID{source.Node}, depth: 0}}
	best := map[cpg.NodeID]int{source.Node: 0}

	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		a.tainted[entry.node] = true

		if sink, ok := sinks[entry.node]; ok {
			path := make([]cpg.NodeID, len(entry.path))
			copy(path, entry.path)
			a.paths = append(a.paths, TaintPath{Source: source, Path: path, Sink: sink})
		}

		if entry.depth >= maxTaintDepth {
			a.capped = true
			continue
		}

		for _, next := range adjacency[entry.node] {
			nextDepth := entry.depth + 1
			if prev, seen := best[next]; seen && prev <= nextDepth {
				continue
			}
			best[next] = nextDepth
			path := make([]cpg.NodeID, len(entry.path), len(entry.path)+1)
			copy(path, entry.path)
			queue = append(queue, taintEntry{
				node:  next,
				path:  append(path, next),
				depth: nextDepth,
			})
		}
	}
}

// Paths returns the discovered source-to-sink flows in discovery order.
func (a *TaintAnalysis) Paths() []TaintPath {
	return a.paths
}

// IsTainted reports whether a node was reached from any source.
func (a *TaintAnalysis) IsTainted(node cpg.NodeID) bool {
	return a.tainted[node]
}

// HitDepthCap reports whether any propagation stopped at the depth bound.
func (a *TaintAnalysis) HitDepthCap() bool {
	return a.capped
}

// Err returns a CapacityExceeded error when propagation hit the depth
// bound, nil otherwise. The discovered paths remain valid either way.
func (a *TaintAnalysis) Err() error {
	if !a.capped {
		return nil
	}
	return core.Errorf(core.CapacityExceeded, "analysis.taint",
		"propagation bounded at depth %d", maxTaintDepth)
}

// TaintStats summarizes a taint analysis run.
type TaintStats struct {
	TotalPaths   int
	TaintedNodes int
	HitDepthCap  bool
}

// Stats returns summary counters for reporting.
func (a *TaintAnalysis) Stats() TaintStats {
	return TaintStats{
		TotalPaths:   len(a.paths),
		TaintedNodes: len(a.tainted),
		HitDepthCap:  a.capped,
	}
}

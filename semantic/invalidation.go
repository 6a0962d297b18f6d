package semantic

import (
	"sort"

	"github.com/helixlabs/codeprism/core"
)

// InvalidationSet lists the artifacts a source edit dirties.
type InvalidationSet struct {
	CFGNodes  []core.NodeID
	DFGEdges  []core.EdgeID
	Functions []core.FunctionID
}

// IsEmpty reports whether nothing needs rebuilding.
func (s *InvalidationSet) IsEmpty() bool {
	return len(s.CFGNodes) == 0 && len(s.DFGEdges) == 0 && len(s.Functions) == 0
}

// InvalidationTracker records the dependencies between AST byte ranges,
// CFG nodes, and DFG edges, so an edit can be mapped to exactly the
// semantic facts that must be rebuilt. Maps are lookup-only; all produced
// sequences are sorted for determinism.
type InvalidationTracker struct {
	astToCFG   map[core.ByteRange][]core.NodeID
	cfgToDFG   map[core.NodeID][]core.EdgeID
	nodeToFunc map[core.NodeID]core.FunctionID
	funcRanges map[core.FunctionID]core.ByteRange
}

// NewInvalidationTracker creates an empty tracker.
func NewInvalidationTracker() *InvalidationTracker {
	return &InvalidationTracker{
		astToCFG:   make(map[core.ByteRange][]core.NodeID),
		cfgToDFG:   make(map[core.NodeID][]core.EdgeID),
		nodeToFunc: make(map[core.NodeID]core.FunctionID),
		funcRanges: make(map[core.FunctionID]core.ByteRange),
	}
}

// TrackASTToCFG records that a CFG node derives from an AST range.
func (t *InvalidationTracker) TrackASTToCFG(r core.ByteRange, node core.NodeID) {
	t.astToCFG[r] = append(t.astToCFG[r], node)
}

// TrackCFGToDFG records that a DFG edge depends on a CFG node.
func (t *InvalidationTracker) TrackCFGToDFG(node core.NodeID, edge core.EdgeID) {
	t.cfgToDFG[node] = append(t.cfgToDFG[node], edge)
}

// TrackFunction records the byte range a function definition spans and the
// nodes belonging to it.
func (t *InvalidationTracker) TrackFunction(fn core.FunctionID, r core.ByteRange, nodes []core.NodeID) {
	t.funcRanges[fn] = r
	for _, n := range nodes {
		t.nodeToFunc[n] = fn
	}
}

// Invalidate maps changed source ranges to the CFG nodes, DFG edges, and
// functions that must be rebuilt. Overlap is judged conservatively.
func (t *InvalidationTracker) Invalidate(changed []core.ByteRange) InvalidationSet {
	var set InvalidationSet

	for _, c := range changed {
		for r, nodes := range t.astToCFG {
			if r.Overlaps(c) {
				set.CFGNodes = append(set.CFGNodes, nodes...)
			}
		}
	}
	sort.Slice(set.CFGNodes, func(i, j int) bool { return set.CFGNodes[i] < set.CFGNodes[j] })
	set.CFGNodes = dedupNodes(set.CFGNodes)

	for _, n := range set.CFGNodes {
		set.DFGEdges = append(set.DFGEdges, t.cfgToDFG[n]...)
	}
	sort.Slice(set.DFGEdges, func(i, j int) bool { return set.DFGEdges[i] < set.DFGEdges[j] })
	set.DFGEdges = dedupEdges(set.DFGEdges)

	seen := make(map[core.FunctionID]bool)
	for _, n := range set.CFGNodes {
		if fn, ok := t.nodeToFunc[n]; ok && !seen[fn] {
			seen[fn] = true
			set.Functions = append(set.Functions, fn)
		}
	}
	sort.Slice(set.Functions, func(i, j int) bool { return set.Functions[i] < set.Functions[j] })

	return set
}

// Stats summarizes the tracked dependency counts.
func (t *InvalidationTracker) Stats() (astRanges, cfgNodes, dfgEdges int) {
	astRanges = len(t.astToCFG)
	for _, nodes := range t.astToCFG {
		cfgNodes += len(nodes)
	}
	for _, edges := range t.cfgToDFG {
		dfgEdges += len(edges)
	}
	return astRanges, cfgNodes, dfgEdges
}

func dedupNodes(in []core.NodeID) []core.NodeID {
	out := in[:0]
	for i, v := range in {
		if i == 0 || v != in[i-1] {
			out = append(out, v)
		}
	}
	return out
}

func dedupEdges(in []core.EdgeID) []core.EdgeID {
	out := in[:0]
	for i, v := range in {
		if i == 0 || v != in[i-1] {
			out = append(out, v)
		}
	}
	return out
}

package cpg

import (
	"github.com/helixlabs/codeprism/core"
)

// Indices are derived lookup structures, rebuildable at any time from the
// graph alone by a single scan. They are computed once after fusion and
// read-only afterwards; a new CPG epoch rebuilds them wholesale.
type Indices struct {
	// SymbolToDefs maps a symbol to the CPG nodes its Defines edges target.
	SymbolToDefs map[core.SymbolID][]NodeID

	// VarToUses maps a DFG value to the CPG nodes its data flows into.
	VarToUses map[core.ValueID][]NodeID

	// FuncToCalls maps a function to its call-site nodes.
	FuncToCalls map[core.FunctionID][]NodeID

	// NodeEdges is the outgoing adjacency, per edge kind, in insertion order.
	NodeEdges map[NodeID]map[EdgeKind][]EdgeID
}

// BuildIndices scans the graph once and produces the full index set.
func BuildIndices(g *Graph) *Indices {
	idx := &Indices{
		SymbolToDefs: make(map[core.SymbolID][]NodeID),
		VarToUses:    make(map[core.ValueID][]NodeID),
		FuncToCalls:  make(map[core.FunctionID][]NodeID),
		NodeEdges:    make(map[NodeID]map[EdgeKind][]EdgeID),
	}

	for _, e := range g.Edges {
		byKind, ok := idx.NodeEdges[e.From]
		if !ok {
			byKind = make(map[EdgeKind][]EdgeID)
			idx.NodeEdges[e.From] = byKind
		}
		byKind[e.Kind] = append(byKind[e.Kind], e.ID)

		switch e.Kind {
		case EdgeDefines:
			if from, ok := g.Node(e.From); ok && from.Origin.Kind == OriginSymbol {
				idx.SymbolToDefs[from.Origin.SymbolID] = append(idx.SymbolToDefs[from.Origin.SymbolID], e.To)
			}
		case EdgeDataFlow:
			if from, ok := g.Node(e.From); ok && from.Origin.Kind == OriginDfg {
				idx.VarToUses[from.Origin.ValueID] = append(idx.VarToUses[from.Origin.ValueID], e.To)
			}
		case EdgeCalls:
			if to, ok := g.Node(e.To); ok && to.Origin.Kind == OriginFunction {
				idx.FuncToCalls[to.Origin.FunctionID] = append(idx.FuncToCalls[to.Origin.FunctionID], e.From)
			}
		}
	}

	return idx
}

// EdgesFromOfKind returns a node's outgoing edges of one kind, in insertion
// order.
func (idx *Indices) EdgesFromOfKind(node NodeID, kind EdgeKind) []EdgeID {
	byKind, ok := idx.NodeEdges[node]
	if !ok {
		return nil
	}
	return byKind[kind]
}

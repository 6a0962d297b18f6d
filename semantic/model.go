// Package semantic builds the per-function semantic graphs: control-flow
// graphs, data-flow graphs, and symbol tables. All collections are
// insertion-ordered so traversal order is fully determined by construction
// order.
package semantic

import (
	"github.com/helixlabs/codeprism/core"
)

// CFGNodeKind is the closed set of control-flow node kinds.
type CFGNodeKind int

const (
	CFGEntry CFGNodeKind = iota
	CFGExit
	CFGStatement
	CFGBranch
	CFGMerge
	CFGLoopHeader
)

// String returns the kind name.
func (k CFGNodeKind) String() string {
	switch k {
	case CFGEntry:
		return "Entry"
	case CFGExit:
		return "Exit"
	case CFGStatement:
		return "Statement"
	case CFGBranch:
		return "Branch"
	case CFGMerge:
		return "Merge"
	case CFGLoopHeader:
		return "LoopHeader"
	default:
		return "Unknown"
	}
}

// CFGEdgeKind is the closed set of control-flow edge kinds.
type CFGEdgeKind int

const (
	EdgeNormal CFGEdgeKind = iota
	EdgeTrue
	EdgeFalse
	EdgeBreak
	EdgeContinue
)

// String returns the kind name.
func (k CFGEdgeKind) String() string {
	switch k {
	case EdgeNormal:
		return "Normal"
	case EdgeTrue:
		return "True"
	case EdgeFalse:
		return "False"
	case EdgeBreak:
		return "Break"
	case EdgeContinue:
		return "Continue"
	default:
		return "Unknown"
	}
}

// CFGNode is a single control-flow node. Statement holds the
// whitespace-collapsed source text for statement kinds, or a synthetic
// marker for structural nodes.
type CFGNode struct {
	ID          core.NodeID
	Kind        CFGNodeKind
	SourceRange core.ByteRange
	Statement   string
}

// CFGEdge connects two CFG nodes.
type CFGEdge struct {
	From core.NodeID
	To   core.NodeID
	Kind CFGEdgeKind
}

// CFG is the control-flow graph of one function. Nodes and edges are stored
// in insertion order; Entry and Exit are distinguished node identifiers.
type CFG struct {
	FunctionID  core.FunctionID
	FileID      core.FileID
	Name        string
	SourceRange core.ByteRange
	Entry       core.NodeID
	Exit        core.NodeID
	Nodes       []CFGNode
	Edges       []CFGEdge

	nodeIndex map[core.NodeID]int
}

// NewCFG creates an empty CFG for a function.
func NewCFG(functionID core.FunctionID, fileID core.FileID, name string, sourceRange core.ByteRange, entry, exit core.NodeID) *CFG {
	return &CFG{
		FunctionID:  functionID,
		FileID:      fileID,
		Name:        name,
		SourceRange: sourceRange,
		Entry:       entry,
		Exit:        exit,
		nodeIndex:   make(map[core.NodeID]int),
	}
}

// AddNode appends a node.
func (g *CFG) AddNode(n CFGNode) {
	g.nodeIndex[n.ID] = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
}

// AddEdge appends an edge.
func (g *CFG) AddEdge(from, to core.NodeID, kind CFGEdgeKind) {
	g.Edges = append(g.Edges, CFGEdge{From: from, To: to, Kind: kind})
}

// Node returns the node with the given identifier.
func (g *CFG) Node(id core.NodeID) (*CFGNode, bool) {
	i, ok := g.nodeIndex[id]
	if !ok {
		return nil, false
	}
	return &g.Nodes[i], true
}

// ordinal returns a node's position in the insertion sequence.
func (g *CFG) ordinal(id core.NodeID) int {
	return g.nodeIndex[id]
}

// Predecessors returns incoming edges of a node in edge insertion order.
func (g *CFG) Predecessors(id core.NodeID) []CFGEdge {
	var preds []CFGEdge
	for _, e := range g.Edges {
		if e.To == id {
			preds = append(preds, e)
		}
	}
	return preds
}

// Successors returns outgoing edges of a node in edge insertion order.
func (g *CFG) Successors(id core.NodeID) []CFGEdge {
	var succs []CFGEdge
	for _, e := range g.Edges {
		if e.From == id {
			succs = append(succs, e)
		}
	}
	return succs
}

// ValueKind is the closed set of data-flow value kinds.
type ValueKind int

const (
	ValueVariable ValueKind = iota
	ValueConstant
	ValueParameter
	ValueTemporary
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case ValueVariable:
		return "Variable"
	case ValueConstant:
		return "Constant"
	case ValueParameter:
		return "Parameter"
	case ValueTemporary:
		return "Temporary"
	default:
		return "Unknown"
	}
}

// DFGValue is a single data-flow value. Name is set for variables and
// parameters, Literal for constants, Position for parameters.
type DFGValue struct {
	ID          core.ValueID
	Kind        ValueKind
	Name        string
	Literal     string
	Position    int
	SourceRange core.ByteRange
}

// DFGEdgeKind is the closed set of data-flow edge kinds.
type DFGEdgeKind int

const (
	EdgeDefinition DFGEdgeKind = iota
	EdgeUse
	EdgePhiLike
)

// String returns the kind name.
func (k DFGEdgeKind) String() string {
	switch k {
	case EdgeDefinition:
		return "Definition"
	case EdgeUse:
		return "Use"
	case EdgePhiLike:
		return "PhiLike"
	default:
		return "Unknown"
	}
}

// DFGEdge connects two data-flow values. Origin records the CFG node whose
// processing induced the edge; the invalidation tracker keys on it.
type DFGEdge struct {
	ID     core.EdgeID
	From   core.ValueID
	To     core.ValueID
	Kind   DFGEdgeKind
	Origin core.NodeID
}

// DFG is the data-flow graph of one function, parallel to its CFG. The
// graph is not true SSA: control-flow joins merge definitions through
// synthetic phi-like values.
type DFG struct {
	FunctionID core.FunctionID
	Values     []DFGValue
	Edges      []DFGEdge

	valueIndex map[core.ValueID]int
}

// NewDFG creates an empty DFG rooted on a function.
func NewDFG(functionID core.FunctionID) *DFG {
	return &DFG{
		FunctionID: functionID,
		valueIndex: make(map[core.ValueID]int),
	}
}

// AddValue appends a value.
func (g *DFG) AddValue(v DFGValue) {
	g.valueIndex[v.ID] = len(g.Values)
	g.Values = append(g.Values, v)
}

// AddEdge appends an edge.
func (g *DFG) AddEdge(e DFGEdge) {
	g.Edges = append(g.Edges, e)
}

// Value returns the value with the given identifier.
func (g *DFG) Value(id core.ValueID) (*DFGValue, bool) {
	i, ok := g.valueIndex[id]
	if !ok {
		return nil, false
	}
	return &g.Values[i], true
}

// ordinal returns a value's position in the insertion sequence.
func (g *DFG) ordinal(id core.ValueID) int {
	return g.valueIndex[id]
}

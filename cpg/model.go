// Package cpg defines the unified Code Property Graph: a frozen schema of
// six node kinds and eight edge kinds fusing the syntactic, control-flow,
// and data-flow views of a repository.
//
// The schema is frozen. Adding a kind is a breaking change that forces a
// new snapshot format version.
package cpg

import (
	"github.com/helixlabs/codeprism/core"
)

// NodeID identifies a CPG node. Sequential, never reused.
type NodeID uint64

// EdgeID identifies a CPG edge. Sequential, never reused.
type EdgeID uint64

// NodeKind is the closed set of six CPG node kinds.
type NodeKind int

const (
	NodeFile NodeKind = iota
	NodeFunction
	NodeAst
	NodeCfg
	NodeDfg
	NodeSymbol
)

// String returns the kind name.
func (k NodeKind) String() string {
	switch k {
	case NodeFile:
		return "File"
	case NodeFunction:
		return "Function"
	case NodeAst:
		return "AstNode"
	case NodeCfg:
		return "CfgNode"
	case NodeDfg:
		return "DfgValue"
	case NodeSymbol:
		return "Symbol"
	default:
		return "Unknown"
	}
}

// NodeKinds lists every node kind in tag order.
func NodeKinds() []NodeKind {
	return []NodeKind{NodeFile, NodeFunction, NodeAst, NodeCfg, NodeDfg, NodeSymbol}
}

// EdgeKind is the closed set of eight CPG edge kinds.
type EdgeKind int

const (
	EdgeAstParent EdgeKind = iota
	EdgeAstChild
	EdgeControlFlow
	EdgeDataFlow
	EdgeDefines
	EdgeUses
	EdgeCalls
	EdgePointsTo
)

// String returns the kind name.
func (k EdgeKind) String() string {
	switch k {
	case EdgeAstParent:
		return "AstParent"
	case EdgeAstChild:
		return "AstChild"
	case EdgeControlFlow:
		return "ControlFlow"
	case EdgeDataFlow:
		return "DataFlow"
	case EdgeDefines:
		return "Defines"
	case EdgeUses:
		return "Uses"
	case EdgeCalls:
		return "Calls"
	case EdgePointsTo:
		return "PointsTo"
	default:
		return "Unknown"
	}
}

// EdgeKinds lists every edge kind in tag order.
func EdgeKinds() []EdgeKind {
	return []EdgeKind{
		EdgeAstParent, EdgeAstChild, EdgeControlFlow, EdgeDataFlow,
		EdgeDefines, EdgeUses, EdgeCalls, EdgePointsTo,
	}
}

// OriginKind tags the artifact class an OriginRef points at.
type OriginKind int

const (
	OriginFile OriginKind = iota
	OriginFunction
	OriginCfg
	OriginDfg
	OriginSymbol
	OriginAst
)

// OriginRef names the source artifact a CPG node was derived from.
// Cross-epoch references are by opaque identifier only.
type OriginRef struct {
	Kind       OriginKind
	FileID     core.FileID
	FunctionID core.FunctionID
	NodeID     core.NodeID
	ValueID    core.ValueID
	SymbolID   core.SymbolID
	Range      core.ByteRange
}

// FileOrigin references an ingested file.
func FileOrigin(id core.FileID) OriginRef {
	return OriginRef{Kind: OriginFile, FileID: id}
}

// FunctionOrigin references a function definition.
func FunctionOrigin(id core.FunctionID) OriginRef {
	return OriginRef{Kind: OriginFunction, FunctionID: id}
}

// CfgOrigin references a CFG node.
func CfgOrigin(id core.NodeID) OriginRef {
	return OriginRef{Kind: OriginCfg, NodeID: id}
}

// DfgOrigin references a DFG value.
func DfgOrigin(id core.ValueID) OriginRef {
	return OriginRef{Kind: OriginDfg, ValueID: id}
}

// SymbolOrigin references a symbol table entry.
func SymbolOrigin(id core.SymbolID) OriginRef {
	return OriginRef{Kind: OriginSymbol, SymbolID: id}
}

// AstOrigin references a syntax tree node by byte range.
func AstOrigin(r core.ByteRange) OriginRef {
	return OriginRef{Kind: OriginAst, Range: r}
}

// Node is a CPG node. Label is cosmetic and excluded from identity and
// hashing.
type Node struct {
	ID          NodeID
	Kind        NodeKind
	Origin      OriginRef
	SourceRange core.ByteRange
	Label       string
}

// Edge is a CPG edge.
type Edge struct {
	ID   EdgeID
	Kind EdgeKind
	From NodeID
	To   NodeID
}

// Graph is the complete Code Property Graph. Nodes and edges live in
// insertion-ordered sequences; the graph is immutable once fusion returns.
type Graph struct {
	Nodes []Node
	Edges []Edge

	nodeIndex map[NodeID]int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{nodeIndex: make(map[NodeID]int)}
}

// AddNode appends a node.
func (g *Graph) AddNode(n Node) {
	g.nodeIndex[n.ID] = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
}

// AddEdge appends an edge.
func (g *Graph) AddEdge(e Edge) {
	g.Edges = append(g.Edges, e)
}

// Node returns the node with the given identifier.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	i, ok := g.nodeIndex[id]
	if !ok {
		return nil, false
	}
	return &g.Nodes[i], true
}

// NodesOfKind returns node identifiers of a kind in insertion order.
func (g *Graph) NodesOfKind(kind NodeKind) []NodeID {
	var out []NodeID
	for _, n := range g.Nodes {
		if n.Kind == kind {
			out = append(out, n.ID)
		}
	}
	return out
}

// EdgesFrom returns outgoing edges of a node in insertion order.
func (g *Graph) EdgesFrom(from NodeID) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == from {
			out = append(out, e)
		}
	}
	return out
}

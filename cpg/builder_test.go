package cpg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlabs/codeprism/core"
	"github.com/helixlabs/codeprism/epoch"
	"github.com/helixlabs/codeprism/semantic"
)

// buildCPG runs the full build path over the given sources and returns the
// CPG epoch with bottom-up cleanup registered.
func buildCPG(t *testing.T, sources ...string) *Epoch {
	t.Helper()

	ing := epoch.NewIngestion(core.EpochMarker(1))
	for i, src := range sources {
		require.NoError(t, ing.AddFile(core.FileID(i+1), []byte(src), core.LanguageRust))
	}
	pe := epoch.NewParse(ing, core.EpochMarker(2))
	require.NoError(t, pe.ParseAll(context.Background(), nil))
	se := semantic.NewEpoch(pe, core.EpochMarker(3))
	require.NoError(t, se.Build())
	ce := NewEpoch(se, core.EpochMarker(4))

	t.Cleanup(func() {
		require.NoError(t, ce.Close())
		require.NoError(t, se.Close())
		require.NoError(t, pe.Close())
		require.NoError(t, ing.Close())
	})
	return ce
}

func countNodes(g *Graph, kind NodeKind) int {
	return len(g.NodesOfKind(kind))
}

func TestFusionOfSimpleFunction(t *testing.T) {
	ce := buildCPG(t, "fn test() { let x = 42; }")
	g := ce.Graph()

	assert.Equal(t, 1, countNodes(g, NodeFile))
	assert.Equal(t, 1, countNodes(g, NodeFunction))
	assert.Equal(t, 3, countNodes(g, NodeCfg))
	assert.Equal(t, 1, countNodes(g, NodeDfg))
	assert.Equal(t, 1, countNodes(g, NodeSymbol))
}

func TestFusionOrderIsFixed(t *testing.T) {
	ce := buildCPG(t, "fn test() { let x = 42; }")
	g := ce.Graph()

	// File first, then Function, then CFG nodes, then DFG values, then
	// file-scope symbols.
	kinds := make([]NodeKind, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []NodeKind{
		NodeFile, NodeFunction, NodeCfg, NodeCfg, NodeCfg, NodeDfg, NodeSymbol,
	}, kinds)
}

func TestFusionFilesAscending(t *testing.T) {
	// Files ingested out of identifier order still fuse in ascending order.
	ing := epoch.NewIngestion(core.EpochMarker(1))
	require.NoError(t, ing.AddFile(core.FileID(9), []byte("fn late() { }"), core.LanguageRust))
	require.NoError(t, ing.AddFile(core.FileID(2), []byte("fn early() { }"), core.LanguageRust))
	pe := epoch.NewParse(ing, core.EpochMarker(2))
	require.NoError(t, pe.ParseAll(context.Background(), nil))
	se := semantic.NewEpoch(pe, core.EpochMarker(3))
	require.NoError(t, se.Build())
	ce := NewEpoch(se, core.EpochMarker(4))
	defer func() {
		require.NoError(t, ce.Close())
		require.NoError(t, se.Close())
		require.NoError(t, pe.Close())
		require.NoError(t, ing.Close())
	}()

	var fileOrigins []core.FileID
	for _, n := range ce.Graph().Nodes {
		if n.Kind == NodeFile {
			fileOrigins = append(fileOrigins, n.Origin.FileID)
		}
	}
	assert.Equal(t, []core.FileID{2, 9}, fileOrigins)
}

func TestSchemaClosure(t *testing.T) {
	ce := buildCPG(t, `fn helper(v: u32) { return v; }
fn test(a: u32) {
    let b = a;
    let c = helper(b);
    if a { let d = c; }
}`)
	g := ce.Graph()

	nodeKinds := make(map[NodeKind]bool)
	for _, k := range NodeKinds() {
		nodeKinds[k] = true
	}
	for _, n := range g.Nodes {
		assert.True(t, nodeKinds[n.Kind], "node kind %v outside the frozen schema", n.Kind)
	}

	edgeKinds := make(map[EdgeKind]bool)
	for _, k := range EdgeKinds() {
		edgeKinds[k] = true
	}
	for _, e := range g.Edges {
		assert.True(t, edgeKinds[e.Kind], "edge kind %v outside the frozen schema", e.Kind)
	}
}

func TestCallEdges(t *testing.T) {
	ce := buildCPG(t, `fn helper(v: u32) { return v; }
fn test(a: u32) { let b = helper(a); }`)
	g := ce.Graph()

	var calls []Edge
	for _, e := range g.Edges {
		if e.Kind == EdgeCalls {
			calls = append(calls, e)
		}
	}
	require.Len(t, calls, 1)

	from, ok := g.Node(calls[0].From)
	require.True(t, ok)
	assert.Equal(t, NodeCfg, from.Kind)

	to, ok := g.Node(calls[0].To)
	require.True(t, ok)
	assert.Equal(t, NodeFunction, to.Kind)
	assert.Equal(t, "helper", to.Label)

	// The call-site index points back at the statement node.
	idx := ce.Indices()
	sites := idx.FuncToCalls[to.Origin.FunctionID]
	require.Len(t, sites, 1)
	assert.Equal(t, calls[0].From, sites[0])
}

func TestDefinesEdgesAndSymbolIndex(t *testing.T) {
	ce := buildCPG(t, "fn test() { }")
	g := ce.Graph()

	var defines []Edge
	for _, e := range g.Edges {
		if e.Kind == EdgeDefines {
			defines = append(defines, e)
		}
	}
	require.Len(t, defines, 1)

	from, ok := g.Node(defines[0].From)
	require.True(t, ok)
	require.Equal(t, NodeSymbol, from.Kind)

	defs := ce.Indices().SymbolToDefs[from.Origin.SymbolID]
	require.Len(t, defs, 1)

	to, ok := g.Node(defs[0])
	require.True(t, ok)
	assert.Equal(t, NodeFunction, to.Kind)
}

func TestVarToUsesIndex(t *testing.T) {
	ce := buildCPG(t, "fn test() { let x = 1; let y = x; }")
	g := ce.Graph()

	// Find x's DfgValue node.
	var xValue core.ValueID
	var found bool
	for _, n := range g.Nodes {
		if n.Kind == NodeDfg && n.Label == "x" {
			xValue = n.Origin.ValueID
			found = true
		}
	}
	require.True(t, found)

	uses := ce.Indices().VarToUses[xValue]
	require.Len(t, uses, 1)
	target, ok := g.Node(uses[0])
	require.True(t, ok)
	assert.Equal(t, "y", target.Label)
}

func TestNodeEdgesAdjacency(t *testing.T) {
	ce := buildCPG(t, "fn test() { let x = 1; }")
	g := ce.Graph()
	idx := ce.Indices()

	for _, e := range g.Edges {
		ids := idx.EdgesFromOfKind(e.From, e.Kind)
		assert.Contains(t, ids, e.ID)
	}
}

func TestHashStability(t *testing.T) {
	source := `fn helper(v: u32) { return v; }
fn test(a: u32) { let b = helper(a); if a { let c = b; } }`

	h1 := buildCPG(t, source).Graph().ComputeHash()
	h2 := buildCPG(t, source).Graph().ComputeHash()
	assert.Equal(t, h1, h2, "identical inputs must produce bit-identical hashes")
}

func TestHashIgnoresLabels(t *testing.T) {
	g1 := NewGraph()
	g1.AddNode(Node{ID: 1, Kind: NodeFunction, Origin: FunctionOrigin(1), SourceRange: core.NewByteRange(0, 10), Label: "a"})
	g2 := NewGraph()
	g2.AddNode(Node{ID: 1, Kind: NodeFunction, Origin: FunctionOrigin(1), SourceRange: core.NewByteRange(0, 10), Label: "completely different"})

	assert.Equal(t, g1.ComputeHash(), g2.ComputeHash())
}

func TestHashSensitivity(t *testing.T) {
	g1 := NewGraph()
	g1.AddNode(Node{ID: 1, Kind: NodeFunction, Origin: FunctionOrigin(1), SourceRange: core.NewByteRange(0, 10)})
	g2 := NewGraph()
	g2.AddNode(Node{ID: 1, Kind: NodeCfg, Origin: CfgOrigin(1), SourceRange: core.NewByteRange(0, 10)})

	assert.NotEqual(t, g1.ComputeHash(), g2.ComputeHash())
}

func TestRebuildIndicesIsIdempotent(t *testing.T) {
	ce := buildCPG(t, "fn helper() { }\nfn test() { let x = 1; helper(); }")

	before := ce.Indices()
	ce.RebuildIndices()
	after := ce.Indices()

	assert.Equal(t, before.SymbolToDefs, after.SymbolToDefs)
	assert.Equal(t, before.VarToUses, after.VarToUses)
	assert.Equal(t, before.FuncToCalls, after.FuncToCalls)
	assert.Equal(t, before.NodeEdges, after.NodeEdges)
}

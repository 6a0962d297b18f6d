package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlabs/codeprism/core"
	"github.com/helixlabs/codeprism/cpg"
)

// dfgNode appends a DfgValue node backed by the given value identifier.
func dfgNode(g *cpg.Graph, node cpg.NodeID, value core.ValueID) {
	g.AddNode(cpg.Node{
		ID:          node,
		Kind:        cpg.NodeDfg,
		Origin:      cpg.DfgOrigin(value),
		SourceRange: core.NewByteRange(uint64(node)*10, uint64(node)*10+10),
	})
}

func dataFlow(g *cpg.Graph, id cpg.EdgeID, from, to cpg.NodeID) {
	g.AddEdge(cpg.Edge{ID: id, Kind: cpg.EdgeDataFlow, From: from, To: to})
}

func TestPointerAnalysisEmptyGraph(t *testing.T) {
	a := AnalyzePointers(cpg.NewGraph())
	assert.True(t, a.IsComplete())
	assert.Equal(t, 0, a.Stats().ValuesAnalyzed)
}

func TestPointerAnalysisSimpleFlow(t *testing.T) {
	g := cpg.NewGraph()
	dfgNode(g, 1, core.ValueID(1))
	dfgNode(g, 2, core.ValueID(2))
	dataFlow(g, 1, 1, 2)

	a := AnalyzePointers(g)
	require.True(t, a.IsComplete())

	v1, ok := a.PointsTo(core.ValueID(1))
	require.True(t, ok)
	v2, ok := a.PointsTo(core.ValueID(2))
	require.True(t, ok)

	// pts(v2) is a superset of pts(v1).
	assert.True(t, v2.Contains(core.ValueID(1)))
	assert.True(t, v2.Contains(core.ValueID(2)))
	assert.Equal(t, 1, v1.Size())
	assert.Equal(t, 2, v2.Size())
}

func TestPointerAnalysisOverflowToUnknown(t *testing.T) {
	g := cpg.NewGraph()

	// 101 values all flowing into one sink.
	sinkNode := cpg.NodeID(0)
	dfgNode(g, sinkNode, core.ValueID(0))
	for i := 1; i <= 101; i++ {
		dfgNode(g, cpg.NodeID(i), core.ValueID(i))
		dataFlow(g, cpg.EdgeID(i), cpg.NodeID(i), sinkNode)
	}

	a := AnalyzePointers(g)
	assert.False(t, a.IsComplete())
	assert.True(t, core.IsKind(a.Err(), core.CapacityExceeded))

	sink, ok := a.PointsTo(core.ValueID(0))
	require.True(t, ok)
	assert.True(t, sink.Unknown, "overflowed set must degrade to Unknown")

	stats := a.Stats()
	assert.Equal(t, 102, stats.ValuesAnalyzed)
	assert.Equal(t, 1, stats.UnknownSets)
}

func TestPointerAnalysisTransitiveClosure(t *testing.T) {
	g := cpg.NewGraph()
	for i := 1; i <= 3; i++ {
		dfgNode(g, cpg.NodeID(i), core.ValueID(i))
	}
	dataFlow(g, 1, 1, 2)
	dataFlow(g, 2, 2, 3)

	a := AnalyzePointers(g)
	require.True(t, a.IsComplete())

	v3, ok := a.PointsTo(core.ValueID(3))
	require.True(t, ok)
	assert.True(t, v3.Contains(core.ValueID(1)), "flow must reach across two hops")
}

func TestPointerAnalysisCycleTerminates(t *testing.T) {
	g := cpg.NewGraph()
	dfgNode(g, 1, core.ValueID(1))
	dfgNode(g, 2, core.ValueID(2))
	dataFlow(g, 1, 1, 2)
	dataFlow(g, 2, 2, 1)

	a := AnalyzePointers(g)
	assert.True(t, a.IsComplete(), "a small cycle reaches a fixed point")

	v1, _ := a.PointsTo(core.ValueID(1))
	v2, _ := a.PointsTo(core.ValueID(2))
	assert.Equal(t, 2, v1.Size())
	assert.Equal(t, 2, v2.Size())
}

func TestPointerAnalysisDeterminism(t *testing.T) {
	build := func() *cpg.Graph {
		g := cpg.NewGraph()
		for i := 1; i <= 20; i++ {
			dfgNode(g, cpg.NodeID(i), core.ValueID(i))
		}
		edge := cpg.EdgeID(0)
		for i := 1; i < 20; i++ {
			dataFlow(g, edge, cpg.NodeID(i), cpg.NodeID(i+1))
			edge++
		}
		return g
	}

	a1 := AnalyzePointers(build())
	a2 := AnalyzePointers(build())
	for i := 1; i <= 20; i++ {
		s1, _ := a1.PointsTo(core.ValueID(i))
		s2, _ := a2.PointsTo(core.ValueID(i))
		require.Equal(t, s1.Unknown, s2.Unknown, "value %d", i)
		require.Equal(t, s1.Size(), s2.Size(), fmt.Sprintf("value %d", i))
	}
}

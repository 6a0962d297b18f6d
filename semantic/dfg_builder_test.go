package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlabs/codeprism/core"
)

func valuesOfKind(dfg *DFG, kind ValueKind) []DFGValue {
	var out []DFGValue
	for _, v := range dfg.Values {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}

func edgesOfKind(dfg *DFG, kind DFGEdgeKind) []DFGEdge {
	var out []DFGEdge
	for _, e := range dfg.Edges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestSingleDefinition(t *testing.T) {
	se := buildEpoch(t, "fn test() { let x = 42; }")

	dfg := se.DFGs(core.FileID(1))[0]
	require.Len(t, dfg.Values, 1)
	assert.Equal(t, ValueVariable, dfg.Values[0].Kind)
	assert.Equal(t, "x", dfg.Values[0].Name)
	assert.Empty(t, dfg.Edges)
}

func TestUseEdgeFlowsDefinition(t *testing.T) {
	se := buildEpoch(t, "fn test() { let x = 42; let y = x; }")

	dfg := se.DFGs(core.FileID(1))[0]
	require.Len(t, dfg.Values, 2)
	assert.Equal(t, "x", dfg.Values[0].Name)
	assert.Equal(t, "y", dfg.Values[1].Name)

	uses := edgesOfKind(dfg, EdgeUse)
	require.Len(t, uses, 1)
	assert.Equal(t, dfg.Values[0].ID, uses[0].From)
	assert.Equal(t, dfg.Values[1].ID, uses[0].To)
}

func TestReassignmentChainsDefinition(t *testing.T) {
	se := buildEpoch(t, "fn test() { let mut x = 1; x = 2; }")

	dfg := se.DFGs(core.FileID(1))[0]
	defs := edgesOfKind(dfg, EdgeDefinition)
	require.Len(t, defs, 1)

	from, ok := dfg.Value(defs[0].From)
	require.True(t, ok)
	to, ok := dfg.Value(defs[0].To)
	require.True(t, ok)
	assert.Equal(t, "x", from.Name)
	assert.Equal(t, "x", to.Name)
	assert.NotEqual(t, from.ID, to.ID)
}

func TestParameterValues(t *testing.T) {
	se := buildEpoch(t, "fn test(a: u32, b: u32) { let c = a; }")

	dfg := se.DFGs(core.FileID(1))[0]
	params := valuesOfKind(dfg, ValueParameter)
	require.Len(t, params, 2)
	assert.Equal(t, "a", params[0].Name)
	assert.Equal(t, 0, params[0].Position)
	assert.Equal(t, "b", params[1].Name)
	assert.Equal(t, 1, params[1].Position)

	// The parameter flows into the local definition.
	uses := edgesOfKind(dfg, EdgeUse)
	require.Len(t, uses, 1)
	assert.Equal(t, params[0].ID, uses[0].From)
}

func TestPhiLikeAtMerge(t *testing.T) {
	se := buildEpoch(t, `fn test(cond: bool) {
    let mut x = 0;
    if cond {
        x = 1;
    } else {
        x = 2;
    }
    let y = x;
}`)

	dfg := se.DFGs(core.FileID(1))[0]
	phis := edgesOfKind(dfg, EdgePhiLike)
	require.Len(t, phis, 2, "each arm's definition feeds the phi")
	assert.Equal(t, phis[0].To, phis[1].To, "both phi edges target the merged value")

	phi, ok := dfg.Value(phis[0].To)
	require.True(t, ok)
	assert.Equal(t, "x", phi.Name)

	// The use after the merge reads the phi value.
	uses := edgesOfKind(dfg, EdgeUse)
	var fedFromPhi bool
	for _, u := range uses {
		if u.From == phi.ID {
			fedFromPhi = true
		}
	}
	assert.True(t, fedFromPhi, "the post-merge use must read the merged definition")
}

func TestReturnFlowsIntoTemporary(t *testing.T) {
	se := buildEpoch(t, "fn test(a: u32) { return a; }")

	dfg := se.DFGs(core.FileID(1))[0]
	temps := valuesOfKind(dfg, ValueTemporary)
	require.Len(t, temps, 1)

	uses := edgesOfKind(dfg, EdgeUse)
	require.Len(t, uses, 1)
	assert.Equal(t, temps[0].ID, uses[0].To)
}

func TestUseEdgeSourcesAreReachingDefinitions(t *testing.T) {
	se := buildEpoch(t, `fn test(n: u32) {
    let mut acc = 0;
    while n {
        acc = acc;
    }
    let out = acc;
}`)

	dfg := se.DFGs(core.FileID(1))[0]
	defined := make(map[core.ValueID]bool)
	for _, v := range dfg.Values {
		defined[v.ID] = true
	}
	for _, e := range dfg.Edges {
		if e.Kind == EdgeUse {
			assert.True(t, defined[e.From], "use edge source must be a defined value")
		}
	}
}

func TestDFGDeterminism(t *testing.T) {
	source := `fn test(cond: bool) {
    let mut x = 1;
    if cond { x = 2; }
    let y = x;
}`
	h1 := buildEpoch(t, source).DFGs(core.FileID(1))[0].Hash()
	h2 := buildEpoch(t, source).DFGs(core.FileID(1))[0].Hash()
	assert.Equal(t, h1, h2)
}

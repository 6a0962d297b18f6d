package semantic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helixlabs/codeprism/core"
	"github.com/helixlabs/codeprism/epoch"
)

// buildEpoch runs the full build path over the given sources and returns
// the semantic epoch plus a bottom-up cleanup.
func buildEpoch(t *testing.T, sources ...string) *Epoch {
	t.Helper()

	ing := epoch.NewIngestion(core.EpochMarker(1))
	for i, src := range sources {
		require.NoError(t, ing.AddFile(core.FileID(i+1), []byte(src), core.LanguageRust))
	}

	pe := epoch.NewParse(ing, core.EpochMarker(2))
	require.NoError(t, pe.ParseAll(context.Background(), nil))

	se := NewEpoch(pe, core.EpochMarker(3))
	require.NoError(t, se.Build())

	t.Cleanup(func() {
		require.NoError(t, se.Close())
		require.NoError(t, pe.Close())
		require.NoError(t, ing.Close())
	})
	return se
}

// nodesOfKind returns the CFG nodes with the given kind in insertion order.
func nodesOfKind(cfg *CFG, kind CFGNodeKind) []CFGNode {
	var out []CFGNode
	for _, n := range cfg.Nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

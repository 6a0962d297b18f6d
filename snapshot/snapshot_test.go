package snapshot

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/viant/afs/mem"

	"github.com/helixlabs/codeprism/core"
	"github.com/helixlabs/codeprism/cpg"
)

func sampleGraph() *cpg.Graph {
	g := cpg.NewGraph()
	g.AddNode(cpg.Node{ID: 0, Kind: cpg.NodeFile, Origin: cpg.FileOrigin(1)})
	g.AddNode(cpg.Node{
		ID:          1,
		Kind:        cpg.NodeFunction,
		Origin:      cpg.FunctionOrigin(7),
		SourceRange: core.NewByteRange(0, 25),
		Label:       "test",
	})
	g.AddNode(cpg.Node{
		ID:          2,
		Kind:        cpg.NodeCfg,
		Origin:      cpg.CfgOrigin(3),
		SourceRange: core.NewByteRange(12, 22),
	})
	g.AddNode(cpg.Node{
		ID:     3,
		Kind:   cpg.NodeAst,
		Origin: cpg.AstOrigin(core.NewByteRange(10, 24)),
	})
	g.AddEdge(cpg.Edge{ID: 0, Kind: cpg.EdgeControlFlow, From: 1, To: 2})
	g.AddEdge(cpg.Edge{ID: 1, Kind: cpg.EdgeDataFlow, From: 2, To: 3})
	return g
}

func TestRoundTripPreservesHash(t *testing.T) {
	g := sampleGraph()

	var buf bytes.Buffer
	meta := Metadata{Version: FormatVersion, Hash: g.ComputeHash(), EpochID: 4, CreatedAt: 1700000000}
	require.NoError(t, Encode(&buf, g, meta))

	loaded, gotMeta, err := Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, g.ComputeHash(), loaded.ComputeHash())
	assert.Equal(t, meta.Hash, gotMeta.Hash)
	assert.Equal(t, core.EpochMarker(4), gotMeta.EpochID)
	assert.Equal(t, int64(1700000000), gotMeta.CreatedAt)
	assert.Equal(t, len(g.Nodes), len(loaded.Nodes))
	assert.Equal(t, len(g.Edges), len(loaded.Edges))
}

func TestRoundTripPreservesOrigins(t *testing.T) {
	g := sampleGraph()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g, Metadata{Version: FormatVersion, Hash: g.ComputeHash()}))
	loaded, _, err := Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	for i := range g.Nodes {
		assert.Equal(t, g.Nodes[i].Origin, loaded.Nodes[i].Origin, "node %d", i)
	}
}

func TestVersionMismatchIsFatal(t *testing.T) {
	g := sampleGraph()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g, Metadata{Version: FormatVersion, Hash: g.ComputeHash()}))

	// Corrupt the version field just past the magic.
	data := buf.Bytes()
	data[8] = 99

	_, _, err := Decode(bytes.NewReader(data))
	assert.True(t, core.IsKind(err, core.Corruption))
}

func TestBadMagicIsFatal(t *testing.T) {
	_, _, err := Decode(bytes.NewReader([]byte("NOTASNAPSHOT....")))
	assert.True(t, core.IsKind(err, core.Corruption))
}

func TestTamperedBodyFailsIntegrity(t *testing.T) {
	g := sampleGraph()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g, Metadata{Version: FormatVersion, Hash: g.ComputeHash()}))

	data := buf.Bytes()
	data[len(data)-1] ^= 0xFF

	_, _, err := Decode(bytes.NewReader(data))
	assert.True(t, core.IsKind(err, core.Corruption))
}

func TestStoreSaveLoadInMemory(t *testing.T) {
	g := sampleGraph()
	store := NewStore()
	ctx := context.Background()
	URL := "mem://localhost/snapshots/test.cpg"

	meta, err := store.Save(ctx, URL, g, core.EpochMarker(4), 1700000000)
	require.NoError(t, err)
	assert.Equal(t, g.ComputeHash(), meta.Hash)

	loaded, gotMeta, err := store.Load(ctx, URL)
	require.NoError(t, err)
	assert.Equal(t, meta.Hash, gotMeta.Hash)
	assert.Equal(t, g.ComputeHash(), loaded.ComputeHash())
}

func TestEncodingIsByteStable(t *testing.T) {
	g := sampleGraph()
	meta := Metadata{Version: FormatVersion, Hash: g.ComputeHash(), EpochID: 1, CreatedAt: 42}

	var a, b bytes.Buffer
	require.NoError(t, Encode(&a, g, meta))
	require.NoError(t, Encode(&b, g, meta))
	assert.Equal(t, a.Bytes(), b.Bytes(), "identical inputs must serialize identically")
}

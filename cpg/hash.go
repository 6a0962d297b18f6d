package cpg

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// ComputeHash folds a byte-exact SHA-256 over the graph structure: node
// count; for each node in order its id, kind tag, and source range; edge
// count; for each edge in order its id, kind tag, and endpoints. Labels,
// origin reference contents, and index state are excluded; they are either
// derivable or cosmetic. The hash is the canonical identity of a CPG.
func (g *Graph) ComputeHash() string {
	h := sha256.New()

	hashU64(h, uint64(len(g.Nodes)))
	for _, n := range g.Nodes {
		hashU64(h, uint64(n.ID))
		h.Write([]byte{byte(n.Kind)})
		hashU64(h, n.SourceRange.Start)
		hashU64(h, n.SourceRange.End)
	}

	hashU64(h, uint64(len(g.Edges)))
	for _, e := range g.Edges {
		hashU64(h, uint64(e.ID))
		h.Write([]byte{byte(e.Kind)})
		hashU64(h, uint64(e.From))
		hashU64(h, uint64(e.To))
	}

	return hex.EncodeToString(h.Sum(nil))
}

func hashU64(h hash.Hash, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	h.Write(buf[:])
}

package semantic

import (
	"encoding/binary"
	"hash"
	"strings"
	"unicode"

	"github.com/minio/highwayhash"
)

var hashKey = []byte("codeprism-semantic-hash-key-v1!!")

// Hash returns a stable structural hash of the CFG. The hash folds node
// ordinals, kinds, and whitespace-normalized statement text, plus edge
// topology over ordinals. Byte offsets and absolute identifiers are
// excluded, so reformatting a file or editing an unrelated function leaves
// the hash unchanged.
func (g *CFG) Hash() uint64 {
	h := newHasher()
	writeU64(h, uint64(len(g.Nodes)))
	for _, n := range g.Nodes {
		writeU64(h, uint64(n.Kind))
		writeString(h, stripWhitespace(n.Statement))
	}
	writeU64(h, uint64(g.ordinal(g.Entry)))
	writeU64(h, uint64(g.ordinal(g.Exit)))
	writeU64(h, uint64(len(g.Edges)))
	for _, e := range g.Edges {
		writeU64(h, uint64(g.ordinal(e.From)))
		writeU64(h, uint64(g.ordinal(e.To)))
		writeU64(h, uint64(e.Kind))
	}
	return h.Sum64()
}

// Hash returns a stable structural hash of the DFG, built on value ordinals
// rather than absolute identifiers for the same locality reasons as the
// CFG hash.
func (g *DFG) Hash() uint64 {
	h := newHasher()
	writeU64(h, uint64(len(g.Values)))
	for _, v := range g.Values {
		writeU64(h, uint64(v.Kind))
		writeString(h, v.Name)
		writeString(h, stripWhitespace(v.Literal))
		writeU64(h, uint64(v.Position))
	}
	writeU64(h, uint64(len(g.Edges)))
	for _, e := range g.Edges {
		writeU64(h, uint64(g.ordinal(e.From)))
		writeU64(h, uint64(g.ordinal(e.To)))
		writeU64(h, uint64(e.Kind))
	}
	return h.Sum64()
}

func newHasher() hash.Hash64 {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		// The key is a compile-time constant of the required length.
		panic(err)
	}
	return h
}

func writeU64(h hash.Hash64, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

func writeString(h hash.Hash64, s string) {
	writeU64(h, uint64(len(s)))
	_, _ = h.Write([]byte(s))
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Package snapshot persists a CPG as a reproducible, bit-exact artifact.
// The format is versioned; a version mismatch on load is fatal, and a
// loaded graph must hash identically to the graph that was saved.
package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"

	"github.com/viant/afs"

	"github.com/helixlabs/codeprism/core"
	"github.com/helixlabs/codeprism/cpg"
)

// FormatVersion is the current snapshot format version.
const FormatVersion uint32 = 1

// magic identifies a snapshot file.
var magic = [8]byte{'C', 'P', 'G', 'S', 'N', 'A', 'P', 0}

// Metadata is the snapshot header contents.
type Metadata struct {
	Version   uint32
	Hash      string
	EpochID   core.EpochMarker
	CreatedAt int64
}

// Store reads and writes snapshots through an abstract storage service, so
// the same codec serves local files, in-memory URLs in tests, and remote
// object stores.
type Store struct {
	fs afs.Service
}

// NewStore creates a store backed by the default storage service.
func NewStore() *Store {
	return &Store{fs: afs.New()}
}

// Save encodes the graph and writes it to the destination URL.
func (s *Store) Save(ctx context.Context, URL string, g *cpg.Graph, epochID core.EpochMarker, createdAt int64) (Metadata, error) {
	meta := Metadata{
		Version:   FormatVersion,
		Hash:      g.ComputeHash(),
		EpochID:   epochID,
		CreatedAt: createdAt,
	}
	var buf bytes.Buffer
	if err := Encode(&buf, g, meta); err != nil {
		return Metadata{}, err
	}
	if err := s.fs.Upload(ctx, URL, 0644, bytes.NewReader(buf.Bytes())); err != nil {
		return Metadata{}, core.Errorf(core.Corruption, "snapshot.Save", "upload %s: %v", URL, err)
	}
	return meta, nil
}

// Load reads and decodes the snapshot at the source URL, verifying the
// format version and the stored hash against the reconstructed graph.
func (s *Store) Load(ctx context.Context, URL string) (*cpg.Graph, Metadata, error) {
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, Metadata{}, core.Errorf(core.Corruption, "snapshot.Load", "download %s: %v", URL, err)
	}
	return Decode(bytes.NewReader(data))
}

// Encode writes the snapshot: the header, then nodes and edges in
// insertion order. Labels are cosmetic and not persisted.
func Encode(w io.Writer, g *cpg.Graph, meta Metadata) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if err := writeU32(w, meta.Version); err != nil {
		return err
	}
	if err := writeBytes(w, []byte(meta.Hash)); err != nil {
		return err
	}
	if err := writeU64(w, uint64(meta.EpochID)); err != nil {
		return err
	}
	if err := writeU64(w, uint64(meta.CreatedAt)); err != nil {
		return err
	}

	if err := writeU64(w, uint64(len(g.Nodes))); err != nil {
		return err
	}
	for _, n := range g.Nodes {
		if err := encodeNode(w, &n); err != nil {
			return err
		}
	}

	if err := writeU64(w, uint64(len(g.Edges))); err != nil {
		return err
	}
	for _, e := range g.Edges {
		if err := encodeEdge(w, &e); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads a snapshot, failing with Corruption on a bad magic, a
// version mismatch, or a hash that does not match the decoded graph.
func Decode(r io.Reader) (*cpg.Graph, Metadata, error) {
	var gotMagic [8]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return nil, Metadata{}, core.Errorf(core.Corruption, "snapshot.Decode", "short header: %v", err)
	}
	if gotMagic != magic {
		return nil, Metadata{}, core.Errorf(core.Corruption, "snapshot.Decode", "bad magic %q", gotMagic)
	}

	var meta Metadata
	var err error
	if meta.Version, err = readU32(r); err != nil {
		return nil, Metadata{}, core.Errorf(core.Corruption, "snapshot.Decode", "version: %v", err)
	}
	if meta.Version != FormatVersion {
		return nil, Metadata{}, core.Errorf(core.Corruption, "snapshot.Decode",
			"format version %d, want %d", meta.Version, FormatVersion)
	}
	hashBytes, err := readBytes(r)
	if err != nil {
		return nil, Metadata{}, core.Errorf(core.Corruption, "snapshot.Decode", "hash: %v", err)
	}
	meta.Hash = string(hashBytes)
	epochID, err := readU64(r)
	if err != nil {
		return nil, Metadata{}, core.Errorf(core.Corruption, "snapshot.Decode", "epoch id: %v", err)
	}
	meta.EpochID = core.EpochMarker(epochID)
	createdAt, err := readU64(r)
	if err != nil {
		return nil, Metadata{}, core.Errorf(core.Corruption, "snapshot.Decode", "timestamp: %v", err)
	}
	meta.CreatedAt = int64(createdAt)

	g := cpg.NewGraph()
	nodeCount, err := readU64(r)
	if err != nil {
		return nil, Metadata{}, core.Errorf(core.Corruption, "snapshot.Decode", "node count: %v", err)
	}
	for i := uint64(0); i < nodeCount; i++ {
		n, err := decodeNode(r)
		if err != nil {
			return nil, Metadata{}, err
		}
		g.AddNode(n)
	}

	edgeCount, err := readU64(r)
	if err != nil {
		return nil, Metadata{}, core.Errorf(core.Corruption, "snapshot.Decode", "edge count: %v", err)
	}
	for i := uint64(0); i < edgeCount; i++ {
		e, err := decodeEdge(r)
		if err != nil {
			return nil, Metadata{}, err
		}
		g.AddEdge(e)
	}

	if got := g.ComputeHash(); got != meta.Hash {
		return nil, Metadata{}, core.Errorf(core.Corruption, "snapshot.Decode",
			"hash mismatch: stored %s, computed %s", meta.Hash, got)
	}
	return g, meta, nil
}

func encodeNode(w io.Writer, n *cpg.Node) error {
	if err := writeU64(w, uint64(n.ID)); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(n.Kind)}); err != nil {
		return err
	}
	if err := encodeOrigin(w, &n.Origin); err != nil {
		return err
	}
	if err := writeU64(w, n.SourceRange.Start); err != nil {
		return err
	}
	return writeU64(w, n.SourceRange.End)
}

func decodeNode(r io.Reader) (cpg.Node, error) {
	var n cpg.Node
	id, err := readU64(r)
	if err != nil {
		return n, core.Errorf(core.Corruption, "snapshot.Decode", "node id: %v", err)
	}
	n.ID = cpg.NodeID(id)
	kind, err := readByte(r)
	if err != nil {
		return n, core.Errorf(core.Corruption, "snapshot.Decode", "node kind: %v", err)
	}
	n.Kind = cpg.NodeKind(kind)
	if n.Origin, err = decodeOrigin(r); err != nil {
		return n, err
	}
	if n.SourceRange.Start, err = readU64(r); err != nil {
		return n, core.Errorf(core.Corruption, "snapshot.Decode", "range start: %v", err)
	}
	if n.SourceRange.End, err = readU64(r); err != nil {
		return n, core.Errorf(core.Corruption, "snapshot.Decode", "range end: %v", err)
	}
	return n, nil
}

func encodeEdge(w io.Writer, e *cpg.Edge) error {
	if err := writeU64(w, uint64(e.ID)); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(e.Kind)}); err != nil {
		return err
	}
	if err := writeU64(w, uint64(e.From)); err != nil {
		return err
	}
	return writeU64(w, uint64(e.To))
}

func decodeEdge(r io.Reader) (cpg.Edge, error) {
	var e cpg.Edge
	id, err := readU64(r)
	if err != nil {
		return e, core.Errorf(core.Corruption, "snapshot.Decode", "edge id: %v", err)
	}
	e.ID = cpg.EdgeID(id)
	kind, err := readByte(r)
	if err != nil {
		return e, core.Errorf(core.Corruption, "snapshot.Decode", "edge kind: %v", err)
	}
	e.Kind = cpg.EdgeKind(kind)
	from, err := readU64(r)
	if err != nil {
		return e, core.Errorf(core.Corruption, "snapshot.Decode", "edge from: %v", err)
	}
	e.From = cpg.NodeID(from)
	to, err := readU64(r)
	if err != nil {
		return e, core.Errorf(core.Corruption, "snapshot.Decode", "edge to: %v", err)
	}
	e.To = cpg.NodeID(to)
	return e, nil
}

// encodeOrigin writes the origin tag plus two payload words: the artifact
// identifier and zero, or the byte range bounds for AST origins.
func encodeOrigin(w io.Writer, o *cpg.OriginRef) error {
	if _, err := w.Write([]byte{byte(o.Kind)}); err != nil {
		return err
	}
	var a, b uint64
	switch o.Kind {
	case cpg.OriginFile:
		a = uint64(o.FileID)
	case cpg.OriginFunction:
		a = uint64(o.FunctionID)
	case cpg.OriginCfg:
		a = uint64(o.NodeID)
	case cpg.OriginDfg:
		a = uint64(o.ValueID)
	case cpg.OriginSymbol:
		a = uint64(o.SymbolID)
	case cpg.OriginAst:
		a = o.Range.Start
		b = o.Range.End
	}
	if err := writeU64(w, a); err != nil {
		return err
	}
	return writeU64(w, b)
}

func decodeOrigin(r io.Reader) (cpg.OriginRef, error) {
	var o cpg.OriginRef
	kind, err := readByte(r)
	if err != nil {
		return o, core.Errorf(core.Corruption, "snapshot.Decode", "origin kind: %v", err)
	}
	o.Kind = cpg.OriginKind(kind)
	a, err := readU64(r)
	if err != nil {
		return o, core.Errorf(core.Corruption, "snapshot.Decode", "origin payload: %v", err)
	}
	b, err := readU64(r)
	if err != nil {
		return o, core.Errorf(core.Corruption, "snapshot.Decode", "origin payload: %v", err)
	}
	switch o.Kind {
	case cpg.OriginFile:
		o.FileID = core.FileID(a)
	case cpg.OriginFunction:
		o.FunctionID = core.FunctionID(a)
	case cpg.OriginCfg:
		o.NodeID = core.NodeID(a)
	case cpg.OriginDfg:
		o.ValueID = core.ValueID(a)
	case cpg.OriginSymbol:
		o.SymbolID = core.SymbolID(a)
	case cpg.OriginAst:
		o.Range = core.ByteRange{Start: a, End: b}
	default:
		return o, core.Errorf(core.Corruption, "snapshot.Decode", "unknown origin kind %d", kind)
	}
	return o, nil
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeU64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeBytes(w io.Writer, b []byte) error {
	if err := writeU64(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func readBytes(r io.Reader) ([]byte, error) {
	n, err := readU64(r)
	if err != nil {
		return nil, err
	}
	const maxHeaderBytes = 1 << 16
	if n > maxHeaderBytes {
		return nil, io.ErrUnexpectedEOF
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

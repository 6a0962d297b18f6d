package cpg

import (
	"github.com/helixlabs/codeprism/core"
	"github.com/helixlabs/codeprism/semantic"
)

// Epoch owns the fused graph and its derived indices. It is constructed
// against a semantic epoch, which must outlive it. The graph is immutable
// once fusion returns; the indices are computed once and then read-only.
type Epoch struct {
	marker   core.EpochMarker
	semantic *semantic.Epoch
	graph    *Graph
	indices  *Indices
	closed   bool
}

// NewEpoch fuses the semantic epoch into a fresh CPG epoch, indices
// included.
func NewEpoch(sem *semantic.Epoch, marker core.EpochMarker) *Epoch {
	sem.Retain()
	graph := NewBuilder().Build(sem)
	return &Epoch{
		marker:   marker,
		semantic: sem,
		graph:    graph,
		indices:  BuildIndices(graph),
	}
}

// Graph returns the fused graph, read-only.
func (e *Epoch) Graph() *Graph {
	return e.graph
}

// Indices returns the derived index set, read-only.
func (e *Epoch) Indices() *Indices {
	return e.indices
}

// RebuildIndices recomputes the index set wholesale from the graph.
func (e *Epoch) RebuildIndices() {
	e.indices = BuildIndices(e.graph)
}

// Marker returns the epoch marker.
func (e *Epoch) Marker() core.EpochMarker {
	return e.marker
}

// Close drops the epoch and releases the parent.
func (e *Epoch) Close() error {
	if e.closed {
		return core.Errorf(core.StaleReference, "cpg.Close", "cpg epoch %d already closed", e.marker)
	}
	e.closed = true
	e.graph = nil
	e.indices = nil
	e.semantic.Release()
	return nil
}

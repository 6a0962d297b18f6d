package semantic

import (
	"github.com/helixlabs/codeprism/core"
	"github.com/helixlabs/codeprism/epoch"
)

// Epoch owns the semantic artifacts of all parsed files: CFGs, DFGs, symbol
// tables, and the invalidation tracker. It is constructed against a parse
// epoch, which must outlive it. Construction is single-threaded; after
// Build returns the epoch may be shared read-only.
type Epoch struct {
	marker  core.EpochMarker
	parse   *epoch.Parse
	cfgs    map[core.FileID][]*CFG
	dfgs    map[core.FileID][]*DFG
	symbols map[core.FileID]*SymbolTable
	order   []core.FileID
	tracker *InvalidationTracker

	children int
	closed   bool
}

// NewEpoch creates an empty semantic epoch layered on a parse epoch.
func NewEpoch(parseEpoch *epoch.Parse, marker core.EpochMarker) *Epoch {
	parseEpoch.Retain()
	return &Epoch{
		marker:  marker,
		parse:   parseEpoch,
		cfgs:    make(map[core.FileID][]*CFG),
		dfgs:    make(map[core.FileID][]*DFG),
		symbols: make(map[core.FileID]*SymbolTable),
		tracker: NewInvalidationTracker(),
	}
}

// Build runs the symbol, CFG, and DFG builders over every parsed file in
// insertion order. All identifier counters are owned here and start from
// zero within the epoch.
func (e *Epoch) Build() error {
	var nodeIDs, funcIDs, valueIDs, edgeIDs, scopeIDs, symbolIDs core.Counter

	for _, fileID := range e.parse.FileIDs() {
		parsed, err := e.parse.Tree(fileID)
		if err != nil {
			return err
		}

		table := NewSymbolTable(fileID, &scopeIDs, &symbolIDs)
		table.Build(parsed)
		e.symbols[fileID] = table

		cfgs := NewCFGBuilder(fileID, parsed.Source, &nodeIDs, &funcIDs).BuildAll(parsed)
		e.cfgs[fileID] = cfgs

		for _, cfg := range cfgs {
			dfg := NewDFGBuilder(cfg, table, &valueIDs, &edgeIDs).Build()
			e.dfgs[fileID] = append(e.dfgs[fileID], dfg)

			nodes := make([]core.NodeID, 0, len(cfg.Nodes))
			for _, n := range cfg.Nodes {
				nodes = append(nodes, n.ID)
				e.tracker.TrackASTToCFG(n.SourceRange, n.ID)
			}
			e.tracker.TrackFunction(cfg.FunctionID, cfg.SourceRange, nodes)
			for _, edge := range dfg.Edges {
				e.tracker.TrackCFGToDFG(edge.Origin, edge.ID)
			}
		}

		e.order = append(e.order, fileID)
	}
	return nil
}

// FileIDs returns the analyzed files in insertion order.
func (e *Epoch) FileIDs() []core.FileID {
	ids := make([]core.FileID, len(e.order))
	copy(ids, e.order)
	return ids
}

// CFGs returns the file's control-flow graphs in tree-declaration order.
func (e *Epoch) CFGs(fileID core.FileID) []*CFG {
	return e.cfgs[fileID]
}

// DFGs returns the file's data-flow graphs, parallel to CFGs.
func (e *Epoch) DFGs(fileID core.FileID) []*DFG {
	return e.dfgs[fileID]
}

// Symbols returns the file's symbol table.
func (e *Epoch) Symbols(fileID core.FileID) *SymbolTable {
	return e.symbols[fileID]
}

// Tracker returns the epoch's invalidation tracker.
func (e *Epoch) Tracker() *InvalidationTracker {
	return e.tracker
}

// Marker returns the epoch marker.
func (e *Epoch) Marker() core.EpochMarker {
	return e.marker
}

// Retain records a child epoch referencing this one.
func (e *Epoch) Retain() {
	e.children++
}

// Release drops a child reference.
func (e *Epoch) Release() {
	e.children--
}

// Close drops the epoch's artifacts and releases the parent.
func (e *Epoch) Close() error {
	if e.children > 0 {
		return core.Errorf(core.StaleReference, "semantic.Close", "semantic epoch %d has %d live children", e.marker, e.children)
	}
	if e.closed {
		return core.Errorf(core.StaleReference, "semantic.Close", "semantic epoch %d already closed", e.marker)
	}
	e.closed = true
	e.cfgs = nil
	e.dfgs = nil
	e.symbols = nil
	e.tracker = nil
	e.order = nil
	e.parse.Release()
	return nil
}

// Package analysis implements the bounded analyses that run over a
// read-only CPG: Andersen-style pointer/alias analysis and taint
// propagation. Both are deterministic and structurally bounded; neither
// exposes a wall-clock timeout.
package analysis

import (
	"github.com/helixlabs/codeprism/core"
	"github.com/helixlabs/codeprism/cpg"
)

const (
	// maxPointsToSize caps a points-to set before it degrades to Unknown.
	maxPointsToSize = 100

	// maxPointerPasses caps fixed-point iteration.
	maxPointerPasses = 100
)

// PointsToSet is either a known set of value identifiers or Unknown, which
// denotes "overflowed cap, treat as may-alias-any".
type PointsToSet struct {
	Unknown bool
	targets map[core.ValueID]bool
}

// Contains reports whether the set includes a target. Unknown contains
// everything.
func (s *PointsToSet) Contains(v core.ValueID) bool {
	if s.Unknown {
		return true
	}
	return s.targets[v]
}

// Size returns the number of known targets; meaningless when Unknown.
func (s *PointsToSet) Size() int {
	return len(s.targets)
}

// PointerAnalysis holds flow-insensitive points-to results per DFG value.
type PointerAnalysis struct {
	pointsTo map[core.ValueID]*PointsToSet
	order    []core.ValueID
	complete bool
	passes   int
}

// AnalyzePointers runs the bounded Andersen-style analysis over the graph.
//
// Every DfgValue node is seeded with its own allocation site. Each pass
// scans every DataFlow edge x -> y in CPG edge order performing
// pts(y) = pts(y) union pts(x), until a pass makes no change or the pass
// cap is exhausted. A set exceeding the size cap degrades to Unknown and
// marks the analysis incomplete; an Unknown source contributes no change.
func AnalyzePointers(g *cpg.Graph) *PointerAnalysis {
	a := &PointerAnalysis{
		pointsTo: make(map[core.ValueID]*PointsToSet),
		complete: true,
	}

	for _, n := range g.Nodes {
		if n.Kind != cpg.NodeDfg || n.Origin.Kind != cpg.OriginDfg {
			continue
		}
		v := n.Origin.ValueID
		a.pointsTo[v] = &PointsToSet{targets: map[core.ValueID]bool{v: true}}
		a.order = append(a.order, v)
	}

	type flow struct {
		from core.ValueID
		to   core.ValueID
	}
	var flows []flow
	for _, e := range g.Edges {
		if e.Kind != cpg.EdgeDataFlow {
			continue
		}
		fromNode, okFrom := g.Node(e.From)
		toNode, okTo := g.Node(e.To)
		if !okFrom || !okTo {
			continue
		}
		if fromNode.Origin.Kind != cpg.OriginDfg || toNode.Origin.Kind != cpg.OriginDfg {
			continue
		}
		flows = append(flows, flow{from: fromNode.Origin.ValueID, to: toNode.Origin.ValueID})
	}

	changed := true
	for a.passes = 0; changed && a.passes < maxPointerPasses; a.passes++ {
		changed = false
		for _, f := range flows {
			if a.propagate(f.from, f.to) {
				changed = true
			}
		}
	}
	if changed {
		a.complete = false
	}

	return a
}

// propagate unions pts(from) into pts(to), reporting whether pts(to) grew.
func (a *PointerAnalysis) propagate(from, to core.ValueID) bool {
	src, ok := a.pointsTo[from]
	if !ok || src.Unknown {
		return false
	}
	dst, ok := a.pointsTo[to]
	if !ok || dst.Unknown {
		return false
	}

	grew := false
	for v := range src.targets {
		if !dst.targets[v] {
			dst.targets[v] = true
			grew = true
		}
	}
	if len(dst.targets) > maxPointsToSize {
		dst.Unknown = true
		dst.targets = nil
		a.complete = false
		return true
	}
	return grew
}

// PointsTo returns the points-to set for a value.
func (a *PointerAnalysis) PointsTo(v core.ValueID) (*PointsToSet, bool) {
	s, ok := a.pointsTo[v]
	return s, ok
}

// IsComplete reports whether the analysis finished without exhausting the
// pass cap and without any set overflowing.
func (a *PointerAnalysis) IsComplete() bool {
	return a.complete
}

// Err returns a CapacityExceeded error when the analysis was bounded, nil
// otherwise. The results remain valid either way.
func (a *PointerAnalysis) Err() error {
	if a.complete {
		return nil
	}
	return core.Errorf(core.CapacityExceeded, "analysis.pointer",
		"points-to iteration bounded after %d passes", a.passes)
}

// PointerStats summarizes a pointer analysis run.
type PointerStats struct {
	ValuesAnalyzed int
	KnownSets      int
	UnknownSets    int
	TotalTargets   int
	Passes         int
	Complete       bool
}

// Stats returns summary counters for reporting.
func (a *PointerAnalysis) Stats() PointerStats {
	stats := PointerStats{
		ValuesAnalyzed: len(a.order),
		Passes:         a.passes,
		Complete:       a.complete,
	}
	for _, v := range a.order {
		s := a.pointsTo[v]
		if s.Unknown {
			stats.UnknownSets++
			continue
		}
		stats.KnownSets++
		stats.TotalTargets += len(s.targets)
	}
	return stats
}

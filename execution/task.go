// Package execution compiles queries into plans of staged tasks and runs
// them with the parallel-compute / serial-commit discipline: arbitrary
// parallelism inside a stage, a fixed commit order between stages.
package execution

import (
	"github.com/helixlabs/codeprism/cpg"
)

// TaskID identifies a task within a plan.
type TaskID uint64

// WorkKind is the closed set of work fragments a task may carry.
type WorkKind int

const (
	WorkFindNodes WorkKind = iota
	WorkFollowEdges
	WorkFilter
	WorkIntersect
)

// String returns the kind name.
func (k WorkKind) String() string {
	switch k {
	case WorkFindNodes:
		return "FindNodes"
	case WorkFollowEdges:
		return "FollowEdges"
	case WorkFilter:
		return "Filter"
	case WorkIntersect:
		return "Intersect"
	default:
		return "Unknown"
	}
}

// WorkFragment is one independent computation over the read-only CPG. The
// populated fields depend on Kind.
type WorkFragment struct {
	Kind WorkKind

	// NodeKind selects the kind for FindNodes and, when HasNodeKind is
	// set, the Filter predicate.
	NodeKind    cpg.NodeKind
	HasNodeKind bool

	// EdgeKind and From drive FollowEdges.
	EdgeKind cpg.EdgeKind
	From     []cpg.NodeID

	// Nodes is the Filter input.
	Nodes []cpg.NodeID

	// A and B are the Intersect inputs.
	A []cpg.NodeID
	B []cpg.NodeID
}

// Task bundles a work fragment with its dependencies and result slot.
type Task struct {
	ID           TaskID
	Work         WorkFragment
	Dependencies []TaskID
	ResultSlot   int

	// result holds the computed output between stage execution and commit.
	result Result
}

// NewTask creates a task.
func NewTask(id TaskID, work WorkFragment, deps []TaskID, slot int) Task {
	return Task{ID: id, Work: work, Dependencies: deps, ResultSlot: slot}
}

// IsReady reports whether every dependency has completed.
func (t *Task) IsReady(completed map[TaskID]bool) bool {
	for _, dep := range t.Dependencies {
		if !completed[dep] {
			return false
		}
	}
	return true
}

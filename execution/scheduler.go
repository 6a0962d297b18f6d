package execution

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/helixlabs/codeprism/core"
	"github.com/helixlabs/codeprism/cpg"
	"github.com/helixlabs/codeprism/query"
)

// Result is one task's output sequence.
type Result []cpg.NodeID

// Scheduler executes plans over a shared read-only CPG. Stages run in
// order; within a stage tasks execute in parallel up to the worker limit,
// write into private result slots, and are committed serially in the
// stage's order once every task has finished. The committed sequence is a
// function of the plan and the CPG only, never of thread count or timing.
type Scheduler struct {
	workers int
}

// NewScheduler creates a scheduler with the given worker limit.
func NewScheduler(workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{workers: workers}
}

// Workers returns the configured worker limit.
func (s *Scheduler) Workers() int {
	return s.workers
}

// Execute runs the plan and returns the concatenated per-stage commits.
func (s *Scheduler) Execute(ctx context.Context, plan *Plan, g *cpg.Graph) ([]Result, error) {
	var committed []Result
	completed := make(map[TaskID]bool)

	for i := range plan.Stages {
		stage := &plan.Stages[i]
		if err := s.executeStage(ctx, stage, g, completed); err != nil {
			return nil, err
		}

		for _, task := range stage.TasksInCommitOrder() {
			committed = append(committed, task.result)
		}
		for i := range stage.Tasks {
			completed[stage.Tasks[i].ID] = true
		}
	}
	return committed, nil
}

func (s *Scheduler) executeStage(ctx context.Context, stage *Stage, g *cpg.Graph, completed map[TaskID]bool) error {
	for i := range stage.Tasks {
		if !stage.Tasks[i].IsReady(completed) {
			return core.Errorf(core.MalformedInput, "execution.Execute",
				"task %d has unmet dependencies inside its own stage", stage.Tasks[i].ID)
		}
	}

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(s.workers)
	for i := range stage.Tasks {
		task := &stage.Tasks[i]
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			task.result = executeFragment(g, &task.Work)
			return nil
		})
	}
	return grp.Wait()
}

// executeFragment dispatches over the closed work fragment set.
func executeFragment(g *cpg.Graph, w *WorkFragment) Result {
	switch w.Kind {
	case WorkFindNodes:
		return query.FindNodes(g, w.NodeKind)
	case WorkFollowEdges:
		var out []cpg.NodeID
		for _, from := range w.From {
			out = append(out, query.FollowEdge(g, from, w.EdgeKind)...)
		}
		return out
	case WorkFilter:
		var kind *cpg.NodeKind
		if w.HasNodeKind {
			kind = &w.NodeKind
		}
		return query.Filter(g, w.Nodes, kind)
	case WorkIntersect:
		return query.Intersect(w.A, w.B)
	default:
		return nil
	}
}

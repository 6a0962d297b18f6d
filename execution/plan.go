package execution

import (
	"sort"
)

// CommitOrder selects how a stage's results are sequenced at commit time.
type CommitOrder int

const (
	// CommitByTaskID sorts tasks by identifier before emitting.
	CommitByTaskID CommitOrder = iota
	// CommitStable preserves task insertion order.
	CommitStable
)

// Stage is an unordered bag of tasks whose dependencies all lie in prior
// stages, plus the commit order imposed on its results.
type Stage struct {
	Tasks       []Task
	CommitOrder CommitOrder
}

// NewStage creates a stage.
func NewStage(tasks []Task, order CommitOrder) Stage {
	return Stage{Tasks: tasks, CommitOrder: order}
}

// TasksInCommitOrder returns the stage's tasks in the order their results
// are committed.
func (s *Stage) TasksInCommitOrder() []*Task {
	ordered := make([]*Task, len(s.Tasks))
	for i := range s.Tasks {
		ordered[i] = &s.Tasks[i]
	}
	if s.CommitOrder == CommitByTaskID {
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	}
	return ordered
}

// Plan is an ordered list of stages.
type Plan struct {
	Stages []Stage
}

// NewPlan creates an empty plan.
func NewPlan() *Plan {
	return &Plan{}
}

// AddStage appends a stage.
func (p *Plan) AddStage(stage Stage) {
	p.Stages = append(p.Stages, stage)
}

// TaskCount returns the total number of tasks across stages.
func (p *Plan) TaskCount() int {
	count := 0
	for _, s := range p.Stages {
		count += len(s.Tasks)
	}
	return count
}

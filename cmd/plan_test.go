package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlabs/codeprism/cpg"
	"github.com/helixlabs/codeprism/execution"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadPlan(t *testing.T) {
	path := writeTempFile(t, "plan.yaml", `
stages:
  - commit_order: task_id
    tasks:
      - id: 3
        work: find_nodes
        node_kind: Function
        result_slot: 0
      - id: 1
        work: find_nodes
        node_kind: CfgNode
        result_slot: 1
  - commit_order: stable
    tasks:
      - id: 5
        work: follow_edges
        edge_kind: ControlFlow
        from: [0, 1]
        dependencies: [1, 3]
        result_slot: 0
`)

	plan, err := loadPlan(path)
	require.NoError(t, err)
	require.Len(t, plan.Stages, 2)
	assert.Equal(t, 3, plan.TaskCount())

	first := plan.Stages[0]
	assert.Equal(t, execution.CommitByTaskID, first.CommitOrder)
	assert.Equal(t, execution.TaskID(3), first.Tasks[0].ID)
	assert.Equal(t, cpg.NodeFunction, first.Tasks[0].Work.NodeKind)

	second := plan.Stages[1]
	assert.Equal(t, execution.CommitStable, second.CommitOrder)
	assert.Equal(t, execution.WorkFollowEdges, second.Tasks[0].Work.Kind)
	assert.Equal(t, []cpg.NodeID{0, 1}, second.Tasks[0].Work.From)
	assert.Equal(t, []execution.TaskID{1, 3}, second.Tasks[0].Dependencies)
}

func TestLoadPlanRejectsUnknownKinds(t *testing.T) {
	path := writeTempFile(t, "plan.yaml", `
stages:
  - tasks:
      - id: 1
        work: find_nodes
        node_kind: Nonsense
        result_slot: 0
`)
	_, err := loadPlan(path)
	assert.Error(t, err)

	path = writeTempFile(t, "plan2.yaml", `
stages:
  - tasks:
      - id: 1
        work: teleport
        result_slot: 0
`)
	_, err = loadPlan(path)
	assert.Error(t, err)
}

func TestLoadPlanFilterFragment(t *testing.T) {
	path := writeTempFile(t, "plan.yaml", `
stages:
  - tasks:
      - id: 1
        work: filter
        nodes: [1, 2, 3]
        node_kind: Symbol
        result_slot: 0
      - id: 2
        work: intersect
        a: [1, 2]
        b: [2, 3]
        result_slot: 1
`)
	plan, err := loadPlan(path)
	require.NoError(t, err)

	filter := plan.Stages[0].Tasks[0].Work
	assert.True(t, filter.HasNodeKind)
	assert.Equal(t, cpg.NodeSymbol, filter.NodeKind)

	intersect := plan.Stages[0].Tasks[1].Work
	assert.Equal(t, []cpg.NodeID{1, 2}, intersect.A)
	assert.Equal(t, []cpg.NodeID{2, 3}, intersect.B)
}

package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/helixlabs/codeprism/cpg"
	"github.com/helixlabs/codeprism/execution"
)

// planFile is the YAML form of an execution plan.
type planFile struct {
	Stages []stageFile `yaml:"stages"`
}

type stageFile struct {
	CommitOrder string     `yaml:"commit_order"`
	Tasks       []taskFile `yaml:"tasks"`
}

type taskFile struct {
	ID           uint64   `yaml:"id"`
	Work         string   `yaml:"work"`
	NodeKind     string   `yaml:"node_kind,omitempty"`
	EdgeKind     string   `yaml:"edge_kind,omitempty"`
	From         []uint64 `yaml:"from,omitempty"`
	Nodes        []uint64 `yaml:"nodes,omitempty"`
	A            []uint64 `yaml:"a,omitempty"`
	B            []uint64 `yaml:"b,omitempty"`
	Dependencies []uint64 `yaml:"dependencies,omitempty"`
	ResultSlot   int      `yaml:"result_slot"`
}

// loadPlan reads and compiles a YAML plan file.
func loadPlan(path string) (*execution.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file planFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing plan %s: %w", path, err)
	}

	plan := execution.NewPlan()
	for _, s := range file.Stages {
		order := execution.CommitByTaskID
		switch s.CommitOrder {
		case "", "task_id":
		case "stable":
			order = execution.CommitStable
		default:
			return nil, fmt.Errorf("unknown commit order %q", s.CommitOrder)
		}

		var tasks []execution.Task
		for _, t := range s.Tasks {
			work, err := compileWork(t)
			if err != nil {
				return nil, err
			}
			var deps []execution.TaskID
			for _, d := range t.Dependencies {
				deps = append(deps, execution.TaskID(d))
			}
			tasks = append(tasks, execution.NewTask(execution.TaskID(t.ID), work, deps, t.ResultSlot))
		}
		plan.AddStage(execution.NewStage(tasks, order))
	}
	return plan, nil
}

func compileWork(t taskFile) (execution.WorkFragment, error) {
	switch t.Work {
	case "find_nodes":
		kind, err := parseNodeKind(t.NodeKind)
		if err != nil {
			return execution.WorkFragment{}, err
		}
		return execution.WorkFragment{Kind: execution.WorkFindNodes, NodeKind: kind}, nil
	case "follow_edges":
		kind, err := parseEdgeKind(t.EdgeKind)
		if err != nil {
			return execution.WorkFragment{}, err
		}
		return execution.WorkFragment{
			Kind:     execution.WorkFollowEdges,
			EdgeKind: kind,
			From:     toNodeIDs(t.From),
		}, nil
	case "filter":
		frag := execution.WorkFragment{Kind: execution.WorkFilter, Nodes: toNodeIDs(t.Nodes)}
		if t.NodeKind != "" {
			kind, err := parseNodeKind(t.NodeKind)
			if err != nil {
				return execution.WorkFragment{}, err
			}
			frag.NodeKind = kind
			frag.HasNodeKind = true
		}
		return frag, nil
	case "intersect":
		return execution.WorkFragment{
			Kind: execution.WorkIntersect,
			A:    toNodeIDs(t.A),
			B:    toNodeIDs(t.B),
		}, nil
	default:
		return execution.WorkFragment{}, fmt.Errorf("unknown work fragment %q", t.Work)
	}
}

func parseNodeKind(name string) (cpg.NodeKind, error) {
	for _, k := range cpg.NodeKinds() {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown node kind %q", name)
}

func parseEdgeKind(name string) (cpg.EdgeKind, error) {
	for _, k := range cpg.EdgeKinds() {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown edge kind %q", name)
}

func toNodeIDs(in []uint64) []cpg.NodeID {
	var out []cpg.NodeID
	for _, v := range in {
		out = append(out, cpg.NodeID(v))
	}
	return out
}

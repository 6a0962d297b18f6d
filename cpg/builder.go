package cpg

import (
	"regexp"
	"sort"

	"github.com/helixlabs/codeprism/core"
	"github.com/helixlabs/codeprism/semantic"
)

var callPattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// Builder fuses a semantic epoch into a CPG. Fusion is purely mechanical:
// no source transformation, no inference, no dedup. The fusion order is
// fixed and never varies:
//
//  1. Files in ascending FileID order.
//  2. Within a file, Function nodes in ascending FunctionID order.
//  3. Within a function, CFG nodes then CFG edges, in insertion order.
//  4. Within a function, DFG values then DFG edges, in insertion order.
//  5. Within a file, file-scope symbols in declaration order, with their
//     Defines edges.
//
// Call sites resolved against file-scope function symbols contribute Calls
// and Uses edges after step 5, per file.
type Builder struct {
	nodeIDs core.Counter
	edgeIDs core.Counter
}

// NewBuilder creates a builder with fresh identifier counters.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build fuses the semantic epoch into a new graph.
func (b *Builder) Build(sem *semantic.Epoch) *Graph {
	g := NewGraph()

	fileIDs := sem.FileIDs()
	sort.Slice(fileIDs, func(i, j int) bool { return fileIDs[i] < fileIDs[j] })

	for _, fileID := range fileIDs {
		b.fuseFile(g, sem, fileID)
	}
	return g
}

func (b *Builder) fuseFile(g *Graph, sem *semantic.Epoch, fileID core.FileID) {
	g.AddNode(Node{
		ID:     b.nextNode(),
		Kind:   NodeFile,
		Origin: FileOrigin(fileID),
	})

	cfgs := append([]*semantic.CFG(nil), sem.CFGs(fileID)...)
	sort.Slice(cfgs, func(i, j int) bool { return cfgs[i].FunctionID < cfgs[j].FunctionID })

	dfgByFunc := make(map[core.FunctionID]*semantic.DFG)
	for _, dfg := range sem.DFGs(fileID) {
		dfgByFunc[dfg.FunctionID] = dfg
	}

	cfgToCPG := make(map[core.NodeID]NodeID)
	dfgToCPG := make(map[core.ValueID]NodeID)
	funcByName := make(map[string]NodeID)

	for _, cfg := range cfgs {
		funcNode := Node{
			ID:          b.nextNode(),
			Kind:        NodeFunction,
			Origin:      FunctionOrigin(cfg.FunctionID),
			SourceRange: cfg.SourceRange,
			Label:       cfg.Name,
		}
		g.AddNode(funcNode)
		if _, taken := funcByName[cfg.Name]; !taken {
			funcByName[cfg.Name] = funcNode.ID
		}

		for _, n := range cfg.Nodes {
			id := b.nextNode()
			cfgToCPG[n.ID] = id
			g.AddNode(Node{
				ID:          id,
				Kind:        NodeCfg,
				Origin:      CfgOrigin(n.ID),
				SourceRange: n.SourceRange,
				Label:       n.Kind.String(),
			})
		}
		for _, e := range cfg.Edges {
			g.AddEdge(Edge{
				ID:   b.nextEdge(),
				Kind: EdgeControlFlow,
				From: cfgToCPG[e.From],
				To:   cfgToCPG[e.To],
			})
		}

		dfg := dfgByFunc[cfg.FunctionID]
		if dfg == nil {
			continue
		}
		for _, v := range dfg.Values {
			id := b.nextNode()
			dfgToCPG[v.ID] = id
			g.AddNode(Node{
				ID:          id,
				Kind:        NodeDfg,
				Origin:      DfgOrigin(v.ID),
				SourceRange: v.SourceRange,
				Label:       v.Name,
			})
		}
		for _, e := range dfg.Edges {
			g.AddEdge(Edge{
				ID:   b.nextEdge(),
				Kind: EdgeDataFlow,
				From: dfgToCPG[e.From],
				To:   dfgToCPG[e.To],
			})
		}
	}

	table := sem.Symbols(fileID)
	if table == nil {
		return
	}
	symbolByName := make(map[string]NodeID)
	for _, sym := range table.SymbolsInScope(table.FileScope()) {
		id := b.nextNode()
		symbolByName[sym.Name] = id
		g.AddNode(Node{
			ID:          id,
			Kind:        NodeSymbol,
			Origin:      SymbolOrigin(sym.ID),
			SourceRange: sym.SourceRange,
			Label:       sym.Name,
		})
		if sym.Kind == semantic.SymbolFunction {
			if fnNode, ok := funcByName[sym.Name]; ok {
				g.AddEdge(Edge{
					ID:   b.nextEdge(),
					Kind: EdgeDefines,
					From: id,
					To:   fnNode,
				})
			}
		}
	}

	b.fuseCalls(g, cfgs, table, cfgToCPG, funcByName, symbolByName)
}

// fuseCalls resolves call sites in statement text against the file's
// function symbols and emits Calls and Uses edges for each resolved callee.
func (b *Builder) fuseCalls(
	g *Graph,
	cfgs []*semantic.CFG,
	table *semantic.SymbolTable,
	cfgToCPG map[core.NodeID]NodeID,
	funcByName map[string]NodeID,
	symbolByName map[string]NodeID,
) {
	for _, cfg := range cfgs {
		for _, n := range cfg.Nodes {
			if n.Kind != semantic.CFGStatement {
				continue
			}
			for _, m := range callPattern.FindAllStringSubmatch(n.Statement, -1) {
				callee := m[1]
				sym, ok := table.Lookup(callee, table.FileScope())
				if !ok || sym.Kind != semantic.SymbolFunction {
					continue
				}
				fnNode, ok := funcByName[callee]
				if !ok {
					continue
				}
				g.AddEdge(Edge{
					ID:   b.nextEdge(),
					Kind: EdgeCalls,
					From: cfgToCPG[n.ID],
					To:   fnNode,
				})
				if symNode, ok := symbolByName[callee]; ok {
					g.AddEdge(Edge{
						ID:   b.nextEdge(),
						Kind: EdgeUses,
						From: cfgToCPG[n.ID],
						To:   symNode,
					})
				}
			}
		}
	}
}

func (b *Builder) nextNode() NodeID {
	return NodeID(b.nodeIDs.Next())
}

func (b *Builder) nextEdge() EdgeID {
	return EdgeID(b.edgeIDs.Next())
}

package semantic

import (
	"regexp"
	"strings"

	"github.com/helixlabs/codeprism/core"
)

var (
	letPattern    = regexp.MustCompile(`^let\s+(?:mut\s+)?([A-Za-z_][A-Za-z0-9_]*)`)
	assignPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*[+\-*/]?=([^=]|$)`)
	identPattern  = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
)

var rustKeywords = map[string]bool{
	"let": true, "mut": true, "if": true, "else": true, "while": true,
	"loop": true, "for": true, "match": true, "return": true, "break": true,
	"continue": true, "fn": true, "true": true, "false": true, "in": true,
	"as": true, "ref": true, "move": true, "pub": true, "use": true,
	"mod": true, "struct": true, "enum": true, "impl": true, "self": true,
	"Self": true,
}

// DFGBuilder constructs the data-flow graph of one function from its CFG
// and the file's symbol table. Definitions and uses are identified from
// statement text; reaching definitions are propagated along the CFG in a
// deterministic topological order, with phi-like merges synthesized at
// control-flow joins.
type DFGBuilder struct {
	cfg      *CFG
	symbols  *SymbolTable
	valueIDs *core.Counter
	edgeIDs  *core.Counter

	dfg      *DFG
	varOrder []string
	varSeen  map[string]bool
}

// NewDFGBuilder creates a builder for one function.
func NewDFGBuilder(cfg *CFG, symbols *SymbolTable, valueIDs, edgeIDs *core.Counter) *DFGBuilder {
	return &DFGBuilder{
		cfg:      cfg,
		symbols:  symbols,
		valueIDs: valueIDs,
		edgeIDs:  edgeIDs,
		dfg:      NewDFG(cfg.FunctionID),
		varSeen:  make(map[string]bool),
	}
}

// Build walks the CFG and returns the populated DFG.
func (b *DFGBuilder) Build() *DFG {
	order := b.topoOrder()
	defsOut := make(map[core.NodeID]map[string]core.ValueID)

	for _, nodeID := range order {
		node, ok := b.cfg.Node(nodeID)
		if !ok {
			continue
		}
		in := b.mergedIn(nodeID, defsOut)

		switch node.Kind {
		case CFGEntry:
			for pos, param := range b.symbols.Parameters(b.cfg.Name) {
				v := b.newValue(DFGValue{
					Kind:        ValueParameter,
					Name:        param.Name,
					Position:    pos,
					SourceRange: param.SourceRange,
				})
				b.note(param.Name)
				in[param.Name] = v
			}
		case CFGStatement:
			b.processStatement(node, in)
		}

		defsOut[nodeID] = in
	}

	b.mergeLoopBackEdges(defsOut)
	return b.dfg
}

// processStatement extracts the statement's definition and uses and wires
// the corresponding values and edges. in is updated in place with the new
// definition.
func (b *DFGBuilder) processStatement(node *CFGNode, in map[string]core.ValueID) {
	text := node.Statement

	if m := letPattern.FindStringSubmatch(text); m != nil {
		b.defineVariable(node, m[1], rhsOf(text), in, false)
		return
	}
	if m := assignPattern.FindStringSubmatch(text); m != nil && !strings.HasPrefix(text, "return") {
		b.defineVariable(node, m[1], rhsOf(text), in, true)
		return
	}
	if strings.HasPrefix(text, "return") {
		uses := b.resolveUses(strings.TrimPrefix(text, "return"), in)
		if len(uses) == 0 {
			return
		}
		temp := b.newValue(DFGValue{
			Kind:        ValueTemporary,
			Name:        "<return>",
			SourceRange: node.SourceRange,
		})
		for _, use := range uses {
			b.newEdge(use, temp, EdgeUse, node.ID)
		}
	}
}

// defineVariable records a fresh definition of name at node, flowing each
// used reaching definition into it. Reassignments additionally chain the
// previous definition with a Definition edge.
func (b *DFGBuilder) defineVariable(node *CFGNode, name, rhs string, in map[string]core.ValueID, reassign bool) {
	uses := b.resolveUses(rhs, in)

	v := b.newValue(DFGValue{
		Kind:        ValueVariable,
		Name:        name,
		SourceRange: node.SourceRange,
	})
	b.note(name)

	for _, use := range uses {
		b.newEdge(use, v, EdgeUse, node.ID)
	}
	if reassign {
		if old, ok := in[name]; ok {
			b.newEdge(old, v, EdgeDefinition, node.ID)
		}
	}
	in[name] = v
}

// resolveUses returns the reaching definitions of the variables named in
// text, in first-occurrence order. Names with no reaching definition are
// not uses.
func (b *DFGBuilder) resolveUses(text string, in map[string]core.ValueID) []core.ValueID {
	var uses []core.ValueID
	seen := make(map[string]bool)
	for _, ident := range identPattern.FindAllString(text, -1) {
		if rustKeywords[ident] || seen[ident] {
			continue
		}
		seen[ident] = true
		if def, ok := in[ident]; ok {
			uses = append(uses, def)
		}
	}
	return uses
}

// mergedIn computes the reaching definitions at node entry. At joins, a
// variable whose forward predecessors disagree gets a synthetic phi-like
// value fed by each predecessor's definition, in CFG edge order. Continue
// back-edges are excluded here and reconciled by mergeLoopBackEdges.
func (b *DFGBuilder) mergedIn(nodeID core.NodeID, defsOut map[core.NodeID]map[string]core.ValueID) map[string]core.ValueID {
	var preds []core.NodeID
	for _, e := range b.cfg.Edges {
		if e.To == nodeID && e.Kind != EdgeContinue {
			preds = append(preds, e.From)
		}
	}

	in := make(map[string]core.ValueID)
	switch len(preds) {
	case 0:
		return in
	case 1:
		for name, v := range defsOut[preds[0]] {
			in[name] = v
		}
		return in
	}

	for _, name := range b.varOrder {
		var defs []core.ValueID
		distinct := make(map[core.ValueID]bool)
		for _, pred := range preds {
			if v, ok := defsOut[pred][name]; ok {
				defs = append(defs, v)
				distinct[v] = true
			}
		}
		switch {
		case len(defs) == 0:
		case len(distinct) == 1:
			in[name] = defs[0]
		default:
			phi := b.newValue(DFGValue{Kind: ValueVariable, Name: name})
			for _, def := range defs {
				b.newEdge(def, phi, EdgePhiLike, nodeID)
			}
			in[name] = phi
		}
	}
	return in
}

// mergeLoopBackEdges synthesizes phi-like values at loop headers whose
// Continue predecessor redefines a variable. Uses inside the loop body stay
// bound to the pre-loop definitions; this is the phi approximation, not SSA.
func (b *DFGBuilder) mergeLoopBackEdges(defsOut map[core.NodeID]map[string]core.ValueID) {
	for _, node := range b.cfg.Nodes {
		if node.Kind != CFGLoopHeader {
			continue
		}
		var forward, back []core.NodeID
		for _, e := range b.cfg.Edges {
			if e.To != node.ID {
				continue
			}
			if e.Kind == EdgeContinue {
				back = append(back, e.From)
			} else {
				forward = append(forward, e.From)
			}
		}
		if len(back) == 0 {
			continue
		}
		for _, name := range b.varOrder {
			var defs []core.ValueID
			distinct := make(map[core.ValueID]bool)
			for _, pred := range forward {
				if v, ok := defsOut[pred][name]; ok {
					defs = append(defs, v)
					distinct[v] = true
				}
			}
			for _, pred := range back {
				if v, ok := defsOut[pred][name]; ok {
					defs = append(defs, v)
					distinct[v] = true
				}
			}
			if len(distinct) < 2 {
				continue
			}
			phi := b.newValue(DFGValue{Kind: ValueVariable, Name: name})
			for _, def := range defs {
				b.newEdge(def, phi, EdgePhiLike, node.ID)
			}
		}
	}
}

// topoOrder returns the CFG nodes in a deterministic topological order over
// the forward edges, with insertion order breaking ties. Continue back-edges
// are ignored so loops do not deadlock the ordering.
func (b *DFGBuilder) topoOrder() []core.NodeID {
	indegree := make(map[core.NodeID]int, len(b.cfg.Nodes))
	for _, n := range b.cfg.Nodes {
		indegree[n.ID] = 0
	}
	for _, e := range b.cfg.Edges {
		if e.Kind == EdgeContinue {
			continue
		}
		indegree[e.To]++
	}

	done := make(map[core.NodeID]bool, len(b.cfg.Nodes))
	order := make([]core.NodeID, 0, len(b.cfg.Nodes))
	for len(order) < len(b.cfg.Nodes) {
		progressed := false
		for _, n := range b.cfg.Nodes {
			if done[n.ID] || indegree[n.ID] > 0 {
				continue
			}
			done[n.ID] = true
			order = append(order, n.ID)
			for _, e := range b.cfg.Edges {
				if e.Kind != EdgeContinue && e.From == n.ID {
					indegree[e.To]--
				}
			}
			progressed = true
		}
		if !progressed {
			// Malformed region: emit the rest in insertion order.
			for _, n := range b.cfg.Nodes {
				if !done[n.ID] {
					done[n.ID] = true
					order = append(order, n.ID)
				}
			}
		}
	}
	return order
}

func (b *DFGBuilder) note(name string) {
	if !b.varSeen[name] {
		b.varSeen[name] = true
		b.varOrder = append(b.varOrder, name)
	}
}

func (b *DFGBuilder) newValue(v DFGValue) core.ValueID {
	v.ID = core.ValueID(b.valueIDs.Next())
	b.dfg.AddValue(v)
	return v.ID
}

func (b *DFGBuilder) newEdge(from, to core.ValueID, kind DFGEdgeKind, origin core.NodeID) {
	b.dfg.AddEdge(DFGEdge{
		ID:     core.EdgeID(b.edgeIDs.Next()),
		From:   from,
		To:     to,
		Kind:   kind,
		Origin: origin,
	})
}

// rhsOf returns the statement text after the first assignment operator.
func rhsOf(text string) string {
	if i := strings.Index(text, "="); i >= 0 {
		return text[i+1:]
	}
	return ""
}

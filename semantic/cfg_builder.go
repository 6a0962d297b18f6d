package semantic

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/helixlabs/codeprism/core"
	"github.com/helixlabs/codeprism/parse"
)

// statementTextCap bounds the stored statement text.
const statementTextCap = 100

// CFGBuilder constructs control-flow graphs from a parsed tree. The walk is
// single-threaded and never reorders tree children; node identifiers come
// from the epoch-owned counters, so construction order alone determines the
// output.
type CFGBuilder struct {
	fileID  core.FileID
	source  []byte
	nodeIDs *core.Counter
	funcIDs *core.Counter
}

// NewCFGBuilder creates a builder for one file.
func NewCFGBuilder(fileID core.FileID, source []byte, nodeIDs, funcIDs *core.Counter) *CFGBuilder {
	return &CFGBuilder{
		fileID:  fileID,
		source:  source,
		nodeIDs: nodeIDs,
		funcIDs: funcIDs,
	}
}

// BuildAll returns one CFG per function definition, in tree traversal order.
func (b *CFGBuilder) BuildAll(parsed *parse.ParsedFile) []*CFG {
	var cfgs []*CFG
	b.visitForFunctions(parsed.Root(), &cfgs)
	return cfgs
}

func (b *CFGBuilder) visitForFunctions(node *sitter.Node, cfgs *[]*CFG) {
	if node.Type() == "function_item" {
		*cfgs = append(*cfgs, b.buildFunction(node))
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		b.visitForFunctions(node.Child(i), cfgs)
	}
}

func (b *CFGBuilder) buildFunction(fn *sitter.Node) *CFG {
	functionID := core.FunctionID(b.funcIDs.Next())

	name := ""
	if n := fn.ChildByFieldName("name"); n != nil {
		name = n.Content(b.source)
	}

	entryID := core.NodeID(b.nodeIDs.Next())
	exitID := core.NodeID(b.nodeIDs.Next())
	fnRange := parse.NodeRange(fn)

	cfg := NewCFG(functionID, b.fileID, name, fnRange, entryID, exitID)
	cfg.AddNode(CFGNode{ID: entryID, Kind: CFGEntry, SourceRange: fnRange, Statement: "<entry>"})
	cfg.AddNode(CFGNode{ID: exitID, Kind: CFGExit, SourceRange: fnRange, Statement: "<exit>"})

	last := entryID
	if body := fn.ChildByFieldName("body"); body != nil {
		tail, entered := b.walkBlock(cfg, body, entryID, EdgeNormal)
		if entered {
			last = tail
		}
	}
	cfg.AddEdge(last, exitID, EdgeNormal)
	return cfg
}

// walkBlock walks the statements of a block. The first emitted statement is
// connected from pred with firstEdge; subsequent statements chain with
// Normal edges. The bool result reports whether any statement was emitted.
func (b *CFGBuilder) walkBlock(cfg *CFG, block *sitter.Node, pred core.NodeID, firstEdge CFGEdgeKind) (core.NodeID, bool) {
	if block.Type() != "block" {
		// Single-expression bodies (match arms, else-if) count as one
		// statement unless they are trivia.
		if !block.IsNamed() || isTrivia(block) {
			return pred, false
		}
		return b.walkStatement(cfg, block, pred, firstEdge), true
	}

	current := pred
	edge := firstEdge
	entered := false
	for i := 0; i < int(block.ChildCount()); i++ {
		child := block.Child(i)
		if !isStatement(child) {
			continue
		}
		current = b.walkStatement(cfg, child, current, edge)
		edge = EdgeNormal
		entered = true
	}
	return current, entered
}

func (b *CFGBuilder) walkStatement(cfg *CFG, stmt *sitter.Node, pred core.NodeID, edge CFGEdgeKind) core.NodeID {
	actual := stmt
	if stmt.Type() == "expression_statement" && stmt.ChildCount() > 0 {
		actual = stmt.Child(0)
	}

	switch actual.Type() {
	case "if_expression":
		return b.buildIf(cfg, actual, pred, edge)
	case "while_expression", "for_expression":
		return b.buildLoop(cfg, actual, pred, edge)
	case "loop_expression":
		return b.buildLoop(cfg, actual, pred, edge)
	case "match_expression":
		return b.buildMatch(cfg, actual, pred, edge)
	default:
		return b.buildSimpleStatement(cfg, stmt, pred, edge)
	}
}

// buildIf emits the fixed if/else shape: a Branch whose then-arm enters on a
// True edge and else-arm on a False edge, both arms joining a Merge. With no
// else arm the Branch connects to the Merge directly with a False edge, so a
// Branch's outgoing labels are always {True, False}.
func (b *CFGBuilder) buildIf(cfg *CFG, ifNode *sitter.Node, pred core.NodeID, edge CFGEdgeKind) core.NodeID {
	branchID := core.NodeID(b.nodeIDs.Next())
	cfg.AddNode(CFGNode{
		ID:          branchID,
		Kind:        CFGBranch,
		SourceRange: parse.NodeRange(ifNode),
		Statement:   b.nodeText(ifNode),
	})
	cfg.AddEdge(pred, branchID, edge)

	mergeID := core.NodeID(b.nodeIDs.Next())
	cfg.AddNode(CFGNode{
		ID:          mergeID,
		Kind:        CFGMerge,
		SourceRange: parse.NodeRange(ifNode),
		Statement:   "<merge>",
	})

	if then := ifNode.ChildByFieldName("consequence"); then != nil {
		tail, entered := b.walkBlock(cfg, then, branchID, EdgeTrue)
		if entered {
			cfg.AddEdge(tail, mergeID, EdgeNormal)
		} else {
			cfg.AddEdge(branchID, mergeID, EdgeTrue)
		}
	} else {
		cfg.AddEdge(branchID, mergeID, EdgeTrue)
	}

	if alt := ifNode.ChildByFieldName("alternative"); alt != nil {
		tail, entered := b.walkBlock(cfg, unwrapElse(alt), branchID, EdgeFalse)
		if entered {
			cfg.AddEdge(tail, mergeID, EdgeNormal)
		} else {
			cfg.AddEdge(branchID, mergeID, EdgeFalse)
		}
	} else {
		cfg.AddEdge(branchID, mergeID, EdgeFalse)
	}

	return mergeID
}

// buildLoop emits the fixed loop shape: a LoopHeader, a Continue edge from
// the body tail back to the header, and a Break edge from the header to the
// post-loop Merge. The Break edge is emitted unconditionally; it models the
// structural loop exit and keeps the Merge reachable.
func (b *CFGBuilder) buildLoop(cfg *CFG, loopNode *sitter.Node, pred core.NodeID, edge CFGEdgeKind) core.NodeID {
	headerID := core.NodeID(b.nodeIDs.Next())
	cfg.AddNode(CFGNode{
		ID:          headerID,
		Kind:        CFGLoopHeader,
		SourceRange: parse.NodeRange(loopNode),
		Statement:   b.nodeText(loopNode),
	})
	cfg.AddEdge(pred, headerID, edge)

	mergeID := core.NodeID(b.nodeIDs.Next())
	cfg.AddNode(CFGNode{
		ID:          mergeID,
		Kind:        CFGMerge,
		SourceRange: parse.NodeRange(loopNode),
		Statement:   "<merge>",
	})

	if body := loopNode.ChildByFieldName("body"); body != nil {
		tail, _ := b.walkBlock(cfg, body, headerID, EdgeNormal)
		cfg.AddEdge(tail, headerID, EdgeContinue)
	}
	cfg.AddEdge(headerID, mergeID, EdgeBreak)

	return mergeID
}

// buildMatch emits a Branch and a Merge, with each arm walked in tree order
// from the Branch and joined to the Merge with Normal edges.
func (b *CFGBuilder) buildMatch(cfg *CFG, matchNode *sitter.Node, pred core.NodeID, edge CFGEdgeKind) core.NodeID {
	branchID := core.NodeID(b.nodeIDs.Next())
	cfg.AddNode(CFGNode{
		ID:          branchID,
		Kind:        CFGBranch,
		SourceRange: parse.NodeRange(matchNode),
		Statement:   b.nodeText(matchNode),
	})
	cfg.AddEdge(pred, branchID, edge)

	mergeID := core.NodeID(b.nodeIDs.Next())
	cfg.AddNode(CFGNode{
		ID:          mergeID,
		Kind:        CFGMerge,
		SourceRange: parse.NodeRange(matchNode),
		Statement:   "<merge>",
	})

	if body := matchNode.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			arm := body.Child(i)
			if arm.Type() != "match_arm" {
				continue
			}
			armBody := arm.ChildByFieldName("value")
			if armBody == nil {
				continue
			}
			tail, entered := b.walkBlock(cfg, armBody, branchID, EdgeNormal)
			if entered {
				cfg.AddEdge(tail, mergeID, EdgeNormal)
			} else {
				cfg.AddEdge(branchID, mergeID, EdgeNormal)
			}
		}
	}

	return mergeID
}

func (b *CFGBuilder) buildSimpleStatement(cfg *CFG, stmt *sitter.Node, pred core.NodeID, edge CFGEdgeKind) core.NodeID {
	stmtID := core.NodeID(b.nodeIDs.Next())
	cfg.AddNode(CFGNode{
		ID:          stmtID,
		Kind:        CFGStatement,
		SourceRange: parse.NodeRange(stmt),
		Statement:   b.nodeText(stmt),
	})
	cfg.AddEdge(pred, stmtID, edge)
	return stmtID
}

// isStatement filters block children to syntactic statements; punctuation,
// comments, and attributes never become CFG nodes.
func isStatement(node *sitter.Node) bool {
	switch node.Type() {
	case "let_declaration", "expression_statement",
		"if_expression", "while_expression", "loop_expression",
		"for_expression", "match_expression",
		"return_expression", "break_expression", "continue_expression",
		"macro_invocation":
		return true
	default:
		return false
	}
}

// isTrivia reports nodes that carry no control flow.
func isTrivia(node *sitter.Node) bool {
	switch node.Type() {
	case "line_comment", "block_comment", "attribute_item", "inner_attribute_item":
		return true
	default:
		return false
	}
}

// unwrapElse resolves an else_clause to the block or if-expression it wraps.
func unwrapElse(alt *sitter.Node) *sitter.Node {
	if alt.Type() != "else_clause" {
		return alt
	}
	for i := 0; i < int(alt.ChildCount()); i++ {
		child := alt.Child(i)
		if child.Type() == "block" || child.Type() == "if_expression" {
			return child
		}
	}
	return alt
}

// nodeText returns the node's source text with whitespace collapsed to
// single spaces, capped for storage.
func (b *CFGBuilder) nodeText(node *sitter.Node) string {
	text := strings.Join(strings.Fields(node.Content(b.source)), " ")
	if len(text) > statementTextCap {
		text = text[:statementTextCap]
	}
	return text
}

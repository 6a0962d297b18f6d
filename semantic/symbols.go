package semantic

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/helixlabs/codeprism/core"
	"github.com/helixlabs/codeprism/parse"
)

// SymbolKind is the closed set of symbol kinds.
type SymbolKind int

const (
	SymbolFunction SymbolKind = iota
	SymbolParameter
	SymbolVariable
	SymbolConstant
)

// String returns the kind name.
func (k SymbolKind) String() string {
	switch k {
	case SymbolFunction:
		return "Function"
	case SymbolParameter:
		return "Parameter"
	case SymbolVariable:
		return "Variable"
	case SymbolConstant:
		return "Constant"
	default:
		return "Unknown"
	}
}

// ScopeKind is the closed set of scope kinds.
type ScopeKind int

const (
	ScopeFile ScopeKind = iota
	ScopeFunction
	ScopeBlock
)

// Symbol is a lexical binding.
type Symbol struct {
	ID          core.SymbolID
	Name        string
	SourceRange core.ByteRange
	Scope       core.ScopeID
	Kind        SymbolKind
}

// Scope is a node in the lexical scope tree. Bindings are kept both in a
// map for lookup and in declaration order for deterministic iteration.
type Scope struct {
	ID        core.ScopeID
	Kind      ScopeKind
	Parent    core.ScopeID
	HasParent bool

	bindings map[string]core.SymbolID
	order    []string
}

func newScope(id core.ScopeID, kind ScopeKind, parent core.ScopeID, hasParent bool) *Scope {
	return &Scope{
		ID:        id,
		Kind:      kind,
		Parent:    parent,
		HasParent: hasParent,
		bindings:  make(map[string]core.SymbolID),
	}
}

// Bind adds a name to the scope. Rebinding a name shadows the previous
// binding but keeps its declaration-order slot.
func (s *Scope) Bind(name string, id core.SymbolID) {
	if _, ok := s.bindings[name]; !ok {
		s.order = append(s.order, name)
	}
	s.bindings[name] = id
}

// Local returns the binding for a name in this scope only.
func (s *Scope) Local(name string) (core.SymbolID, bool) {
	id, ok := s.bindings[name]
	return id, ok
}

// Names returns bound names in declaration order.
func (s *Scope) Names() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// SymbolTable is the scope tree and bindings of one file, rooted at the
// unique File scope.
type SymbolTable struct {
	fileID     core.FileID
	scopes     map[core.ScopeID]*Scope
	scopeOrder []core.ScopeID
	symbols    map[core.SymbolID]*Symbol
	fileScope  core.ScopeID
	funcScopes map[string]core.ScopeID
	scopeIDs   *core.Counter
	symbolIDs  *core.Counter
}

// NewSymbolTable creates a table seeded with a File scope.
func NewSymbolTable(fileID core.FileID, scopeIDs, symbolIDs *core.Counter) *SymbolTable {
	t := &SymbolTable{
		fileID:     fileID,
		scopes:     make(map[core.ScopeID]*Scope),
		symbols:    make(map[core.SymbolID]*Symbol),
		funcScopes: make(map[string]core.ScopeID),
		scopeIDs:   scopeIDs,
		symbolIDs:  symbolIDs,
	}
	t.fileScope = t.newScope(ScopeFile, 0, false)
	return t
}

// Build populates the table from a parsed tree in a single walk.
func (t *SymbolTable) Build(parsed *parse.ParsedFile) {
	t.visit(parsed.Root(), t.fileScope, parsed.Source)
}

func (t *SymbolTable) visit(node *sitter.Node, scope core.ScopeID, source []byte) {
	switch node.Type() {
	case "function_item":
		t.visitFunction(node, scope, source)
	case "let_declaration":
		t.visitLet(node, scope, source)
	case "const_item":
		t.visitConst(node, scope, source)
	case "block":
		block := t.newScope(ScopeBlock, scope, true)
		for i := 0; i < int(node.ChildCount()); i++ {
			t.visit(node.Child(i), block, source)
		}
	default:
		for i := 0; i < int(node.ChildCount()); i++ {
			t.visit(node.Child(i), scope, source)
		}
	}
}

func (t *SymbolTable) visitFunction(node *sitter.Node, parent core.ScopeID, source []byte) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(source)
	t.bind(parent, name, SymbolFunction, parse.NodeRange(node))

	fnScope := t.newScope(ScopeFunction, parent, true)
	t.funcScopes[name] = fnScope

	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.ChildCount()); i++ {
			param := params.Child(i)
			if param.Type() != "parameter" {
				continue
			}
			pattern := param.ChildByFieldName("pattern")
			if pattern == nil || pattern.Type() != "identifier" {
				continue
			}
			t.bind(fnScope, pattern.Content(source), SymbolParameter, parse.NodeRange(pattern))
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		t.visit(body, fnScope, source)
	}
}

func (t *SymbolTable) visitLet(node *sitter.Node, scope core.ScopeID, source []byte) {
	pattern := node.ChildByFieldName("pattern")
	if pattern == nil || pattern.Type() != "identifier" {
		return
	}
	t.bind(scope, pattern.Content(source), SymbolVariable, parse.NodeRange(node))
}

func (t *SymbolTable) visitConst(node *sitter.Node, scope core.ScopeID, source []byte) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	t.bind(scope, nameNode.Content(source), SymbolConstant, parse.NodeRange(node))
}

func (t *SymbolTable) bind(scope core.ScopeID, name string, kind SymbolKind, r core.ByteRange) core.SymbolID {
	id := core.SymbolID(t.symbolIDs.Next())
	t.symbols[id] = &Symbol{ID: id, Name: name, SourceRange: r, Scope: scope, Kind: kind}
	t.scopes[scope].Bind(name, id)
	return id
}

func (t *SymbolTable) newScope(kind ScopeKind, parent core.ScopeID, hasParent bool) core.ScopeID {
	id := core.ScopeID(t.scopeIDs.Next())
	t.scopes[id] = newScope(id, kind, parent, hasParent)
	t.scopeOrder = append(t.scopeOrder, id)
	return id
}

// Lookup resolves a name by walking the parent chain from the given scope.
func (t *SymbolTable) Lookup(name string, scope core.ScopeID) (*Symbol, bool) {
	current, ok := t.scopes[scope]
	for ok {
		if id, found := current.Local(name); found {
			return t.symbols[id], true
		}
		if !current.HasParent {
			break
		}
		current, ok = t.scopes[current.Parent]
	}
	return nil, false
}

// FileScope returns the unique File scope identifier.
func (t *SymbolTable) FileScope() core.ScopeID {
	return t.fileScope
}

// Scope returns a scope by identifier.
func (t *SymbolTable) Scope(id core.ScopeID) (*Scope, bool) {
	s, ok := t.scopes[id]
	return s, ok
}

// Symbol returns a symbol by identifier.
func (t *SymbolTable) Symbol(id core.SymbolID) (*Symbol, bool) {
	s, ok := t.symbols[id]
	return s, ok
}

// SymbolsInScope returns a scope's symbols in declaration order.
func (t *SymbolTable) SymbolsInScope(scope core.ScopeID) []*Symbol {
	s, ok := t.scopes[scope]
	if !ok {
		return nil
	}
	var out []*Symbol
	for _, name := range s.order {
		out = append(out, t.symbols[s.bindings[name]])
	}
	return out
}

// Parameters returns a function's parameter symbols in declaration order.
func (t *SymbolTable) Parameters(funcName string) []*Symbol {
	scope, ok := t.funcScopes[funcName]
	if !ok {
		return nil
	}
	var params []*Symbol
	for _, sym := range t.SymbolsInScope(scope) {
		if sym.Kind == SymbolParameter {
			params = append(params, sym)
		}
	}
	return params
}

// FunctionScope returns the scope created for a function, if any.
func (t *SymbolTable) FunctionScope(funcName string) (core.ScopeID, bool) {
	id, ok := t.funcScopes[funcName]
	return id, ok
}

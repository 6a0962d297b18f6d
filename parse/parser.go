package parse

import (
	"context"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/helixlabs/codeprism/core"
)

// ParsedFile bundles a concrete syntax tree with the file it came from.
// The tree is read-only; downstream builders depend only on field access
// and child iteration.
type ParsedFile struct {
	FileID      core.FileID
	Tree        *sitter.Tree
	Source      []byte
	ParseTimeUS int64
}

// Root returns the root node of the parse tree.
func (p *ParsedFile) Root() *sitter.Node {
	return p.Tree.RootNode()
}

// Parser wraps the incremental tree-sitter driver for a single language.
// Not safe for concurrent use; each builder owns its own parser.
type Parser struct {
	lang   core.Language
	parser *sitter.Parser
}

// NewParser creates a parser for the given language tag.
func NewParser(lang core.Language) (*Parser, error) {
	p := sitter.NewParser()
	switch lang {
	case core.LanguageRust:
		p.SetLanguage(rust.GetLanguage())
	default:
		return nil, core.Errorf(core.MalformedInput, "parse.NewParser", "unsupported language %s", lang)
	}
	return &Parser{lang: lang, parser: p}, nil
}

// Parse produces a concrete syntax tree for the source buffer. Passing the
// previous tree enables incremental reparsing after edits.
func (p *Parser) Parse(ctx context.Context, fileID core.FileID, source []byte, old *ParsedFile) (*ParsedFile, error) {
	var oldTree *sitter.Tree
	if old != nil {
		oldTree = old.Tree
	}
	start := time.Now()
	tree, err := p.parser.ParseCtx(ctx, oldTree, source)
	if err != nil {
		return nil, core.Errorf(core.MalformedInput, "parse.Parse", "file %d: %v", fileID, err)
	}
	return &ParsedFile{
		FileID:      fileID,
		Tree:        tree,
		Source:      source,
		ParseTimeUS: time.Since(start).Microseconds(),
	}, nil
}

// Language returns the language this parser was built for.
func (p *Parser) Language() core.Language {
	return p.lang
}

// NodeRange returns the byte range a syntax node spans.
func NodeRange(node *sitter.Node) core.ByteRange {
	return core.NewByteRange(uint64(node.StartByte()), uint64(node.EndByte()))
}

package core

// Opaque identifiers for every artifact kind. Each is drawn from a
// monotonically increasing per-kind counter and is never reused within a
// process lifetime. Identifiers carry no semantics beyond identity and
// ordering.

// FileID identifies a source file. The underlying path never reaches the
// analysis core; FileID is the only identity.
type FileID uint64

// FunctionID identifies a function definition within a semantic epoch.
type FunctionID uint64

// NodeID identifies a CFG node.
type NodeID uint64

// ValueID identifies a DFG value.
type ValueID uint64

// EdgeID identifies a DFG edge.
type EdgeID uint64

// SymbolID identifies a symbol table entry.
type SymbolID uint64

// ScopeID identifies a lexical scope.
type ScopeID uint64

// Counter issues monotonically increasing identifiers. Counters are owned by
// the builder that issues the IDs; a fresh epoch starts from zero.
type Counter struct {
	next uint64
}

// Next returns the next identifier value.
func (c *Counter) Next() uint64 {
	id := c.next
	c.next++
	return id
}

// EpochMarker tags an epoch generation. Markers increase monotonically.
type EpochMarker uint64

// Next returns the marker for the following epoch.
func (m EpochMarker) Next() EpochMarker {
	return m + 1
}

// ByteRange is a half-open interval [Start, End) over a source buffer.
type ByteRange struct {
	Start uint64
	End   uint64
}

// NewByteRange constructs a range. Start must not exceed End.
func NewByteRange(start, end uint64) ByteRange {
	if start > end {
		panic("core: invalid byte range")
	}
	return ByteRange{Start: start, End: end}
}

// Len returns the number of bytes covered by the range.
func (r ByteRange) Len() uint64 {
	return r.End - r.Start
}

// IsEmpty reports whether the range covers no bytes.
func (r ByteRange) IsEmpty() bool {
	return r.Start == r.End
}

// Overlaps reports whether two ranges share at least one byte.
func (r ByteRange) Overlaps(o ByteRange) bool {
	return r.Start < o.End && o.Start < r.End
}

// Language tags the grammar used to parse a source buffer.
type Language int

const (
	// LanguageUnknown is a file with no recognized grammar.
	LanguageUnknown Language = iota
	// LanguageRust selects the tree-sitter Rust grammar.
	LanguageRust
)

// Extension returns the file extension associated with the language.
func (l Language) Extension() string {
	switch l {
	case LanguageRust:
		return "rs"
	default:
		return ""
	}
}

// String returns the language name.
func (l Language) String() string {
	switch l {
	case LanguageRust:
		return "rust"
	default:
		return "unknown"
	}
}

// LanguageFromExtension detects the language from a file extension
// (without the leading dot).
func LanguageFromExtension(ext string) Language {
	switch ext {
	case "rs":
		return LanguageRust
	default:
		return LanguageUnknown
	}
}

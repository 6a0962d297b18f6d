package epoch

import (
	"context"

	"github.com/helixlabs/codeprism/core"
	"github.com/helixlabs/codeprism/parse"
)

// Parse owns one concrete syntax tree per ingested file. It is constructed
// against an ingestion epoch, which must outlive it.
type Parse struct {
	marker    core.EpochMarker
	ingestion *Ingestion
	trees     map[core.FileID]*parse.ParsedFile
	order     []core.FileID
	skipped   []core.FileID
	children  int
	closed    bool
}

// NewParse creates a parse epoch layered on an ingestion epoch.
func NewParse(ingestion *Ingestion, marker core.EpochMarker) *Parse {
	ingestion.Retain()
	return &Parse{
		marker:    marker,
		ingestion: ingestion,
		trees:     make(map[core.FileID]*parse.ParsedFile),
	}
}

// ParseAll parses every ingested file in insertion order. Files with an
// unrecognized language tag, and files the parser fails on, are skipped and
// recorded; skipping is the only local recovery at this layer. A non-nil
// cache short-circuits files whose content is unchanged.
func (e *Parse) ParseAll(ctx context.Context, cache *parse.TreeCache) error {
	parsers := make(map[core.Language]*parse.Parser)
	for _, id := range e.ingestion.FileIDs() {
		f, err := e.ingestion.File(id)
		if err != nil {
			return err
		}
		if f.Language == core.LanguageUnknown {
			e.skipped = append(e.skipped, id)
			continue
		}
		if cache != nil {
			if parsed, ok := cache.Get(id, f.Content); ok {
				e.trees[id] = parsed
				e.order = append(e.order, id)
				continue
			}
		}
		p, ok := parsers[f.Language]
		if !ok {
			p, err = parse.NewParser(f.Language)
			if err != nil {
				return err
			}
			parsers[f.Language] = p
		}
		parsed, err := p.Parse(ctx, id, f.Content, nil)
		if err != nil {
			e.skipped = append(e.skipped, id)
			continue
		}
		if cache != nil {
			cache.Put(parsed)
		}
		e.trees[id] = parsed
		e.order = append(e.order, id)
	}
	return nil
}

// Tree returns the parse tree for a file.
func (e *Parse) Tree(id core.FileID) (*parse.ParsedFile, error) {
	t, ok := e.trees[id]
	if !ok {
		return nil, core.Errorf(core.StaleReference, "epoch.Tree", "file %d not parsed in epoch %d", id, e.marker)
	}
	return t, nil
}

// FileIDs returns identifiers of successfully parsed files in insertion order.
func (e *Parse) FileIDs() []core.FileID {
	ids := make([]core.FileID, len(e.order))
	copy(ids, e.order)
	return ids
}

// Skipped returns identifiers of files that could not be parsed.
func (e *Parse) Skipped() []core.FileID {
	ids := make([]core.FileID, len(e.skipped))
	copy(ids, e.skipped)
	return ids
}

// Ingestion returns the parent ingestion epoch.
func (e *Parse) Ingestion() *Ingestion {
	return e.ingestion
}

// Marker returns the epoch marker.
func (e *Parse) Marker() core.EpochMarker {
	return e.marker
}

// Retain records a child epoch referencing this one.
func (e *Parse) Retain() {
	e.children++
}

// Release drops a child reference.
func (e *Parse) Release() {
	e.children--
}

// Close drops the epoch's trees and releases the parent.
func (e *Parse) Close() error {
	if e.children > 0 {
		return core.Errorf(core.StaleReference, "epoch.Close", "parse epoch %d has %d live children", e.marker, e.children)
	}
	if e.closed {
		return core.Errorf(core.StaleReference, "epoch.Close", "parse epoch %d already closed", e.marker)
	}
	e.closed = true
	e.trees = nil
	e.order = nil
	e.ingestion.Release()
	return nil
}

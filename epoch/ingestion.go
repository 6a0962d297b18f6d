// Package epoch implements the generational memory hierarchy. Each epoch
// owns its artifacts in insertion-ordered sequences; dropping an epoch
// releases everything it produced. Parents must outlive their children:
// closing an epoch while a child still references it is an error.
package epoch

import (
	"github.com/helixlabs/codeprism/core"
)

// SourceFile is a raw source buffer owned by the ingestion epoch. Path
// strings never reach the analysis core.
type SourceFile struct {
	ID       core.FileID
	Content  []byte
	Language core.Language
}

// Ingestion owns file identifiers and source byte buffers. Construction is
// single-threaded; after construction the epoch may be shared read-only.
type Ingestion struct {
	marker   core.EpochMarker
	files    map[core.FileID]*SourceFile
	order    []core.FileID
	children int
	closed   bool
}

// NewIngestion creates an empty ingestion epoch.
func NewIngestion(marker core.EpochMarker) *Ingestion {
	return &Ingestion{
		marker: marker,
		files:  make(map[core.FileID]*SourceFile),
	}
}

// AddFile registers a source buffer under an opaque file identifier.
func (e *Ingestion) AddFile(id core.FileID, content []byte, lang core.Language) error {
	if _, ok := e.files[id]; ok {
		return core.Errorf(core.StaleReference, "epoch.AddFile", "file %d already ingested", id)
	}
	e.files[id] = &SourceFile{ID: id, Content: content, Language: lang}
	e.order = append(e.order, id)
	return nil
}

// File returns the source buffer for a file identifier.
func (e *Ingestion) File(id core.FileID) (*SourceFile, error) {
	f, ok := e.files[id]
	if !ok {
		return nil, core.Errorf(core.StaleReference, "epoch.File", "file %d not in epoch %d", id, e.marker)
	}
	return f, nil
}

// FileIDs returns all file identifiers in insertion order.
func (e *Ingestion) FileIDs() []core.FileID {
	ids := make([]core.FileID, len(e.order))
	copy(ids, e.order)
	return ids
}

// Marker returns the epoch marker.
func (e *Ingestion) Marker() core.EpochMarker {
	return e.marker
}

// Retain records a child epoch referencing this one.
func (e *Ingestion) Retain() {
	e.children++
}

// Release drops a child reference.
func (e *Ingestion) Release() {
	e.children--
}

// Close drops the epoch and its owned buffers. Closing while children exist
// is an error.
func (e *Ingestion) Close() error {
	if e.children > 0 {
		return core.Errorf(core.StaleReference, "epoch.Close", "ingestion epoch %d has %d live children", e.marker, e.children)
	}
	if e.closed {
		return core.Errorf(core.StaleReference, "epoch.Close", "ingestion epoch %d already closed", e.marker)
	}
	e.closed = true
	e.files = nil
	e.order = nil
	return nil
}

// Package rename keeps asset renames consistent across the catalog, the
// selection state and exported filenames.
//
// All renames go through [Synchronizer.Rename]. Overrides hold assets by
// pointer and need no update. Exports resolve names through the [Map], which
// records every rename as a link in a chain from the name an asset was loaded
// under to its latest name.
package rename

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/traitstack/pkg/catalog"
)

type key struct {
	layer string
	name  string
}

// Map records (layer, original filename) -> latest filename.
type Map struct {
	latest   map[key]string // original -> latest
	original map[key]string // latest -> original
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{
		latest:   make(map[key]string),
		original: make(map[key]string),
	}
}

// Record notes that the file currently called from was renamed to to. If from
// is itself the result of an earlier rename, the chain is extended so that the
// original name resolves to to.
func (m *Map) Record(layer, from, to string) {
	if from == to {
		return
	}
	orig := from
	if o, ok := m.original[key{layer, from}]; ok {
		orig = o
		delete(m.original, key{layer, from})
	}
	if orig == to {
		delete(m.latest, key{layer, orig})
		return
	}
	m.latest[key{layer, orig}] = to
	m.original[key{layer, to}] = orig
}

// Resolve returns the latest name of the file loaded as original.
func (m *Map) Resolve(layer, original string) string {
	if n, ok := m.latest[key{layer, original}]; ok {
		return n
	}
	return original
}

// Original returns the name the file now called latest was loaded under.
func (m *Map) Original(layer, latest string) string {
	if o, ok := m.original[key{layer, latest}]; ok {
		return o
	}
	return latest
}

// Len returns the number of renamed files.
func (m *Map) Len() int { return len(m.latest) }

// Reset forgets every rename. Call it after a catalog reload, when assets
// are loaded under their current names again.
func (m *Map) Reset() {
	clear(m.latest)
	clear(m.original)
}

// Synchronizer is the single entry point for renames.
type Synchronizer struct {
	catalog *catalog.Catalog
	names   *Map
	logger  *log.Logger
}

// NewSynchronizer ties cat to names. A nil names map is created, a nil logger
// discards.
func NewSynchronizer(cat *catalog.Catalog, names *Map, logger *log.Logger) *Synchronizer {
	if names == nil {
		names = NewMap()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Synchronizer{catalog: cat, names: names, logger: logger}
}

// Map returns the export-name map.
func (s *Synchronizer) Map() *Map { return s.names }

// Rename renames layer/oldName to newName in the catalog and records it. On
// any catalog error, NAME_CONFLICT included, nothing else changes.
func (s *Synchronizer) Rename(ctx context.Context, layer, oldName, newName string) (*catalog.Asset, error) {
	a, err := s.catalog.Rename(ctx, layer, oldName, newName)
	if err != nil {
		return nil, err
	}
	s.names.Record(layer, oldName, a.Name())
	s.logger.Debug("rename recorded", "layer", layer, "original", a.Original(), "latest", s.ExportName(a))
	return a, nil
}

// ExportName is the filename a must be written under.
func (s *Synchronizer) ExportName(a *catalog.Asset) string {
	return s.names.Resolve(a.Layer(), a.Original())
}

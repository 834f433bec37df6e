// Package pipeline ties the catalog, selection, compositing and rename
// packages into one engine context.
//
// All entry points (the CLI commands, the preview server, the picker TUI and
// the file watcher) drive the same [Runner]. It owns the catalog, the sticky
// overrides, the export-name map and the current resolution, and is the only
// place that mutates them.
//
// # Flow
//
//  1. Refresh: scan and decode the layer directories, reconcile overrides
//  2. Randomize: resolve every layer (override or fresh draw), pick a noise seed
//  3. Preview / Composite: paint the current resolution at either size
//  4. Export: write the composite or each layer, named through the rename map
//
// # Usage
//
//	runner := pipeline.NewRunner(cat, cfg, logger)
//	if _, err := runner.Refresh(ctx); err != nil {
//	    return err
//	}
//	runner.SetOverride("eyes", "e1.png")
//	err := runner.ExportComposite(ctx, "out/portrait.png")
//
// # Concurrency
//
// Engine state is single-threaded by nature. The Runner serialises calls with
// a mutex so the server and watcher goroutines can share it.
package pipeline

import (
	"image"

	"github.com/matzehuels/traitstack/pkg/errors"
)

// =============================================================================
// Results
// =============================================================================

// RefreshReport summarises a Refresh call.
type RefreshReport struct {
	Assets   int
	Hidden   int
	Cached   int
	Warnings errors.Warnings
}

// LayerEdit is one row of an apply-all request. Select pins the layer to the
// named asset; RenameTo renames it. Either may be empty.
type LayerEdit struct {
	Layer    string `json:"layer"`
	Select   string `json:"select,omitempty"`
	RenameTo string `json:"rename_to,omitempty"`
}

// ApplyReport summarises an ApplyAll call.
type ApplyReport struct {
	Selected int
	Renamed  int
	Failed   errors.Warnings
}

// LayerInfo describes one layer for listings.
type LayerInfo struct {
	Name       string   `json:"name"`
	Assets     []string `json:"assets"`
	Current    string   `json:"current,omitempty"`
	Overridden bool     `json:"overridden"`
	Overlay    bool     `json:"overlay,omitempty"`
	Noise      bool     `json:"noise"`
	Intensity  float64  `json:"intensity"`
}

// Frame is a rendered canvas plus the resolution it came from.
type Frame struct {
	Image *image.NRGBA
	Seed  uint64
	Picks map[string]string
}

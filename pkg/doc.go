// Package pkg provides the core libraries for traitstack trait portraits.
//
// # Overview
//
// A portrait is a stack of transparent trait images, one per layer, drawn in
// a fixed back-to-front order. Each layer shows a pinned trait or a random
// one. Portraits can be written out whole or layer by layer, and placed on a
// background to build collages. The pkg directory is organized into:
//
//  1. Assets: [catalog] (layer scanning, decoding, previews), [gate] (hidden
//     traits), [cache] (preview cache), [io] (PNG in and out)
//  2. Drawing: [selection] (overrides and random draws), [noise] (grain),
//     [compose] (layer stacking, resampling, padding)
//  3. Identity: [rename] (latest export names)
//  4. Collages: [placement] (background, instances, hit testing, drags)
//  5. Orchestration: [pipeline] (the engine context used by every front end)
//  6. Support: [config], [errors], [observability], [watch], [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	static/<layer>/*.png
//	         ↓
//	    [catalog] package (list, gate, decode, preview)
//	         ↓
//	    [selection] package (overrides + random draws)
//	         ↓
//	    [compose] package (noise, stack, overlay)
//	         ↓
//	    PNG output, preview server, or [placement] collage
//
// # Quick Start
//
//	cat := catalog.New(catalog.NewDirSource("static"))
//	runner := pipeline.NewRunner(cat, config.Default(), nil)
//	if _, err := runner.Refresh(ctx); err != nil {
//	    return err
//	}
//	runner.SetOverride("eyes", "e1.png")
//	err := runner.ExportComposite(ctx, "out/portrait.png")
package pkg

// Package io reads and writes the raster artifacts handled by traitstack.
//
// # Decoding
//
// Trait assets and collage backgrounds arrive as encoded bytes. [Decode]
// turns them into a non-premultiplied [image.NRGBA] whose bounds start at the
// origin, which is the only pixel layout the compositor and the noise filter
// work with. Undecodable input is reported with the DECODE_FAILURE code so the
// catalog can skip the offending file and keep loading the rest.
//
//	img, err := io.ImportImage("static/background/blue.png")
//
// PNG and JPEG inputs are accepted. JPEG is only useful for collage
// backgrounds since it carries no alpha channel.
//
// # Encoding
//
// Every artifact is written as PNG, which is lossless and keeps alpha.
// [ExportPNG] writes through a temporary file in the destination directory and
// renames it into place, so a failed export never leaves a truncated file
// behind.
//
//	err := io.ExportPNG(composite, "out/portrait.png")
//
// # Persisting uploads
//
// [Persist] stores bytes under a unique name derived from a suggestion:
// "hat.png", then "hat-1.png", "hat-2.png" and so on.
package io

// Package placement arranges finished composites over a background to build
// a collage.
//
// A [Workspace] holds at most one background, scaled independently of its
// source image, and any number of [Instance] values. Each instance keeps the
// composite it was created from untouched; its centre and scale are the only
// mutable state. Every render resamples from that untouched source, so
// repeated rescaling never degrades the picture.
//
// # States
//
// A workspace without a background is Empty: adding instances, rendering and
// saving fail with NO_BACKGROUND. Setting a background makes it Ready.
//
// # Z-order and hit testing
//
// Instances are kept back to front in insertion order. [Workspace.HitTest]
// walks that list backwards and returns the first instance whose box contains
// the point, so the newest overlapping instance wins. Selecting an instance
// with [Workspace.SelectByPoint] only changes which instance rescale applies
// to; [Workspace.Raise] is the explicit way to bring one to the front.
//
// # Dragging
//
//	ws.BeginDrag(p)      // hit test, the hit instance becomes current
//	ws.UpdateDrag(p2)    // moves it by p2 - p
//	ws.UpdateDrag(p3)    // moves it by p3 - p2
//	ws.EndDrag()
//
// The workspace knows nothing about input devices; any front end can drive it.
package placement

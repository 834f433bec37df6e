package placement

import (
	"image"
	"io"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/matzehuels/traitstack/pkg/compose"
	"github.com/matzehuels/traitstack/pkg/errors"
	tsio "github.com/matzehuels/traitstack/pkg/io"
)

// State is the lifecycle state of a workspace.
type State int

const (
	// Empty has no background.
	Empty State = iota
	// Ready has a background and accepts placement.
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "empty"
}

// =============================================================================
// Background
// =============================================================================

// Background is the collage backdrop. The source image is never resampled in
// place.
type Background struct {
	source *image.NRGBA
	scale  float64

	display      *image.NRGBA
	displayScale float64
}

// Source returns the untouched background image.
func (b *Background) Source() *image.NRGBA { return b.source }

// Scale returns the display and export scale.
func (b *Background) Scale() float64 { return b.scale }

// Size returns the scaled size in pixels.
func (b *Background) Size() image.Point {
	return compose.Scaled(b.source.Bounds().Size(), b.scale)
}

// Image returns the background resampled at its scale.
func (b *Background) Image() *image.NRGBA {
	if b.display == nil || b.displayScale != b.scale {
		size := b.Size()
		b.display = compose.Resample(b.source, size.X, size.Y)
		b.displayScale = b.scale
	}
	return b.display
}

// =============================================================================
// Instance
// =============================================================================

// Instance is one placed copy of a composite.
type Instance struct {
	id     uuid.UUID
	source *image.NRGBA
	center Point
	scale  float64
	seq    uint64

	display      *image.NRGBA
	displayScale float64
}

// ID identifies the instance within its workspace.
func (in *Instance) ID() uuid.UUID { return in.id }

// Source returns the composite the instance was created from.
func (in *Instance) Source() *image.NRGBA { return in.source }

// Center returns the centre position in canvas space.
func (in *Instance) Center() Point { return in.center }

// Scale returns the current scale factor.
func (in *Instance) Scale() float64 { return in.scale }

// Seq returns the insertion sequence number; higher is newer.
func (in *Instance) Seq() uint64 { return in.seq }

// Size returns the scaled size in pixels.
func (in *Instance) Size() image.Point {
	return compose.Scaled(in.source.Bounds().Size(), in.scale)
}

// Bounds returns the placement box: the scaled size centred on Center.
func (in *Instance) Bounds() Rect {
	s := in.Size()
	return centred(in.center, float64(s.X), float64(s.Y))
}

// Origin returns the top-left pixel the scaled image is drawn at.
func (in *Instance) Origin() image.Point {
	s := in.Size()
	return image.Pt(int(in.center.X-float64(s.X)/2), int(in.center.Y-float64(s.Y)/2))
}

// Image returns the instance resampled from its source at the current scale.
func (in *Instance) Image() *image.NRGBA {
	if in.display == nil || in.displayScale != in.scale {
		s := in.Size()
		in.display = compose.Resample(in.source, s.X, s.Y)
		in.displayScale = in.scale
	}
	return in.display
}

// =============================================================================
// Workspace
// =============================================================================

type dragState struct {
	active bool
	target *Instance
	last   Point
}

// Workspace is a collage session. It is not safe for concurrent use.
type Workspace struct {
	background *Background
	instances  []*Instance // back to front
	current    *Instance
	drag       dragState
	viewport   image.Point
	seq        uint64
	logger     *log.Logger
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Workspace) { w.logger = l }
}

// WithViewport sets the initial visible canvas size.
func WithViewport(width, height int) Option {
	return func(w *Workspace) { w.viewport = image.Pt(width, height) }
}

// New returns an empty workspace.
func New(opts ...Option) *Workspace {
	w := &Workspace{}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}
	return w
}

func noBackground(op string) error {
	return errors.New(errors.ErrCodeNoBackground, "%s needs a background image; set one first", op)
}

// State reports whether a background is set.
func (w *Workspace) State() State {
	if w.background == nil {
		return Empty
	}
	return Ready
}

// Background returns the background or nil.
func (w *Workspace) Background() *Background { return w.background }

// SetBackground replaces the background and resets its scale to 1.
func (w *Workspace) SetBackground(img image.Image) error {
	if img == nil {
		return errors.New(errors.ErrCodeInvalidInput, "background image is nil")
	}
	w.background = &Background{source: imaging.Clone(img), scale: 1}
	w.logger.Debug("background set", "size", w.background.Size())
	return nil
}

// SetBackgroundScale sets the background scale, bounded to [0.1, 2.0].
func (w *Workspace) SetBackgroundScale(f float64) error {
	if w.background == nil {
		return noBackground("scaling the background")
	}
	w.background.scale = ClampScale(f)
	return nil
}

// SetViewport sets the visible canvas size used to centre new instances. A
// zero size centres on the scaled background instead.
func (w *Workspace) SetViewport(width, height int) {
	w.viewport = image.Pt(max(0, width), max(0, height))
}

// Canvas returns the size of a rendered collage.
func (w *Workspace) Canvas() image.Point {
	if w.background == nil {
		return image.Point{}
	}
	return w.background.Size()
}

func (w *Workspace) visibleCenter() Point {
	size := w.viewport
	if size.X == 0 || size.Y == 0 {
		size = w.Canvas()
	}
	return Pt(float64(size.X)/2, float64(size.Y)/2)
}

// AddInstance places a copy of img at the centre of the visible canvas, at
// scale 1, in front of every other instance. It becomes current.
func (w *Workspace) AddInstance(img image.Image) (*Instance, error) {
	if w.background == nil {
		return nil, noBackground("adding to the collage")
	}
	if img == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "composite image is nil")
	}
	w.seq++
	in := &Instance{
		id:     uuid.New(),
		source: imaging.Clone(img),
		center: w.visibleCenter(),
		scale:  1,
		seq:    w.seq,
	}
	w.instances = append(w.instances, in)
	w.current = in
	w.logger.Debug("instance added", "id", in.id, "center", in.center, "count", len(w.instances))
	return in, nil
}

// PlaceInstance is AddInstance followed by a move and a rescale.
func (w *Workspace) PlaceInstance(img image.Image, center Point, scale float64) (*Instance, error) {
	in, err := w.AddInstance(img)
	if err != nil {
		return nil, err
	}
	in.center = center
	in.scale = ClampScale(scale)
	return in, nil
}

// Instances returns the instances back to front.
func (w *Workspace) Instances() []*Instance { return slices.Clone(w.instances) }

// Len returns the number of instances.
func (w *Workspace) Len() int { return len(w.instances) }

// Current returns the instance rescale applies to, or nil.
func (w *Workspace) Current() *Instance { return w.current }

// Instance returns the instance with id, or nil.
func (w *Workspace) Instance(id uuid.UUID) *Instance {
	if i := w.index(id); i >= 0 {
		return w.instances[i]
	}
	return nil
}

func (w *Workspace) index(id uuid.UUID) int {
	return slices.IndexFunc(w.instances, func(in *Instance) bool { return in.id == id })
}

// HitTest returns the topmost instance whose box contains p, or nil.
func (w *Workspace) HitTest(p Point) *Instance {
	for i := len(w.instances) - 1; i >= 0; i-- {
		if w.instances[i].Bounds().Contains(p) {
			return w.instances[i]
		}
	}
	return nil
}

// SelectByPoint makes the instance under p current without changing z-order.
// It returns nil, leaving the current instance alone, when nothing is hit.
func (w *Workspace) SelectByPoint(p Point) *Instance {
	hit := w.HitTest(p)
	if hit != nil {
		w.current = hit
	}
	return hit
}

// Select makes the instance with id current.
func (w *Workspace) Select(id uuid.UUID) error {
	in := w.Instance(id)
	if in == nil {
		return errors.New(errors.ErrCodeNotFound, "no instance %s", id)
	}
	w.current = in
	return nil
}

// Raise moves the instance with id to the front.
func (w *Workspace) Raise(id uuid.UUID) error {
	i := w.index(id)
	if i < 0 {
		return errors.New(errors.ErrCodeNotFound, "no instance %s", id)
	}
	in := w.instances[i]
	w.instances = append(slices.Delete(w.instances, i, i+1), in)
	return nil
}

// Remove deletes the instance with id.
func (w *Workspace) Remove(id uuid.UUID) error {
	i := w.index(id)
	if i < 0 {
		return errors.New(errors.ErrCodeNotFound, "no instance %s", id)
	}
	in := w.instances[i]
	w.instances = slices.Delete(w.instances, i, i+1)
	if w.current == in {
		w.current = nil
	}
	if w.drag.target == in {
		w.drag = dragState{}
	}
	return nil
}

// ClearAll removes every instance. The background stays.
func (w *Workspace) ClearAll() {
	w.instances = nil
	w.current = nil
	w.drag = dragState{}
}

// BeginDrag starts dragging the instance under p, which becomes current. It
// returns nil when nothing is hit.
func (w *Workspace) BeginDrag(p Point) *Instance {
	hit := w.SelectByPoint(p)
	if hit == nil {
		w.drag = dragState{}
		return nil
	}
	w.drag = dragState{active: true, target: hit, last: p}
	return hit
}

// UpdateDrag moves the dragged instance by the pointer delta since the last
// update. It is a no-op when no drag is active.
func (w *Workspace) UpdateDrag(p Point) {
	if !w.drag.active {
		return
	}
	t := w.drag.target
	t.center.X += p.X - w.drag.last.X
	t.center.Y += p.Y - w.drag.last.Y
	w.drag.last = p
}

// EndDrag finishes the drag and returns the dragged instance, or nil.
func (w *Workspace) EndDrag() *Instance {
	t := w.drag.target
	w.drag = dragState{}
	return t
}

// Dragging reports whether a drag is in progress.
func (w *Workspace) Dragging() bool { return w.drag.active }

// Move sets the centre of the instance with id.
func (w *Workspace) Move(id uuid.UUID, center Point) error {
	in := w.Instance(id)
	if in == nil {
		return errors.New(errors.ErrCodeNotFound, "no instance %s", id)
	}
	in.center = center
	return nil
}

// RescaleCurrent sets the scale of the current instance, bounded to
// [0.1, 2.0], and returns the applied value.
func (w *Workspace) RescaleCurrent(f float64) (float64, error) {
	if w.current == nil {
		return 0, errors.New(errors.ErrCodeNotFound, "no instance selected")
	}
	w.current.scale = ClampScale(f)
	return w.current.scale, nil
}

// ScaleCurrentBy multiplies the scale of the current instance by f, with the
// same bounds as RescaleCurrent.
func (w *Workspace) ScaleCurrentBy(f float64) (float64, error) {
	if w.current == nil {
		return 0, errors.New(errors.ErrCodeNotFound, "no instance selected")
	}
	return w.RescaleCurrent(w.current.scale * f)
}

// RenderInstance returns the display copy of the instance with id, resampled
// from its source at its current scale.
func (w *Workspace) RenderInstance(id uuid.UUID) (*image.NRGBA, error) {
	in := w.Instance(id)
	if in == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "no instance %s", id)
	}
	return in.Image(), nil
}

// Render flattens the background and all instances, oldest first, into a new
// image. The workspace stays editable.
func (w *Workspace) Render() (*image.NRGBA, error) {
	if w.background == nil {
		return nil, noBackground("rendering the collage")
	}
	canvas := imaging.Clone(w.background.Image())
	for _, in := range w.instances {
		canvas = imaging.Overlay(canvas, in.Image(), in.Origin(), 1.0)
	}
	return canvas, nil
}

// Save renders the collage and writes it as PNG to path. Without a background
// it fails with NO_BACKGROUND and writes nothing.
func (w *Workspace) Save(path string) error {
	img, err := w.Render()
	if err != nil {
		return err
	}
	if err := tsio.ExportPNG(img, path); err != nil {
		return err
	}
	w.logger.Info("saved collage", "path", path, "instances", len(w.instances), "size", img.Bounds().Size())
	return nil
}

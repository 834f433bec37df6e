// Package editor turns pointer and key input into collage workspace edits.
//
// The [Controller] holds no window state of its own. A frontend (see the
// window sub-package) samples input once per frame into an [Input] and calls
// [Controller.Update]; anything drawable is read back from the workspace.
package editor

import (
	"context"
	"fmt"
	"image"
	"io"
	"io/fs"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/traitstack/pkg/errors"
	tsio "github.com/matzehuels/traitstack/pkg/io"
	"github.com/matzehuels/traitstack/pkg/placement"
)

// Action is a discrete editor command, usually bound to a key.
type Action int

const (
	ActionAdd Action = iota
	ActionGrow
	ActionShrink
	ActionRaise
	ActionRemove
	ActionClear
	ActionBackgroundGrow
	ActionBackgroundShrink
	ActionSave
)

var actionNames = [...]string{"add", "grow", "shrink", "raise", "remove", "clear", "bg-grow", "bg-shrink", "save"}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Scale steps applied by the grow and shrink actions and by one wheel notch.
const (
	ScaleStep = 1.1
	WheelStep = 0.05
)

// Input is one frame of sampled input.
type Input struct {
	Cursor       placement.Point
	JustPressed  bool // primary button went down this frame
	Pressed      bool
	JustReleased bool
	Wheel        float64 // vertical notches, positive away from the user
	Actions      []Action

	// Dropped holds files dropped onto the window this frame, or nil. The
	// first one becomes the background.
	Dropped fs.FS
}

// CompositeFunc renders a fresh portrait to add to the collage.
type CompositeFunc func(ctx context.Context) (image.Image, error)

// Controller applies input to a workspace.
type Controller struct {
	ws        *placement.Workspace
	composite CompositeFunc
	output    string
	logger    *log.Logger
	status    string
	saved     int
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithOutput sets where ActionSave writes the collage.
func WithOutput(path string) Option {
	return func(c *Controller) { c.output = path }
}

// New returns a controller over ws. composite is called for every ActionAdd.
func New(ws *placement.Workspace, composite CompositeFunc, opts ...Option) *Controller {
	c := &Controller{ws: ws, composite: composite, output: "collage.png"}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	if ws.State() == placement.Empty {
		c.status = "drop an image onto the window to set the background"
	}
	return c
}

// Workspace returns the edited workspace.
func (c *Controller) Workspace() *placement.Workspace { return c.ws }

// Status returns a one-line description of the last thing that happened.
func (c *Controller) Status() string { return c.status }

// Saved returns how many times the collage has been written.
func (c *Controller) Saved() int { return c.saved }

// Update applies one frame of input. Action failures are reported through
// Status and the logger; only a failing save is returned.
func (c *Controller) Update(ctx context.Context, in Input) error {
	switch {
	case in.JustPressed:
		if hit := c.ws.BeginDrag(in.Cursor); hit != nil {
			c.status = fmt.Sprintf("selected #%d at %.2fx", hit.Seq(), hit.Scale())
		}
	case in.Pressed && c.ws.Dragging():
		c.ws.UpdateDrag(in.Cursor)
	}
	if in.JustReleased && c.ws.Dragging() {
		if t := c.ws.EndDrag(); t != nil {
			c.logger.Debug("moved", "seq", t.Seq(), "center", t.Center())
		}
	}
	if in.Wheel != 0 {
		c.scaleBy(1 + WheelStep*in.Wheel)
	}
	if in.Dropped != nil {
		if err := c.loadDropped(in.Dropped); err != nil {
			c.status = err.Error()
			c.logger.Warn("background not loaded", "err", err)
		}
	}

	for _, a := range in.Actions {
		if err := c.apply(ctx, a); err != nil {
			c.status = err.Error()
			c.logger.Warn("editor action failed", "action", a, "err", err)
			if a == ActionSave {
				return err
			}
		}
	}
	return nil
}

func (c *Controller) apply(ctx context.Context, a Action) error {
	switch a {
	case ActionAdd:
		img, err := c.composite(ctx)
		if err != nil {
			return err
		}
		in, err := c.ws.AddInstance(img)
		if err != nil {
			return err
		}
		c.status = fmt.Sprintf("added #%d (%d on canvas)", in.Seq(), c.ws.Len())
	case ActionGrow:
		c.scaleBy(ScaleStep)
	case ActionShrink:
		c.scaleBy(1 / ScaleStep)
	case ActionRaise:
		cur := c.ws.Current()
		if cur == nil {
			return nil
		}
		return c.ws.Raise(cur.ID())
	case ActionRemove:
		cur := c.ws.Current()
		if cur == nil {
			return nil
		}
		c.status = fmt.Sprintf("removed #%d", cur.Seq())
		return c.ws.Remove(cur.ID())
	case ActionClear:
		c.ws.ClearAll()
		c.status = "cleared"
	case ActionBackgroundGrow, ActionBackgroundShrink:
		bg := c.ws.Background()
		if bg == nil {
			return c.ws.SetBackgroundScale(1)
		}
		f := ScaleStep
		if a == ActionBackgroundShrink {
			f = 1 / ScaleStep
		}
		if err := c.ws.SetBackgroundScale(bg.Scale() * f); err != nil {
			return err
		}
		c.status = fmt.Sprintf("background %.2fx", c.ws.Background().Scale())
	case ActionSave:
		if err := c.ws.Save(c.output); err != nil {
			return err
		}
		c.saved++
		c.status = "saved " + c.output
		c.logger.Info("collage saved", "path", c.output, "instances", c.ws.Len())
	}
	return nil
}

// LoadBackground replaces the background. Placed instances stay where they
// are.
func (c *Controller) LoadBackground(img image.Image, name string) error {
	if err := c.ws.SetBackground(img); err != nil {
		return err
	}
	size := c.ws.Canvas()
	c.status = fmt.Sprintf("background %s (%dx%d)", name, size.X, size.Y)
	c.logger.Info("background loaded", "name", name, "size", size)
	return nil
}

func (c *Controller) loadDropped(files fs.FS) error {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return err
	}
	i := slices.IndexFunc(entries, func(e fs.DirEntry) bool { return !e.IsDir() })
	if i < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no file among the dropped items")
	}
	name := entries[i].Name()
	data, err := fs.ReadFile(files, name)
	if err != nil {
		return err
	}
	img, err := tsio.Decode(data)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return c.LoadBackground(img, name)
}

func (c *Controller) scaleBy(f float64) {
	s, err := c.ws.ScaleCurrentBy(f)
	if err != nil {
		return
	}
	c.status = fmt.Sprintf("scale %.2fx", s)
}

// Package window runs an editor.Controller in a desktop window.
package window

import (
	"context"
	"image/color"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/matzehuels/traitstack/internal/editor"
	"github.com/matzehuels/traitstack/pkg/placement"
)

// Keys maps keyboard keys to editor actions.
var Keys = map[ebiten.Key]editor.Action{
	ebiten.KeySpace:        editor.ActionAdd,
	ebiten.KeyEqual:        editor.ActionGrow,
	ebiten.KeyMinus:        editor.ActionShrink,
	ebiten.KeyR:            editor.ActionRaise,
	ebiten.KeyDelete:       editor.ActionRemove,
	ebiten.KeyBackspace:    editor.ActionRemove,
	ebiten.KeyC:            editor.ActionClear,
	ebiten.KeyBracketRight: editor.ActionBackgroundGrow,
	ebiten.KeyBracketLeft:  editor.ActionBackgroundShrink,
	ebiten.KeyS:            editor.ActionSave,
}

const help = "space add  drag move  wheel/+/- scale  r raise  del remove  c clear  [/] background  s save  esc quit\ndrop an image to replace the background"

var selectionColor = color.NRGBA{R: 0x4c, G: 0xc9, B: 0xf0, A: 0xff}

type sprite struct {
	scale float64
	img   *ebiten.Image
}

type game struct {
	ctx  context.Context
	ctrl *editor.Controller

	bgSrc   *placement.Background
	bgScale float64
	bg      *ebiten.Image
	sprites map[uuid.UUID]sprite
}

// Run opens the window and blocks until it is closed, Escape is pressed or
// ctx is cancelled.
func Run(ctx context.Context, ctrl *editor.Controller, title string) error {
	size := ctrl.Workspace().Canvas()
	if size.X == 0 || size.Y == 0 {
		size.X, size.Y = 800, 600
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(size.X, size.Y)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	g := &game{ctx: ctx, ctrl: ctrl, sprites: make(map[uuid.UUID]sprite)}
	if err := ebiten.RunGame(g); err != nil && err != ebiten.Termination {
		return err
	}
	return nil
}

func (g *game) Update() error {
	if g.ctx.Err() != nil || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	mx, my := ebiten.CursorPosition()
	_, wheel := ebiten.Wheel()
	in := editor.Input{
		Cursor:       placement.Pt(float64(mx), float64(my)),
		JustPressed:  inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		Pressed:      ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		JustReleased: inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft),
		Wheel:        wheel,
		Dropped:      ebiten.DroppedFiles(),
	}
	for key, action := range Keys {
		if inpututil.IsKeyJustPressed(key) {
			in.Actions = append(in.Actions, action)
		}
	}
	// Save failures are already shown in the status line.
	_ = g.ctrl.Update(g.ctx, in)
	g.prune()
	return nil
}

// prune drops cached sprites of removed instances.
func (g *game) prune() {
	ws := g.ctrl.Workspace()
	for id := range g.sprites {
		if ws.Instance(id) == nil {
			delete(g.sprites, id)
		}
	}
}

func (g *game) background() *ebiten.Image {
	bg := g.ctrl.Workspace().Background()
	if bg == nil {
		return nil
	}
	if g.bg == nil || g.bgSrc != bg || g.bgScale != bg.Scale() {
		if g.bg != nil {
			g.bg.Deallocate()
		}
		g.bg = ebiten.NewImageFromImage(bg.Image())
		g.bgSrc = bg
		g.bgScale = bg.Scale()
	}
	return g.bg
}

func (g *game) sprite(in *placement.Instance) *ebiten.Image {
	s, ok := g.sprites[in.ID()]
	if !ok || s.scale != in.Scale() {
		if ok {
			s.img.Deallocate()
		}
		s = sprite{scale: in.Scale(), img: ebiten.NewImageFromImage(in.Image())}
		g.sprites[in.ID()] = s
	}
	return s.img
}

func (g *game) Draw(screen *ebiten.Image) {
	if bg := g.background(); bg != nil {
		screen.DrawImage(bg, nil)
	}
	ws := g.ctrl.Workspace()
	for _, in := range ws.Instances() {
		var op ebiten.DrawImageOptions
		o := in.Origin()
		op.GeoM.Translate(float64(o.X), float64(o.Y))
		screen.DrawImage(g.sprite(in), &op)
	}
	if cur := ws.Current(); cur != nil {
		b := cur.Bounds()
		vector.StrokeRect(screen, float32(b.X), float32(b.Y), float32(b.Width), float32(b.Height),
			2, selectionColor, false)
	}
	ebitenutil.DebugPrint(screen, help+"\n"+g.ctrl.Status())
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.ctrl.Workspace().SetViewport(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/matzehuels/traitstack/pkg/compose"
	"github.com/matzehuels/traitstack/pkg/errors"
	tsio "github.com/matzehuels/traitstack/pkg/io"
	"github.com/matzehuels/traitstack/pkg/observability"
	"github.com/matzehuels/traitstack/pkg/placement"
	"github.com/matzehuels/traitstack/pkg/selection"
)

// CollageComposite draws an independent resolution from seed with the given
// overrides and paints it like WorkspaceComposite. The runner's own
// selection state is left untouched. A zero seed draws one from the runner.
func (r *Runner) CollageComposite(ctx context.Context, seed uint64, overrides map[string]string) (*Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seed == 0 {
		seed = r.seeds.Uint64()
	}
	state := selection.NewState()
	for layer, name := range overrides {
		a := r.catalog.Find(layer, name)
		if a == nil {
			return nil, errors.New(errors.ErrCodeNotFound, "%s has no asset named %s", layer, name)
		}
		if err := state.Set(layer, a); err != nil {
			return nil, err
		}
	}
	res := selection.NewResolver(seed).Resolve(r.cfg.Layers, r.catalog, state)

	exclude := r.cfg.CollageExclude()
	opts := r.cfg.ComposeOptions(false, seed)
	opts.Exclude = exclude

	start := time.Now()
	observability.Compose().OnComposeStart(ctx, len(res.Resolved()), false)
	img := compose.Compose(res, r.cfg.CanvasSize(), opts)
	observability.Compose().OnComposeComplete(ctx, false, time.Since(start), nil)

	picks := make(map[string]string)
	for _, a := range res.Resolved() {
		if !slices.Contains(exclude, a.Layer()) {
			picks[a.Layer()] = a.Name()
		}
	}
	return &Frame{Image: img, Seed: seed, Picks: picks}, nil
}

// BuildCollage lays out scene on a new workspace: the background at the
// scene scale and one CollageComposite per instance, in file order.
func (r *Runner) BuildCollage(ctx context.Context, scene *placement.Scene, opts ...placement.Option) (*placement.Workspace, error) {
	bg, err := tsio.ImportImage(scene.BackgroundPath())
	if err != nil {
		return nil, err
	}
	ws := placement.New(append([]placement.Option{placement.WithLogger(r.logger)}, opts...)...)
	if err := ws.SetBackground(bg); err != nil {
		return nil, err
	}
	if err := ws.SetBackgroundScale(scene.Scale); err != nil {
		return nil, err
	}

	canvas := ws.Canvas()
	for i, in := range scene.Instances {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := r.CollageComposite(ctx, in.Seed, in.Overrides)
		if err != nil {
			return nil, fmt.Errorf("instance %d: %w", i+1, err)
		}
		if _, err := ws.PlaceInstance(frame.Image, in.Center(canvas.X, canvas.Y), in.Scale); err != nil {
			return nil, err
		}
		r.logger.Debug("placed instance", "n", i+1, "seed", frame.Seed, "picks", len(frame.Picks))
	}
	return ws, nil
}

// SceneOutput is where a scene is saved: its own output path, or
// collage.png in the configured output directory.
func (r *Runner) SceneOutput(scene *placement.Scene) string {
	if scene.Output != "" {
		return scene.Resolve(scene.Output)
	}
	return filepath.Join(r.cfg.OutputDir, "collage.png")
}

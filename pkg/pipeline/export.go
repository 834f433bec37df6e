package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/traitstack/pkg/compose"
	"github.com/matzehuels/traitstack/pkg/errors"
	tsio "github.com/matzehuels/traitstack/pkg/io"
	"github.com/matzehuels/traitstack/pkg/observability"
)

// ExportComposite writes the current resolution at full size to path.
func (r *Runner) ExportComposite(ctx context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	frame := r.frame(ctx, false, nil)
	err := tsio.ExportPNG(frame.Image, path)
	observability.Compose().OnExport(ctx, "composite", 1, err)
	if err != nil {
		return err
	}
	r.logger.Info("exported composite", "path", path, "seed", frame.Seed)
	return nil
}

// ExportLayers writes every resolved layer of the current resolution to dir
// at full size, noise applied, each under its latest name. When two layers
// resolve to the same name the later one is prefixed with its layer, and with
// a counter after that until the name is free.
func (r *Runner) ExportLayers(ctx context.Context, dir string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := errors.ValidatePath(dir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
	}

	res := r.resolution()
	opts := r.cfg.ComposeOptions(false, r.noiseSeed)
	size := r.cfg.CanvasSize()

	assets := res.Resolved()
	names := make([]string, len(assets))
	used := make(map[string]bool, len(assets))
	for i, a := range assets {
		names[i] = uniqueName(used, a.Layer(), r.renames.ExportName(a))
	}

	g, gctx := errgroup.WithContext(ctx)
	if r.cfg.Workers > 0 {
		g.SetLimit(r.cfg.Workers)
	}
	for i, a := range assets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img := compose.Layer(a, size, opts)
			return tsio.ExportPNG(img, filepath.Join(dir, names[i]))
		})
	}
	err := g.Wait()
	observability.Compose().OnExport(ctx, "layers", len(names), err)
	if err != nil {
		return nil, err
	}
	r.logger.Info("exported layers", "dir", dir, "files", len(names))
	return names, nil
}

// uniqueName returns name, or the first of "<layer>-<name>",
// "<layer>-1-<name>", ... not yet in used, and records it.
func uniqueName(used map[string]bool, layer, name string) string {
	candidate := name
	for n := 0; used[candidate]; n++ {
		if n == 0 {
			candidate = layer + "-" + name
		} else {
			candidate = fmt.Sprintf("%s-%d-%s", layer, n, name)
		}
	}
	used[candidate] = true
	return candidate
}

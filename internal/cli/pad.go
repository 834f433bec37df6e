package cli

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/traitstack/pkg/catalog"
	"github.com/matzehuels/traitstack/pkg/compose"
	"github.com/matzehuels/traitstack/pkg/config"
	tsio "github.com/matzehuels/traitstack/pkg/io"
)

// padOpts holds the command-line flags for the pad command.
type padOpts struct {
	out    string // write here instead of in place
	shift  int    // x offset for non-background layers
	dryRun bool
}

// padResult counts what happened to one layer.
type padResult struct {
	padded  int64
	skipped int64 // already canvas-sized
}

func (c *CLI) padCommand() *cobra.Command {
	opts := padOpts{shift: -1}

	cmd := &cobra.Command{
		Use:   "pad [layer...]",
		Short: "Normalise trait files onto the canvas",
		Long: `Place every trait file on a transparent canvas of the configured size.

Background files are stretched to fill the canvas. Other files keep their
size, are centred horizontally, aligned to the bottom edge and shifted right
by --shift pixels. Files that already match the canvas are left alone.`,
		Example: `  traitstack pad                 # every layer, in place
  traitstack pad eyes hairs --out padded`,
		ValidArgsFunction: c.completeLayers(false),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			if opts.shift < 0 {
				opts.shift = cfg.PadShift
			}
			layers := args
			if len(layers) == 0 {
				layers = cfg.Layers
			}
			src := catalog.NewDirSource(cfg.StaticDir)
			for _, layer := range layers {
				res, err := padLayer(cmd.Context(), cfg, src, layer, &opts)
				if err != nil {
					return err
				}
				verb := "Padded"
				if opts.dryRun {
					verb = "Would pad"
				}
				printSuccess("%s %d files in %s", verb, res.padded, layer)
				if res.skipped > 0 {
					printDetail("%d already %dx%d", res.skipped, cfg.Width, cfg.Height)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write padded files under this directory instead of in place")
	cmd.Flags().IntVar(&opts.shift, "shift", opts.shift, "x offset for non-background layers (default pad_shift)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report without writing")

	return cmd
}

func padLayer(ctx context.Context, cfg *config.Config, src *catalog.DirSource, layer string, opts *padOpts) (padResult, error) {
	names, err := src.List(ctx, layer)
	if err != nil {
		return padResult{}, err
	}
	size := cfg.CanvasSize()
	po := compose.PadOptions{Stretch: layer == cfg.Background, ShiftX: opts.shift}
	if po.Stretch {
		po.ShiftX = 0
	}
	outDir := src.Dir(layer)
	if opts.out != "" {
		outDir = filepath.Join(opts.out, layer)
	}

	var res padResult
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for _, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := tsio.ImportImage(filepath.Join(src.Dir(layer), name))
			if err != nil {
				return err
			}
			if img.Bounds().Size() == size {
				atomic.AddInt64(&res.skipped, 1)
				return nil
			}
			atomic.AddInt64(&res.padded, 1)
			if opts.dryRun {
				return nil
			}
			return tsio.ExportPNG(compose.Pad(img, size, po), filepath.Join(outDir, name))
		})
	}
	return res, g.Wait()
}

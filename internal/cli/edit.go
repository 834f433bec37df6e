package cli

import (
	"context"
	"image"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/traitstack/internal/editor"
	"github.com/matzehuels/traitstack/internal/editor/window"
	tsio "github.com/matzehuels/traitstack/pkg/io"
	"github.com/matzehuels/traitstack/pkg/placement"
)

func (c *CLI) editCommand() *cobra.Command {
	var (
		background string
		scene      string
		output     string
		scale      float64
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Arrange portraits on a background in a window",
		Long: `Open the collage editor.

Space adds a freshly drawn portrait at the centre of the window. Drag a
portrait to move it; the mouse wheel or +/- rescales the selected one and
[ / ] rescale the background. R raises the selection, Delete removes it,
C clears the canvas and S saves the collage. Dropping an image file onto
the window replaces the background.

Start from a scene file with --scene to edit an existing layout.`,
		Example: `  traitstack edit --background backdrops/beach.png
  traitstack edit --scene beach.toml -o out/beach.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			e, err := c.newEngine(ctx, cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			var ws *placement.Workspace
			switch {
			case scene != "":
				s, err := placement.LoadScene(scene)
				if err != nil {
					return err
				}
				if ws, err = e.BuildCollage(ctx, s); err != nil {
					return err
				}
				if output == "" {
					output = e.SceneOutput(s)
				}
			case background != "":
				bg, err := tsio.ImportImage(background)
				if err != nil {
					return err
				}
				ws = placement.New(placement.WithLogger(c.Logger))
				if err := ws.SetBackground(bg); err != nil {
					return err
				}
				if err := ws.SetBackgroundScale(scale); err != nil {
					return err
				}
			default:
				ws = placement.New(placement.WithLogger(c.Logger))
				printInfo("No background given; drop an image onto the window to set one")
			}
			if output == "" {
				output = filepath.Join(cfg.OutputDir, "collage.png")
			}

			composite := func(ctx context.Context) (image.Image, error) {
				e.Randomize()
				return e.WorkspaceComposite(ctx).Image, nil
			}
			ctrl := editor.New(ws, composite, editor.WithOutput(output), editor.WithLogger(c.Logger))
			if err := window.Run(ctx, ctrl, appName+" collage"); err != nil {
				return err
			}
			if ctrl.Saved() > 0 {
				printSuccess("Saved collage %d time(s)", ctrl.Saved())
				printFile(output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&background, "background", "b", "", "background image")
	cmd.Flags().StringVar(&scene, "scene", "", "start from a scene file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "where S saves (default <output_dir>/collage.png)")
	cmd.Flags().Float64Var(&scale, "scale", 1, "initial background scale")
	return cmd
}

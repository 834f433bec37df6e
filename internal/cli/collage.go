package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/traitstack/pkg/placement"
)

func (c *CLI) collageCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "collage <scene.toml>",
		Short: "Flatten a collage scene into one image",
		Long: `Build a collage from a scene file: a background image plus any number of
portraits, each drawn from its own seed and overrides, placed at a position
and scale.

  background = "backdrops/beach.png"
  scale = 0.8

  [[instance]]
  x = 200.0
  y = 300.0
  scale = 0.5
  seed = 7
  overrides = { eyes = "e1.png" }

Instances without x or y are centred on that axis. Background and overlay
layers are left out of every portrait.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			scene, err := placement.LoadScene(args[0])
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			e, err := c.newEngine(ctx, cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			ws, err := e.BuildCollage(ctx, scene)
			if err != nil {
				return err
			}
			path := output
			if path == "" {
				path = e.SceneOutput(scene)
			}
			if err := ws.Save(path); err != nil {
				return err
			}
			size := ws.Canvas()
			printSuccess("Collage with %d portraits (%dx%d)", ws.Len(), size.X, size.Y)
			printFile(path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default from the scene, else <output_dir>/collage.png)")
	return cmd
}

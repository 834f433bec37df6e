package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func (c *CLI) layersCommand() *cobra.Command {
	var (
		files  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "layers",
		Short: "List the layer stack and its traits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			e, err := c.newEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			layers := e.Layers()
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(layers)
			}
			fmt.Println(StyleTitle.Render("Layers") + " " + StyleDim.Render(cfg.StaticDir))
			fmt.Println(layerTable(layers, files))
			return nil
		},
	}
	cmd.Flags().BoolVar(&files, "files", false, "list every file of each layer")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (c *CLI) renameCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <layer> <old> <new>",
		Short: "Rename a trait file",
		Long: `Rename a trait file inside its layer directory.

The new name gets ".png" appended when missing. The rename fails with
NAME_CONFLICT if the layer already has a file of that name.`,
		Example:           `  traitstack rename eyes e1.png sleepy`,
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: c.completeLayers(true),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			e, err := c.newEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			a, err := e.Rename(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			printSuccess("Renamed %s %s %s", args[1], iconArrow, a.Name())
			printFile(e.source.Dir(a.Layer()))
			return nil
		},
	}
	return cmd
}

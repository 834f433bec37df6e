package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	tsio "github.com/matzehuels/traitstack/pkg/io"
	"github.com/matzehuels/traitstack/pkg/pipeline"
)

// composeOpts holds the command-line flags for the compose command.
type composeOpts struct {
	output    string   // composite path; numbered when count > 1
	layersDir string   // also write each resolved layer here
	count     int      // portraits to draw
	preview   bool     // write at preview size
	set       []string // layer=file overrides
}

// composeCommand creates the compose command.
func (c *CLI) composeCommand() *cobra.Command {
	var opts composeOpts

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Draw portraits and write them as PNG",
		Long: `Draw one trait per layer, stack the layers and write the composite.

Layers pinned with --set keep their trait; every other layer is drawn at
random for each portrait.`,
		Example: `  traitstack compose -o out/portrait.png --set eyes=e1.png
  traitstack compose -n 10 --seed 42
  traitstack compose --layers out/layers`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompose(cmd, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <output_dir>/portrait.png)")
	cmd.Flags().StringVar(&opts.layersDir, "layers", "", "also write each resolved layer into this directory")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 1, "number of portraits to draw")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "write at preview size")
	addOverrideFlag(cmd, &opts.set)

	return cmd
}

func (c *CLI) runCompose(cmd *cobra.Command, opts *composeOpts) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}
	overrides, err := parseOverrides(opts.set)
	if err != nil {
		return err
	}
	e, err := c.newEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := applyOverrides(e.Runner, overrides); err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		output = filepath.Join(cfg.OutputDir, "portrait.png")
	}
	count := max(1, opts.count)
	for i := 1; i <= count; i++ {
		if i > 1 {
			e.Randomize()
		}
		path := numbered(output, i, count)
		if opts.preview {
			err = exportFrame(e.Preview(ctx), path)
		} else {
			err = e.ExportComposite(ctx, path)
		}
		if err != nil {
			return err
		}
		printFile(path)
	}
	printSuccess("Composed %d portrait(s)", count)

	if opts.layersDir != "" {
		names, err := e.ExportLayers(ctx, opts.layersDir)
		if err != nil {
			return err
		}
		for _, n := range names {
			printFile(filepath.Join(opts.layersDir, n))
		}
		printSuccess("Exported %d layers", len(names))
	}
	printNextStep("Browse traits", "traitstack serve")
	return nil
}

func exportFrame(f *pipeline.Frame, path string) error {
	return tsio.ExportPNG(f.Image, path)
}

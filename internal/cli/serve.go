package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/traitstack/internal/server"
	"github.com/matzehuels/traitstack/pkg/watch"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noWatch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve live previews over local HTTP",
		Long: `Start a local preview server.

  GET    /preview.png[?full=true]        current portrait
  GET    /api/layers                     layer stack and current picks
  POST   /api/randomize                  draw again
  POST   /api/refresh                    rescan the static directory
  POST   /api/apply                      batch of {layer, select, rename_to}
  DELETE /api/overrides                  unpin every layer
  PUT    /api/layers/{layer}/override    {"name": "e1.png"}
  DELETE /api/layers/{layer}/override
  POST   /api/layers/{layer}/rename      {"from": "e1.png", "to": "sleepy"}
  POST   /api/layers/{layer}/assets      raw PNG body, ?name=suggested

The catalog is refreshed automatically when files change unless --no-watch
is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			e, err := c.newEngine(ctx, cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			if !noWatch {
				w, err := c.startWatcher(ctx, e, nil)
				if err != nil {
					return err
				}
				defer w.Stop()
			}
			printInfo("Previews at %s", StyleHighlight.Render("http://"+cfg.Server.Addr+"/preview.png"))
			return server.New(e.Runner, e.source, c.Logger).ListenAndServe(ctx, cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not refresh on file changes")
	return cmd
}

func (c *CLI) watchCommand() *cobra.Command {
	var (
		output   string
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-export a portrait whenever trait files change",
		Args:  cobra.NoArgs,
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
			if output == "" {
				output = filepath.Join(cfg.OutputDir, "portrait.png")
			}

			export := func(ctx context.Context) {
				if err := e.ExportComposite(ctx, output); err != nil {
					printError("%s", err)
					return
				}
				printFile(output)
			}
			export(ctx)

			w, err := c.startWatcher(ctx, e, export, watch.WithDebounce(debounce))
			if err != nil {
				return err
			}
			defer w.Stop()
			printInfo("Watching %s (ctrl+c to stop)", cfg.StaticDir)
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <output_dir>/portrait.png)")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "quiet period before refreshing")
	return cmd
}

// startWatcher refreshes e whenever a layer directory changes, then calls
// after if it is set.
func (c *CLI) startWatcher(ctx context.Context, e *engine, after func(context.Context), opts ...watch.Option) (*watch.Watcher, error) {
	dirs := make([]string, 0, len(e.Config().Layers))
	for _, layer := range e.Config().Layers {
		dirs = append(dirs, e.source.Dir(layer))
	}
	onChange := func(ctx context.Context, paths []string) {
		report, err := e.Refresh(ctx)
		if err != nil {
			c.Logger.Error("refresh failed", "err", err)
			return
		}
		c.Logger.Info("refreshed", "changed", len(paths), "traits", report.Assets)
		printWarnings(report.Warnings)
		if after != nil {
			after(ctx)
		}
	}
	w, err := watch.New(dirs, onChange, append([]watch.Option{watch.WithLogger(c.Logger)}, opts...)...)
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

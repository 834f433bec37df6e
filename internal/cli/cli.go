// Package cli implements the traitstack command-line interface.
//
// Every command loads the layered configuration (see pkg/config), builds one
// pipeline.Runner over the static directory and drives it. Long-running
// commands (serve, watch, edit, pick) share the runner with their own
// goroutines; the runner serialises access.
//
// # Commands
//
//   - compose: draw portraits and write them as PNG
//   - layers: list the layer stack and its assets
//   - rename: rename a trait file
//   - collage: flatten a scene file into one image
//   - pad: normalise trait files onto the canvas
//   - pick: choose overrides interactively in the terminal
//   - serve: local preview server, refreshed on file changes
//   - watch: re-export a composite whenever the assets change
//   - edit: interactive collage editor window
//   - cache: manage the preview cache
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/traitstack/pkg/buildinfo"
	"github.com/matzehuels/traitstack/pkg/cache"
	"github.com/matzehuels/traitstack/pkg/catalog"
	"github.com/matzehuels/traitstack/pkg/config"
	"github.com/matzehuels/traitstack/pkg/gate"
	"github.com/matzehuels/traitstack/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	verbose    bool
	configPath string
	staticDir  string
	seed       uint64
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Traitstack composes layered trait portraits",
		Long:         `Traitstack builds portraits by stacking one randomly drawn or pinned trait image per layer, and arranges portraits into collages.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
				installDebugHooks(c.Logger)
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVarP(&c.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/traitstack/config.toml)")
	flags.StringVar(&c.staticDir, "static", "", "directory holding one sub-directory per layer")
	flags.Uint64Var(&c.seed, "seed", 0, "seed for every random draw (0 picks one)")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the preview cache")

	root.AddCommand(c.composeCommand())
	root.AddCommand(c.layersCommand())
	root.AddCommand(c.renameCommand())
	root.AddCommand(c.collageCommand())
	root.AddCommand(c.padCommand())
	root.AddCommand(c.pickCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

// loadConfig loads the configuration and applies the persistent flags.
func (c *CLI) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("static") {
		cfg.StaticDir = c.staticDir
	}
	if flags.Changed("seed") {
		cfg.Seed = c.seed
	}
	if flags.Changed("no-cache") {
		cfg.NoCache = c.noCache
	}
	return cfg, cfg.Validate()
}

// newRedisClient opens the shared Redis client; tests replace it.
var newRedisClient = redis.NewClient

// engine is a runner plus the resources it holds open.
type engine struct {
	*pipeline.Runner
	source  *catalog.DirSource
	closers []io.Closer
}

// Close releases the cache and gate connections.
func (e *engine) Close() {
	for _, cl := range e.closers {
		_ = cl.Close()
	}
}

// newEngine builds a runner over cfg.StaticDir and loads the catalog once.
func (c *CLI) newEngine(ctx context.Context, cfg *config.Config) (*engine, error) {
	e := &engine{source: catalog.NewDirSource(cfg.StaticDir)}

	var client *redis.Client
	if cfg.Redis.Addr != "" {
		client = newRedisClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		e.closers = append(e.closers, client)
	}

	opts := []catalog.Option{
		catalog.WithLayers(cfg.Layers),
		catalog.WithPreviewSize(cfg.PreviewSize().X, cfg.PreviewSize().Y),
		catalog.WithWorkers(cfg.Workers),
		catalog.WithLogger(c.Logger),
	}
	if client != nil {
		opts = append(opts, catalog.WithGate(gate.NewRedisGate(client,
			gate.WithNamespace(cfg.Redis.Namespace),
			gate.WithCredential(cfg.Redis.Unlock),
			gate.WithLogger(c.Logger))))
	}
	store, err := c.newCache(cfg, client)
	if err != nil {
		e.Close()
		return nil, err
	}
	opts = append(opts, catalog.WithCache(store, cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Redis.Namespace)))

	e.Runner = pipeline.NewRunner(catalog.New(e.source, opts...), cfg, c.Logger)

	spin := newSpinnerWithContext(ctx, "Loading traits from "+cfg.StaticDir)
	spin.Start()
	report, err := e.Refresh(ctx)
	elapsed := spin.Stop()
	if err != nil {
		e.Close()
		return nil, err
	}
	c.Logger.Infof("Loaded traits (%s)", elapsed.Round(time.Millisecond))
	printRefresh(report)
	return e, nil
}

// newCache picks the preview cache: none, Redis when configured, else files
// under the cache directory.
func (c *CLI) newCache(cfg *config.Config, client *redis.Client) (cache.Cache, error) {
	if cfg.NoCache {
		return cache.NewNullCache(), nil
	}
	if client != nil && cfg.Redis.Cache {
		return cache.NewRedisCache(client), nil
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		c.Logger.Warn("preview cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/traitstack/).
func cacheDir(cfg *config.Config) (string, error) {
	return cfg.ResolvedCacheDir()
}

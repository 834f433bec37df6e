// Package config loads traitstack settings.
//
// Values are layered, later sources winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file (--config, or $XDG_CONFIG_HOME/traitstack/config.toml)
//  3. TRAITSTACK_* environment variables
//  4. command-line flags, applied by the CLI
//
// A minimal file:
//
//	static_dir = "static"
//	seed = 42
//
//	[noise]
//	enabled = true
//	intensity = 0.25
//
//	[layer_noise.background]
//	enabled = false
package config

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/matzehuels/traitstack/pkg/catalog"
	"github.com/matzehuels/traitstack/pkg/compose"
	"github.com/matzehuels/traitstack/pkg/errors"
	"github.com/matzehuels/traitstack/pkg/noise"
)

// AppName names the config and cache directories.
const AppName = "traitstack"

// DefaultPadShift is how far non-background layers move right when padded.
const DefaultPadShift = 30

// Config is the complete runtime configuration.
type Config struct {
	StaticDir string `toml:"static_dir" env:"TRAITSTACK_STATIC_DIR"`
	OutputDir string `toml:"output_dir" env:"TRAITSTACK_OUTPUT_DIR"`

	Width        int     `toml:"width" env:"TRAITSTACK_WIDTH"`
	Height       int     `toml:"height" env:"TRAITSTACK_HEIGHT"`
	PreviewScale float64 `toml:"preview_scale" env:"TRAITSTACK_PREVIEW_SCALE"`

	Layers         []string `toml:"layers" env:"TRAITSTACK_LAYERS" envSeparator:","`
	Overlay        string   `toml:"overlay" env:"TRAITSTACK_OVERLAY"`
	OverlayOpacity float64  `toml:"overlay_opacity" env:"TRAITSTACK_OVERLAY_OPACITY"`
	Background     string   `toml:"background_layer" env:"TRAITSTACK_BACKGROUND_LAYER"`

	Noise      Noise                          `toml:"noise" envPrefix:"TRAITSTACK_NOISE_"`
	LayerNoise map[string]compose.NoiseConfig `toml:"layer_noise"`

	// Seed fixes every random draw. Zero picks a fresh seed per run.
	Seed uint64 `toml:"seed" env:"TRAITSTACK_SEED"`

	Workers  int    `toml:"workers" env:"TRAITSTACK_WORKERS"`
	CacheDir string `toml:"cache_dir" env:"TRAITSTACK_CACHE_DIR"`
	NoCache  bool   `toml:"no_cache" env:"TRAITSTACK_NO_CACHE"`
	PadShift int    `toml:"pad_shift" env:"TRAITSTACK_PAD_SHIFT"`

	Redis  Redis  `toml:"redis" envPrefix:"TRAITSTACK_REDIS_"`
	Server Server `toml:"server" envPrefix:"TRAITSTACK_SERVER_"`
}

// Noise holds the default noise settings for every layer.
type Noise struct {
	Enabled   bool    `toml:"enabled" env:"ENABLED"`
	Intensity float64 `toml:"intensity" env:"INTENSITY"`
}

// Redis configures the optional gate and shared preview cache.
type Redis struct {
	Addr     string `toml:"addr" env:"ADDR"`
	Password string `toml:"password" env:"PASSWORD"`
	DB       int    `toml:"db" env:"DB"`

	// Namespace prefixes every key.
	Namespace string `toml:"namespace" env:"NAMESPACE"`
	// Unlock is the credential that reveals hidden traits.
	Unlock string `toml:"unlock" env:"UNLOCK"`
	// Cache stores previews in Redis instead of on disk.
	Cache bool `toml:"cache" env:"CACHE"`
}

// Server configures the preview server.
type Server struct {
	Addr string `toml:"addr" env:"ADDR"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		StaticDir:      "static",
		OutputDir:      "out",
		Width:          catalog.DefaultWidth,
		Height:         catalog.DefaultHeight,
		PreviewScale:   catalog.DefaultPreviewScale,
		Layers:         slices.Clone(catalog.DefaultLayers),
		Overlay:        catalog.DefaultOverlay,
		OverlayOpacity: compose.DefaultOverlayOpacity,
		Background:     catalog.DefaultBackground,
		Noise:          Noise{Enabled: true, Intensity: noise.DefaultIntensity},
		PadShift:       DefaultPadShift,
		Redis:          Redis{Namespace: AppName + ":"},
		Server:         Server{Addr: "127.0.0.1:8080"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/traitstack/config.toml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// Load builds the configuration from defaults, the file at path and the
// environment. An empty path reads the default file if it exists; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		err := cfg.decodeFile(path)
		if err != nil && (explicit || !errors.Is(err, errors.ErrCodeFileNotFound)) {
			return nil, err
		}
	}
	if err := ParseEnv(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "environment")
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "%s: unknown key %s", path, undec[0])
	}
	return nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Normalize clamps values that are bounded rather than rejected.
func (c *Config) Normalize() {
	c.Noise.Intensity = noise.Clamp(c.Noise.Intensity)
	for layer, n := range c.LayerNoise {
		n.Intensity = noise.Clamp(n.Intensity)
		c.LayerNoise[layer] = n
	}
	if c.OverlayOpacity < 0 {
		c.OverlayOpacity = 0
	}
	if c.OverlayOpacity > 1 {
		c.OverlayOpacity = 1
	}
}

// Validate rejects unusable settings.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "canvas size %dx%d must be positive", c.Width, c.Height)
	}
	if c.PreviewScale <= 0 || c.PreviewScale > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "preview_scale %.2f must be in (0, 1]", c.PreviewScale)
	}
	if len(c.Layers) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "layer stack is empty")
	}
	seen := make(map[string]bool, len(c.Layers))
	for _, layer := range c.Layers {
		if err := errors.ValidateLayerName(layer); err != nil {
			return err
		}
		if seen[layer] {
			return errors.New(errors.ErrCodeInvalidLayer, "layer %q listed twice", layer)
		}
		seen[layer] = true
	}
	if c.Overlay != "" && !seen[c.Overlay] {
		return errors.New(errors.ErrCodeInvalidLayer, "overlay %q is not in the layer stack", c.Overlay)
	}
	for layer := range c.LayerNoise {
		if !seen[layer] {
			return errors.New(errors.ErrCodeInvalidLayer, "layer_noise.%s is not in the layer stack", layer)
		}
	}
	if c.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must not be negative")
	}
	if err := errors.ValidatePath(c.StaticDir); err != nil {
		return err
	}
	return nil
}

// CanvasSize returns the full-resolution canvas.
func (c *Config) CanvasSize() image.Point { return image.Pt(c.Width, c.Height) }

// PreviewSize returns the preview canvas.
func (c *Config) PreviewSize() image.Point {
	return catalog.PreviewSize(c.Width, c.Height, c.PreviewScale)
}

// ComposeOptions returns compose settings for a preview or full render.
func (c *Config) ComposeOptions(preview bool, seed uint64) compose.Options {
	opacity := c.OverlayOpacity
	if opacity == 0 {
		opacity = -1
	}
	return compose.Options{
		Preview:        preview,
		Overlay:        c.Overlay,
		OverlayOpacity: opacity,
		Noise:          c.LayerNoise,
		NoiseDefault:   compose.NoiseConfig{Enabled: c.Noise.Enabled, Intensity: c.Noise.Intensity},
		Seed:           seed,
	}
}

// CollageExclude lists the layers a collage instance leaves out.
func (c *Config) CollageExclude() []string {
	var out []string
	if c.Background != "" {
		out = append(out, c.Background)
	}
	if c.Overlay != "" && c.Overlay != c.Background {
		out = append(out, c.Overlay)
	}
	return out
}

// ResolvedCacheDir returns CacheDir or $XDG_CACHE_HOME/traitstack.
func (c *Config) ResolvedCacheDir() (string, error) {
	if c.CacheDir != "" {
		return c.CacheDir, nil
	}
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

package placement

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/traitstack/pkg/errors"
)

// Scene describes a collage to build without the interactive editor.
//
//	background = "backdrops/beach.png"
//	scale = 0.8
//	output = "out/beach.png"
//
//	[[instance]]
//	x = 200.0
//	y = 300.0
//	scale = 0.5
//	seed = 7
//	overrides = { eyes = "e1.png" }
type Scene struct {
	Background string          `toml:"background"`
	Scale      float64         `toml:"scale"`
	Output     string          `toml:"output"`
	Instances  []SceneInstance `toml:"instance"`

	dir string
}

// SceneInstance is one composite of a Scene. A nil X or Y centres the
// instance on the canvas along that axis.
type SceneInstance struct {
	X         *float64          `toml:"x"`
	Y         *float64          `toml:"y"`
	Scale     float64           `toml:"scale"`
	Seed      uint64            `toml:"seed"`
	Overrides map[string]string `toml:"overrides"`
}

// LoadScene decodes a scene file. Relative paths in it are resolved against
// the file's directory.
func LoadScene(path string) (*Scene, error) {
	var s Scene
	md, err := toml.DecodeFile(path, &s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse scene %s", path)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scene %s: unknown key %s", path, undec[0])
	}
	s.dir = filepath.Dir(path)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// SetDefaults fills in zero scales.
func (s *Scene) SetDefaults() {
	if s.Scale == 0 {
		s.Scale = 1
	}
	for i := range s.Instances {
		if s.Instances[i].Scale == 0 {
			s.Instances[i].Scale = 1
		}
	}
}

// Validate checks the scene after applying defaults.
func (s *Scene) Validate() error {
	s.SetDefaults()
	if s.Background == "" {
		return errors.New(errors.ErrCodeNoBackground, "scene has no background")
	}
	if s.Scale < MinScale || s.Scale > MaxScale {
		return errors.New(errors.ErrCodeInvalidInput, "background scale %.2f outside [%.1f, %.1f]", s.Scale, MinScale, MaxScale)
	}
	for i, in := range s.Instances {
		if in.Scale < MinScale || in.Scale > MaxScale {
			return errors.New(errors.ErrCodeInvalidInput, "instance %d: scale %.2f outside [%.1f, %.1f]", i+1, in.Scale, MinScale, MaxScale)
		}
	}
	return nil
}

// Resolve returns p relative to the scene file.
func (s *Scene) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || s.dir == "" {
		return p
	}
	return filepath.Join(s.dir, p)
}

// BackgroundPath returns the background path resolved against the scene.
func (s *Scene) BackgroundPath() string { return s.Resolve(s.Background) }

// Center returns where an instance goes on a canvas of the given size.
func (in SceneInstance) Center(w, h int) Point {
	c := Pt(float64(w)/2, float64(h)/2)
	if in.X != nil {
		c.X = *in.X
	}
	if in.Y != nil {
		c.Y = *in.Y
	}
	return c
}

func (in SceneInstance) String() string {
	return fmt.Sprintf("instance(scale=%.2f seed=%d overrides=%d)", in.Scale, in.Seed, len(in.Overrides))
}

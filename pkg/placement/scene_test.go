package placement

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/traitstack/pkg/errors"
)

func writeScene(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScene(t *testing.T) {
	path := writeScene(t, `
background = "beach.png"
scale = 0.8

[[instance]]
x = 200.0
scale = 0.5
seed = 7
overrides = { eyes = "e1.png" }

[[instance]]
`)
	s, err := LoadScene(path)
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	if got, want := s.BackgroundPath(), filepath.Join(filepath.Dir(path), "beach.png"); got != want {
		t.Errorf("BackgroundPath = %s, want %s", got, want)
	}
	if len(s.Instances) != 2 {
		t.Fatalf("instances = %d, want 2", len(s.Instances))
	}
	first, second := s.Instances[0], s.Instances[1]
	if first.Overrides["eyes"] != "e1.png" || first.Seed != 7 {
		t.Errorf("first instance = %v", first)
	}
	if c := first.Center(400, 600); c != Pt(200, 300) {
		t.Errorf("first centre = %v, want (200,300)", c)
	}
	if second.Scale != 1 {
		t.Errorf("default instance scale = %v, want 1", second.Scale)
	}
}

func TestLoadSceneErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"no background", `scale = 1.0`, errors.ErrCodeNoBackground},
		{"bad scale", "background = \"b.png\"\nscale = 3.0", errors.ErrCodeInvalidInput},
		{"unknown key", "background = \"b.png\"\ncolour = 1", errors.ErrCodeInvalidInput},
		{"syntax", `background = `, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScene(writeScene(t, tt.body))
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

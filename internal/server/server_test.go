package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/traitstack/pkg/catalog"
	"github.com/matzehuels/traitstack/pkg/config"
	tsio "github.com/matzehuels/traitstack/pkg/io"
	"github.com/matzehuels/traitstack/pkg/pipeline"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func newServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Width, cfg.Height = 20, 10
	cfg.PreviewScale = 0.5
	cfg.Layers = []string{"background", "eyes", "health"}
	cfg.Seed = 7

	files := map[string][]string{
		"background": {"blue.png"},
		"eyes":       {"e1.png", "e2.png"},
		"health":     {"full.png"},
	}
	for layer, names := range files {
		for _, name := range names {
			if err := tsio.ExportPNG(solid(20, 10, color.NRGBA{R: 10, G: 20, B: 30, A: 255}), filepath.Join(root, layer, name)); err != nil {
				t.Fatal(err)
			}
		}
	}

	src := catalog.NewDirSource(root)
	cat := catalog.New(src,
		catalog.WithLayers(cfg.Layers),
		catalog.WithPreviewSize(cfg.PreviewSize().X, cfg.PreviewSize().Y))
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(cat, cfg, logger)
	if _, err := runner.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(New(runner, src, logger))
	t.Cleanup(ts.Close)
	return ts, root
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestLayers(t *testing.T) {
	ts, _ := newServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/api/layers", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var layers []pipeline.LayerInfo
	if err := json.NewDecoder(resp.Body).Decode(&layers); err != nil {
		t.Fatal(err)
	}
	if len(layers) != 3 || layers[1].Name != "eyes" || len(layers[1].Assets) != 2 {
		t.Errorf("layers = %+v", layers)
	}
}

func TestPreviewSizes(t *testing.T) {
	ts, _ := newServer(t)
	tests := []struct {
		query string
		want  image.Point
	}{
		{"", image.Pt(10, 5)},
		{"?full=true", image.Pt(20, 10)},
	}
	for _, tt := range tests {
		resp := do(t, http.MethodGet, ts.URL+"/preview.png"+tt.query, "")
		if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
			t.Fatalf("content type = %q", ct)
		}
		img, err := tsio.Read(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		if got := img.Bounds().Size(); got != tt.want {
			t.Errorf("preview%s size = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestOverrideLifecycle(t *testing.T) {
	ts, _ := newServer(t)

	resp := do(t, http.MethodPut, ts.URL+"/api/layers/eyes/override", `{"name":"e2.png"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put status = %d", resp.StatusCode)
	}
	var layers []pipeline.LayerInfo
	if err := json.NewDecoder(resp.Body).Decode(&layers); err != nil {
		t.Fatal(err)
	}
	if !layers[1].Overridden || layers[1].Current != "e2.png" {
		t.Errorf("eyes = %+v, want overridden e2.png", layers[1])
	}

	if resp := do(t, http.MethodDelete, ts.URL+"/api/layers/eyes/override", ""); resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodDelete, ts.URL+"/api/layers/eyes/override", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
	if resp := do(t, http.MethodPut, ts.URL+"/api/layers/eyes/override", `{"name":"nope.png"}`); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown asset status = %d, want 404", resp.StatusCode)
	}
}

func TestRenameConflict(t *testing.T) {
	ts, root := newServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/layers/eyes/rename", `{"from":"e1.png","to":"e2"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Code != "NAME_CONFLICT" {
		t.Errorf("code = %q", body.Code)
	}

	resp = do(t, http.MethodPost, ts.URL+"/api/layers/eyes/rename", `{"from":"e1.png","to":"wide"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if _, err := os.Stat(filepath.Join(root, "eyes", "wide.png")); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
}

func TestBadBody(t *testing.T) {
	ts, _ := newServer(t)
	if resp := do(t, http.MethodPost, ts.URL+"/api/apply", "{"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestApply(t *testing.T) {
	ts, _ := newServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/api/apply",
		`[{"layer":"eyes","select":"e1.png","rename_to":"first"},{"layer":"health","select":"gone.png"}]`)
	var got applyResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Selected != 1 || got.Renamed != 1 || len(got.Failed) != 1 {
		t.Errorf("apply = %+v", got)
	}
}

func TestUploadRefreshes(t *testing.T) {
	ts, root := newServer(t)
	data, err := tsio.EncodePNG(solid(20, 10, color.NRGBA{A: 255}))
	if err != nil {
		t.Fatal(err)
	}
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/layers/eyes/assets?name=e1", bytes.NewReader(data))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got renameResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "e1-1.png" {
		t.Errorf("name = %q, want e1-1.png", got.Name)
	}
	if _, err := os.Stat(filepath.Join(root, "eyes", "e1-1.png")); err != nil {
		t.Error(err)
	}

	if resp := do(t, http.MethodPost, ts.URL+"/api/layers/eyes/assets", "junk"); resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("junk upload status = %d, want 415", resp.StatusCode)
	}
}

func TestUploadRejectsUnknownLayer(t *testing.T) {
	ts, root := newServer(t)
	data, err := tsio.EncodePNG(solid(20, 10, color.NRGBA{A: 255}))
	if err != nil {
		t.Fatal(err)
	}
	resp := do(t, http.MethodPost, ts.URL+"/api/layers/hats/assets?name=cap", string(data))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	var e errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatal(err)
	}
	if e.Code != "INVALID_LAYER" {
		t.Errorf("code = %s, want INVALID_LAYER", e.Code)
	}
	if _, err := os.Stat(filepath.Join(root, "hats")); !os.IsNotExist(err) {
		t.Errorf("hats directory should not exist, stat err = %v", err)
	}
}

func TestClearOverrides(t *testing.T) {
	ts, _ := newServer(t)
	for _, layer := range []string{"eyes", "background"} {
		name := "e1.png"
		if layer == "background" {
			name = "blue.png"
		}
		if resp := do(t, http.MethodPut, ts.URL+"/api/layers/"+layer+"/override", `{"name":"`+name+`"}`); resp.StatusCode != http.StatusOK {
			t.Fatalf("pin %s: status = %d", layer, resp.StatusCode)
		}
	}

	resp := do(t, http.MethodDelete, ts.URL+"/api/overrides", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got clearResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Cleared != 2 {
		t.Errorf("cleared = %d, want 2", got.Cleared)
	}
	for _, l := range got.Layers {
		if l.Overridden {
			t.Errorf("layer %s still pinned", l.Name)
		}
	}
}

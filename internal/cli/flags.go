package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/traitstack/pkg/errors"
	tsio "github.com/matzehuels/traitstack/pkg/io"
	"github.com/matzehuels/traitstack/pkg/pipeline"
)

// =============================================================================
// Shared Flag Helpers
// =============================================================================

// parseOverrides turns repeated layer=name flags into a map. Names without
// ".png" get it appended.
func parseOverrides(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		layer, name, ok := strings.Cut(p, "=")
		layer, name = strings.TrimSpace(layer), strings.TrimSpace(name)
		if !ok || layer == "" || name == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "override %q must look like layer=file.png", p)
		}
		out[layer] = tsio.EnsurePNG(name)
	}
	return out, nil
}

// applyOverrides pins each layer of overrides on the runner.
func applyOverrides(r *pipeline.Runner, overrides map[string]string) error {
	for layer, name := range overrides {
		if err := r.SetOverride(layer, name); err != nil {
			return err
		}
	}
	return nil
}

// addOverrideFlag registers the repeatable --set flag.
func addOverrideFlag(cmd *cobra.Command, target *[]string) {
	cmd.Flags().StringArrayVar(target, "set", nil, "pin a layer to a file, e.g. --set eyes=e1.png (repeatable)")
}

// numbered returns path with "-n" before its extension when count > 1.
func numbered(path string, n, count int) string {
	if count <= 1 {
		return path
	}
	ext := ""
	if i := strings.LastIndex(path, "."); i > strings.LastIndex(path, "/") {
		path, ext = path[:i], path[i:]
	}
	return fmt.Sprintf("%s-%d%s", path, n, ext)
}

package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/traitstack/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// =============================================================================
// Debug Hooks
// =============================================================================

// debugHooks reports engine events at debug level. It is installed by
// --verbose.
type debugHooks struct {
	logger *log.Logger
}

func installDebugHooks(l *log.Logger) {
	h := debugHooks{logger: l}
	observability.SetCatalogHooks(h)
	observability.SetComposeHooks(h)
	observability.SetCacheHooks(h)
}

func (h debugHooks) OnLoadStart(_ context.Context, layers int) {
	h.logger.Debug("catalog load", "layers", layers)
}

func (h debugHooks) OnLoadComplete(_ context.Context, assets int, d time.Duration, err error) {
	h.logger.Debug("catalog loaded", "assets", assets, "duration", d.Round(time.Microsecond), "err", err)
}

func (h debugHooks) OnComposeStart(context.Context, int, bool) {}

func (h debugHooks) OnComposeComplete(_ context.Context, preview bool, d time.Duration, err error) {
	h.logger.Debug("composed", "preview", preview, "duration", d.Round(time.Microsecond), "err", err)
}

func (h debugHooks) OnExport(_ context.Context, kind string, files int, err error) {
	h.logger.Debug("export", "kind", kind, "files", files, "err", err)
}

func (h debugHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h debugHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h debugHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

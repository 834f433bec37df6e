// Package observability provides hooks for metrics, tracing, and logging.
//
// Instrumentation is optional and carries no dependency on a specific
// backend. Consumers register hooks at startup to receive events about
// catalog loads, composition, cache traffic and preview-server requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for each event category
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, never by libraries, so no import cycles
// appear between the instrumented packages and the backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetCatalogHooks(&myCatalogHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Catalog().OnLoadStart(ctx, len(layers))
//	// ... scan and decode ...
//	observability.Catalog().OnLoadComplete(ctx, assets, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Catalog Hooks
// =============================================================================

// CatalogHooks receives events from catalog loads.
type CatalogHooks interface {
	OnLoadStart(ctx context.Context, layers int)
	OnLoadComplete(ctx context.Context, assets int, duration time.Duration, err error)
}

// =============================================================================
// Compose Hooks
// =============================================================================

// ComposeHooks receives events from the compositing pipeline.
type ComposeHooks interface {
	// OnComposeStart fires before a canvas is rendered.
	OnComposeStart(ctx context.Context, layers int, preview bool)

	// OnComposeComplete fires once the canvas is ready or failed.
	OnComposeComplete(ctx context.Context, preview bool, duration time.Duration, err error)

	// OnExport records a file written to disk.
	OnExport(ctx context.Context, kind string, files int, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the preview server.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the response sent for a request.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCatalogHooks is a no-op implementation of CatalogHooks.
type NoopCatalogHooks struct{}

func (NoopCatalogHooks) OnLoadStart(context.Context, int)                           {}
func (NoopCatalogHooks) OnLoadComplete(context.Context, int, time.Duration, error) {}

// NoopComposeHooks is a no-op implementation of ComposeHooks.
type NoopComposeHooks struct{}

func (NoopComposeHooks) OnComposeStart(context.Context, int, bool)                     {}
func (NoopComposeHooks) OnComposeComplete(context.Context, bool, time.Duration, error) {}
func (NoopComposeHooks) OnExport(context.Context, string, int, error)                  {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	catalogHooks CatalogHooks = NoopCatalogHooks{}
	composeHooks ComposeHooks = NoopComposeHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetCatalogHooks registers custom catalog hooks.
func SetCatalogHooks(h CatalogHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		catalogHooks = h
	}
}

// SetComposeHooks registers custom compose hooks.
func SetComposeHooks(h ComposeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		composeHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Catalog returns the registered catalog hooks.
func Catalog() CatalogHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return catalogHooks
}

// Compose returns the registered compose hooks.
func Compose() ComposeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return composeHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	catalogHooks = NoopCatalogHooks{}
	composeHooks = NoopComposeHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}

// Package observability lets callers observe frames, cache traffic and HTTP
// requests without picgraph importing a metrics backend.
//
// Each event category is a hook interface with a no-op default. main
// registers real implementations once, before any frame is built; library
// code only reads them:
//
//	observability.SetFrameHooks(promFrameHooks{})
//
//	// in pkg/builder
//	observability.Frame().OnPassesBuilt(ctx, frameID, passes, scheduled, elapsed)
//
// Frame events arrive in phase order for one frame: OnFrameStart,
// OnPassesBuilt, OnSurfacesAssigned, OnBoundsPropagated. A cancelled frame
// stops emitting at the phase where it was cancelled.
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Frame Hooks
// =============================================================================

// FrameHooks receives events from the frame builder.
type FrameHooks interface {
	OnFrameStart(ctx context.Context, frameID string, pictures int)
	OnPassesBuilt(ctx context.Context, frameID string, passes, scheduled int, duration time.Duration)
	OnSurfacesAssigned(ctx context.Context, frameID string, surfaces int, duration time.Duration)
	OnBoundsPropagated(ctx context.Context, frameID string, propagations int, duration time.Duration)
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

// HTTPHooks receives events from the HTTP API server.
type HTTPHooks interface {
	// OnRequest records an incoming HTTP request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the response written for a request.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopFrameHooks is a no-op implementation of FrameHooks.
type NoopFrameHooks struct{}

func (NoopFrameHooks) OnFrameStart(context.Context, string, int)                      {}
func (NoopFrameHooks) OnPassesBuilt(context.Context, string, int, int, time.Duration) {}
func (NoopFrameHooks) OnSurfacesAssigned(context.Context, string, int, time.Duration) {}
func (NoopFrameHooks) OnBoundsPropagated(context.Context, string, int, time.Duration) {}

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
	frameHooks FrameHooks = NoopFrameHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetFrameHooks registers custom frame hooks.
// Call it before the first frame.
func SetFrameHooks(h FrameHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		frameHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// Call it before the first cache is opened.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// Call it before the server starts.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Frame returns the registered frame hooks.
func Frame() FrameHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return frameHooks
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
	frameHooks = NoopFrameHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}

// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers can register
// hooks at startup to receive events about pipeline stages and cache
// operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnStageStart(ctx, "BANK", ffCount)
//	// ... run the stage ...
//	observability.Pipeline().OnStageComplete(ctx, "BANK", duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the transformation pipeline.
type PipelineHooks interface {
	// OnRunStart fires when a pipeline run begins.
	OnRunStart(ctx context.Context, runID, designName string, ffCount int)

	// OnStageStart fires before each stage with the live FF count.
	OnStageStart(ctx context.Context, stage string, ffCount int)

	// OnStageComplete fires after each stage.
	OnStageComplete(ctx context.Context, stage string, duration time.Duration, err error)

	// OnRunComplete fires when a pipeline run finishes.
	OnRunComplete(ctx context.Context, runID string, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, key string)
	OnCacheMiss(ctx context.Context, key string)
}

// =============================================================================
// No-op defaults
// =============================================================================

type noopPipelineHooks struct{}

func (noopPipelineHooks) OnRunStart(context.Context, string, string, int)                {}
func (noopPipelineHooks) OnStageStart(context.Context, string, int)                     {}
func (noopPipelineHooks) OnStageComplete(context.Context, string, time.Duration, error) {}
func (noopPipelineHooks) OnRunComplete(context.Context, string, time.Duration, error)   {}

type noopCacheHooks struct{}

func (noopCacheHooks) OnCacheHit(context.Context, string)  {}
func (noopCacheHooks) OnCacheMiss(context.Context, string) {}

// =============================================================================
// Registry
// =============================================================================

var (
	mu            sync.RWMutex
	pipelineHooks PipelineHooks = noopPipelineHooks{}
	cacheHooks    CacheHooks    = noopCacheHooks{}
)

// SetPipelineHooks registers pipeline hooks. Call once at startup.
func SetPipelineHooks(h PipelineHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		pipelineHooks = noopPipelineHooks{}
		return
	}
	pipelineHooks = h
}

// Pipeline returns the registered pipeline hooks (never nil).
func Pipeline() PipelineHooks {
	mu.RLock()
	defer mu.RUnlock()
	return pipelineHooks
}

// SetCacheHooks registers cache hooks. Call once at startup.
func SetCacheHooks(h CacheHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		cacheHooks = noopCacheHooks{}
		return
	}
	cacheHooks = h
}

// CacheEvents returns the registered cache hooks (never nil).
func CacheEvents() CacheHooks {
	mu.RLock()
	defer mu.RUnlock()
	return cacheHooks
}

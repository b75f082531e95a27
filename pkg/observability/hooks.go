// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Hooks are plain
// interfaces with no-op defaults; consumers pass implementations to the
// component they want to observe.
//
// # Architecture
//
// Hooks are scoped, never global:
//   - [WorkspaceHooks] are set per workspace in blocks.Options
//   - [MemoHooks] are set per measure.Scope
//   - [HTTPHooks] are set per server
//
// Two workspaces in one process therefore never share counters.
//
// # Usage
//
//	counters := observability.NewCounters()
//	ws := blocks.NewWorkspace(blocks.Options{Hooks: counters})
//	// ... drag and drop
//	fmt.Println(counters.Snapshot())
package observability

import (
	"time"
)

// =============================================================================
// Workspace Hooks
// =============================================================================

// WorkspaceHooks receives events from the connection engine.
type WorkspaceHooks interface {
	// OnSearch records a nearest-connection search.
	OnSearch(kind string, found bool, distance float64)

	// OnConnect and OnDisconnect record link changes.
	OnConnect(parentID, childID, kind string)
	OnDisconnect(parentID, childID, kind string)

	// OnBump records a block pushed out of snapping range.
	OnBump(blockID string, dx, dy float64)

	// OnFieldChange records an accepted field value change.
	OnFieldChange(blockID, field string)

	// OnInvariant records a programming error raised by op.
	OnInvariant(op string, err error)
}

// =============================================================================
// Memo Hooks
// =============================================================================

// MemoHooks receives events from scoped memo tables.
type MemoHooks interface {
	OnMemoHit(table string)
	OnMemoMiss(table string)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP server.
type HTTPHooks interface {
	// OnRequest records an incoming request for a route pattern.
	OnRequest(method, route string)

	// OnResponse records the response status and handling time.
	OnResponse(method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopWorkspaceHooks is a no-op implementation of WorkspaceHooks.
type NoopWorkspaceHooks struct{}

func (NoopWorkspaceHooks) OnSearch(string, bool, float64)      {}
func (NoopWorkspaceHooks) OnConnect(string, string, string)    {}
func (NoopWorkspaceHooks) OnDisconnect(string, string, string) {}
func (NoopWorkspaceHooks) OnBump(string, float64, float64)     {}
func (NoopWorkspaceHooks) OnFieldChange(string, string)        {}
func (NoopWorkspaceHooks) OnInvariant(string, error)           {}

// NoopMemoHooks is a no-op implementation of MemoHooks.
type NoopMemoHooks struct{}

func (NoopMemoHooks) OnMemoHit(string)  {}
func (NoopMemoHooks) OnMemoMiss(string) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(string, string)                      {}
func (NoopHTTPHooks) OnResponse(string, string, int, time.Duration) {}

var (
	_ WorkspaceHooks = NoopWorkspaceHooks{}
	_ MemoHooks      = NoopMemoHooks{}
	_ HTTPHooks      = NoopHTTPHooks{}
)

// Package pkg holds the libraries behind snaplink, the connection and
// layout engine of a block editor.
//
// # Overview
//
// The engine lives in a handful of packages:
//
//  1. [blocks] - blocks, typed connections, the per-kind connection index,
//     drag-time matching, bumping and visibility
//  2. [spatial] - the sorted, y-ordered index the matcher searches
//  3. [field] - editable fields, the validation pipeline and the editor
//     protocol
//  4. [blockdef] - TOML block definitions and the shadow factory
//  5. [events] - the event recorder and its sinks
//
// Around it sit the adapters: [pipeline] wires one editing session,
// [scenario] and [server] drive it, and [render] exports snapshots.
//
// # Architecture
//
// A typical drag:
//
//	Workspace.StartDrag
//	         ↓
//	    Drag.Move (nearest compatible connection within the snap radius)
//	         ↓
//	    Drag.End (connect, re-render, bump neighbours)
//	         ↓
//	    Recorder.Flush (events to Redis, MongoDB or a file)
//
// [blocks]: github.com/matzehuels/snaplink/pkg/blocks
// [spatial]: github.com/matzehuels/snaplink/pkg/spatial
// [field]: github.com/matzehuels/snaplink/pkg/field
// [blockdef]: github.com/matzehuels/snaplink/pkg/blockdef
// [events]: github.com/matzehuels/snaplink/pkg/events
// [pipeline]: github.com/matzehuels/snaplink/pkg/pipeline
// [scenario]: github.com/matzehuels/snaplink/pkg/scenario
// [server]: github.com/matzehuels/snaplink/pkg/server
// [render]: github.com/matzehuels/snaplink/pkg/render
package pkg

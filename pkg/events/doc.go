// Package events records what happens to blocks: creation, deletion, field
// and state changes, moves, connects, disconnects and bumps.
//
// The block model calls [Recorder.Fire] synchronously from inside its
// operations; nothing is written until [Recorder.Flush], which callers run
// once an operation has finished. Sinks:
//   - [Memory]: in-process, for tests and the HTTP inspector
//   - [File]: JSON lines on disk
//   - [RedisSink]: XADD to a Redis stream
//   - [MongoSink]: one document per event
//
// The log is a notification stream. It does not implement undo or replay.
package events

// Package blocks implements the connection engine of a block-based visual
// editor: blocks with typed attachment points, a per-kind spatial index of
// those points, nearest-match search during drags, attach/detach with
// orphan handling, bumping of near-miss neighbours, and visibility
// propagation for collapsed blocks.
//
// # Model
//
// A [Workspace] owns a forest of [Block]s. Each block has optional
// output/previous/next [Connection]s plus one connection per value or
// statement [Input]. Links are symmetric and always pair opposite kinds:
// output with input value, previous with next.
//
// Every connection that is not hidden sits in its workspace's index for
// its kind, at its current position; [Workspace.CheckIndex] verifies this.
// Connections are moved only through their own methods, which keep the
// index in step.
//
// # Rendering
//
// The engine does not draw. A [Renderer] sets each block's size and
// connection offsets; [Workspace.Render] calls it post-order and then
// positions every connection of the tree from the root's origin.
//
// # Dragging
//
//	drag, _ := ws.StartDrag(block, false)
//	cand, ok := drag.Move(dx, dy)   // preview the snap target
//	cand, ok, err := drag.End(dx, dy)
//
// Search uses the dragged connection's indexed position plus the drag
// offset. Bumps are suppressed while a drag is in progress.
//
// # Errors
//
// Violated invariants (double indexing, moving an unrendered block,
// connecting an incompatible pair) are returned as programming errors with
// code INTERNAL_INVARIANT and logged at error level. Callers must abort
// the operation.
//
// A Workspace and everything reachable from it is single-threaded;
// callers serialize access.
package blocks

// Package spatial provides an ordered point index for nearest-neighbor
// search under drag.
//
// # Overview
//
// The block engine keeps one [Index] per connection kind. Each entry stores
// the position recorded when it was added, and entries stay sorted by x
// with y as a tie-break. Range queries locate the probe with a binary search
// and walk outward only while the horizontal distance alone is within the
// search radius, so a query touches the connections near the probe rather
// than every connection in the workspace.
//
// # Protocol
//
// Positions are never mutated in place. A caller that moves an item must
// [Index.Remove] it and [Index.Add] it again at the new position. Adding an
// item twice or removing an absent item returns a ProgrammingError
// (see [errors.ErrCodeInvariant]), since either indicates the move protocol
// was broken.
//
// # Search
//
// [Index.Neighbours] returns all items within a radius. [Index.Closest]
// applies a caller predicate and returns the single nearest accepted item.
// Its scan visits the entries at or after the probe before the ones before
// it, and on an exact tie the first item visited wins.
//
//	ix := spatial.New[*Item]()
//	_ = ix.Add(a, geom.Pt(0, 0))
//	_ = ix.Add(b, geom.Pt(10, 0))
//	best, d, ok := ix.Closest(geom.Pt(5, 0), 20, nil) // b, 5, true
//
// Items at the same position are ordered by when they were first added.
// Call [Index.Forget] for an item that leaves for good.
package spatial

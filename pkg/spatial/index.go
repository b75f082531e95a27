package spatial

import (
	"math"
	"sort"

	"github.com/matzehuels/snaplink/pkg/errors"
	"github.com/matzehuels/snaplink/pkg/geom"
)

type entry[T comparable] struct {
	pos  geom.Point
	seq  uint64
	item T
}

func (e entry[T]) less(o entry[T]) bool {
	if e.pos != o.pos {
		return e.pos.Less(o.pos)
	}
	return e.seq < o.seq
}

// Index is an ordered collection of items keyed by the position recorded
// when they were added. Entries are sorted by x, then y, then by a
// sequence number each item receives the first time it is added. The
// sequence survives Remove, so items at the same position keep their
// relative order however often they move. Forget drops it.
//
// Positions are never updated in place: a moved item must be removed and
// added again. The zero value is not usable - use New.
// Index is not safe for concurrent use without external synchronization.
type Index[T comparable] struct {
	entries []entry[T]
	members map[T]geom.Point
	seqs    map[T]uint64
	next    uint64
}

// New creates an empty index.
func New[T comparable]() *Index[T] {
	return &Index[T]{members: make(map[T]geom.Point), seqs: make(map[T]uint64)}
}

// Len returns the number of indexed items.
func (ix *Index[T]) Len() int { return len(ix.entries) }

// Contains reports whether item is indexed.
func (ix *Index[T]) Contains(item T) bool {
	_, ok := ix.members[item]
	return ok
}

// Position returns the position item was indexed at.
func (ix *Index[T]) Position(item T) (geom.Point, bool) {
	p, ok := ix.members[item]
	return p, ok
}

// Add inserts item at pos. Adding an item that is already present is a
// programming error.
func (ix *Index[T]) Add(item T, pos geom.Point) error {
	if _, ok := ix.members[item]; ok {
		return errors.Invariant("%v already indexed", item)
	}
	seq, ok := ix.seqs[item]
	if !ok {
		seq = ix.next
		ix.next++
		ix.seqs[item] = seq
	}
	e := entry[T]{pos: pos, seq: seq, item: item}
	i := ix.search(e)
	ix.entries = append(ix.entries, entry[T]{})
	copy(ix.entries[i+1:], ix.entries[i:])
	ix.entries[i] = e
	ix.members[item] = pos
	return nil
}

// Remove deletes item. Removing an item that is not present is a
// programming error.
func (ix *Index[T]) Remove(item T) error {
	pos, ok := ix.members[item]
	if !ok {
		return errors.Invariant("%v not indexed", item)
	}
	i := ix.search(entry[T]{pos: pos, seq: ix.seqs[item]})
	if i == len(ix.entries) || ix.entries[i].item != item {
		return errors.Invariant("%v recorded at %v but missing from ordering", item, pos)
	}
	ix.entries = append(ix.entries[:i], ix.entries[i+1:]...)
	delete(ix.members, item)
	return nil
}

// Forget discards the ordering sequence of an item that will not be added
// again. It has no effect while the item is indexed.
func (ix *Index[T]) Forget(item T) {
	if _, ok := ix.members[item]; !ok {
		delete(ix.seqs, item)
	}
}

// Items returns the indexed items in order.
func (ix *Index[T]) Items() []T {
	out := make([]T, len(ix.entries))
	for i, e := range ix.entries {
		out[i] = e.item
	}
	return out
}

// Neighbours returns every item within radius of probe, in index order.
func (ix *Index[T]) Neighbours(probe geom.Point, radius float64) []T {
	var out []T
	lo, hi := ix.window(probe, radius)
	for i := lo; i < hi; i++ {
		if ix.entries[i].pos.Dist(probe) <= radius {
			out = append(out, ix.entries[i].item)
		}
	}
	return out
}

// Closest returns the nearest item within radius of probe for which allow
// returns true, along with its distance. The scan starts at the probe's
// insertion point, walks towards larger positions and then back from the
// insertion point towards smaller ones; on an exact tie the item found
// first wins. When nothing qualifies, ok is false and the returned
// distance is radius.
func (ix *Index[T]) Closest(probe geom.Point, radius float64, allow func(T) bool) (best T, dist float64, ok bool) {
	dist = radius
	consider := func(e entry[T]) {
		d := e.pos.Dist(probe)
		if d > radius || (ok && d >= dist) {
			return
		}
		if allow != nil && !allow(e.item) {
			return
		}
		best, dist, ok = e.item, d, true
	}
	start := ix.lowerBound(probe)
	for i := start; i < len(ix.entries) && math.Abs(ix.entries[i].pos.X-probe.X) <= radius; i++ {
		consider(ix.entries[i])
	}
	for i := start - 1; i >= 0 && math.Abs(ix.entries[i].pos.X-probe.X) <= radius; i-- {
		consider(ix.entries[i])
	}
	return best, dist, ok
}

// window returns the half-open range of entries whose x lies within radius
// of probe.X. The scan starts at the probe's insertion point and stops as
// soon as the x distance alone exceeds radius.
func (ix *Index[T]) window(probe geom.Point, radius float64) (lo, hi int) {
	start := ix.lowerBound(probe)
	lo = start
	for lo > 0 && math.Abs(ix.entries[lo-1].pos.X-probe.X) <= radius {
		lo--
	}
	hi = start
	for hi < len(ix.entries) && math.Abs(ix.entries[hi].pos.X-probe.X) <= radius {
		hi++
	}
	return lo, hi
}

// lowerBound returns the first index whose position is not less than pos.
func (ix *Index[T]) lowerBound(pos geom.Point) int {
	return sort.Search(len(ix.entries), func(i int) bool {
		return !ix.entries[i].pos.Less(pos)
	})
}

// search returns the first index whose entry does not sort before e.
func (ix *Index[T]) search(e entry[T]) int {
	return sort.Search(len(ix.entries), func(i int) bool {
		return !ix.entries[i].less(e)
	})
}

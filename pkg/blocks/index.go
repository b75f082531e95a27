package blocks

import (
	"github.com/matzehuels/snaplink/pkg/errors"
	"github.com/matzehuels/snaplink/pkg/geom"
	"github.com/matzehuels/snaplink/pkg/spatial"
)

// connIndex holds the visible connections of one kind.
type connIndex = spatial.Index[*Connection]

func newIndices() [len(Kinds)]*connIndex {
	var dbs [len(Kinds)]*connIndex
	for _, k := range Kinds {
		dbs[k] = spatial.New[*Connection]()
	}
	return dbs
}

// Index returns the workspace's ordered index for kind. It is exposed for
// inspection; mutate connections through their own methods.
func (ws *Workspace) Index(kind Kind) *spatial.Index[*Connection] {
	return ws.dbs[kind]
}

// CheckIndex verifies that every connection of every live block is indexed
// exactly when it is not hidden, at its current position. It returns the
// first violation as a programming error.
func (ws *Workspace) CheckIndex() error {
	seen := 0
	for _, b := range ws.order {
		for _, c := range b.Connections(true) {
			pos, ok := ws.dbs[c.kind].Position(c)
			switch {
			case c.hidden && ok:
				return ws.invariant("checkIndex", errors.Invariant("%s is hidden but indexed", c))
			case !c.hidden && !ok:
				return ws.invariant("checkIndex", errors.Invariant("%s is visible but not indexed", c))
			case ok && pos != c.pos:
				return ws.invariant("checkIndex", errors.Invariant("%s indexed at %v but positioned at %v", c, pos, c.pos))
			case ok != c.inDB:
				return ws.invariant("checkIndex", errors.Invariant("%s inDB=%v disagrees with index", c, c.inDB))
			}
			if ok {
				seen++
			}
		}
	}
	total := 0
	for _, ix := range ws.dbs {
		total += ix.Len()
	}
	if total != seen {
		return ws.invariant("checkIndex", errors.Invariant("index holds %d connections, live blocks expose %d", total, seen))
	}
	return nil
}

// Neighbours returns every opposite-kind connection within maxRadius of c,
// connected or not.
func (c *Connection) Neighbours(maxRadius float64) []*Connection {
	return c.ws().dbs[c.kind.Opposite()].Neighbours(c.pos, maxRadius)
}

// Closest returns the nearest connection c may attach to when displaced by
// dragOffset, together with its distance. With no candidate in range it
// returns nil and maxRadius.
//
// The probe is c's indexed position plus dragOffset: a dragged block is
// not re-indexed until it is dropped.
func (c *Connection) Closest(maxRadius float64, dragOffset geom.Point) (*Connection, float64) {
	ws := c.ws()
	probe := c.pos.Add(dragOffset)
	best, dist, ok := ws.dbs[c.kind.Opposite()].Closest(probe, maxRadius, func(cand *Connection) bool {
		return c.compatible(cand)
	})
	ws.hooks.OnSearch(c.kind.String(), ok, dist)
	if !ok {
		return nil, maxRadius
	}
	return best, dist
}

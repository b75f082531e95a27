package blocks

import (
	"github.com/matzehuels/snaplink/pkg/errors"
	"github.com/matzehuels/snaplink/pkg/geom"
)

// Candidate is the pair a drop would connect.
type Candidate struct {
	// Local belongs to the dragged tree.
	Local *Connection
	// Target is the connection it would attach to.
	Target   *Connection
	Distance float64
}

// Drag is one drag gesture of a top-level tree. Offsets passed to Move and
// End are the total displacement since StartDrag, in workspace units.
//
// While a drag is in progress the dragged tree keeps its indexed position
// and the workspace suppresses bumps.
type Drag struct {
	ws        *Workspace
	block     *Block
	origin    *Connection
	available []*Connection
	offset    geom.Point
	best      Candidate
	hasBest   bool
	done      bool
}

// StartDrag unplugs b (healing its stack if asked) and begins a drag.
func (ws *Workspace) StartDrag(b *Block, healStack bool) (*Drag, error) {
	switch {
	case ws.dragging:
		return nil, errors.New(errors.ErrCodeInvalidState, "a drag is already in progress")
	case b.ws != ws || b.disposed:
		return nil, ws.invariant("startDrag", errors.Invariant("startDrag %s: block is not in this workspace", b))
	case !b.rendered:
		return nil, ws.invariant("startDrag", errors.Invariant("startDrag %s: block is not rendered", b))
	case !b.movable || ws.opts.Palette:
		return nil, errors.New(errors.ErrCodeNotEditable, "block %s is not movable", b)
	}

	var origin *Connection
	if p := b.plug(); p != nil {
		origin = p.target
	}
	ws.events.BeginGroup()
	if err := b.Unplug(healStack); err != nil {
		ws.events.SetGroup("")
		return nil, err
	}
	ws.dragging = true

	d := &Drag{ws: ws, block: b, origin: origin}
	for _, c := range b.Connections(false) {
		if !c.hidden {
			d.available = append(d.available, c)
		}
	}
	if last := b.lastConnectionInStack(); last != nil && last != b.next {
		d.available = append(d.available, last)
	}
	ws.log.Debug("drag start", "block", b, "connections", len(d.available))
	return d, nil
}

// Block returns the dragged block.
func (d *Drag) Block() *Block { return d.block }

// Offset returns the last displacement seen.
func (d *Drag) Offset() geom.Point { return d.offset }

// Available returns the connections of the dragged tree that may attach.
func (d *Drag) Available() []*Connection { return d.available }

// Best returns the candidate found by the last Move.
func (d *Drag) Best() (Candidate, bool) { return d.best, d.hasBest }

// Move reports the best pair at displacement (dx, dy). Once a candidate has
// been found, the larger connecting radius applies so the choice is
// stable near the edge of the radius.
func (d *Drag) Move(dx, dy float64) (Candidate, bool) {
	if d.done {
		return Candidate{}, false
	}
	d.offset = geom.Pt(dx, dy)
	radius := d.ws.opts.SnapRadius
	if d.hasBest {
		radius = d.ws.opts.ConnectingSnapRadius
	}
	var best Candidate
	found := false
	for _, c := range d.available {
		target, dist := c.Closest(radius, d.offset)
		if target != nil && (!found || dist < best.Distance) {
			best = Candidate{Local: c, Target: target, Distance: dist}
			found = true
		}
	}
	d.best, d.hasBest = best, found
	return best, found
}

// End drops the tree at displacement (dx, dy): the tree is moved, the best
// pair (if any) is connected and neighbours are bumped.
func (d *Drag) End(dx, dy float64) (Candidate, bool, error) {
	if d.done {
		return Candidate{}, false, errors.New(errors.ErrCodeInvalidState, "drag already finished")
	}
	cand, ok := d.Move(dx, dy)
	d.finish()
	defer d.ws.events.SetGroup("")

	if err := d.block.MoveBy(dx, dy); err != nil {
		return cand, false, err
	}
	if ok {
		if err := cand.Local.Connect(cand.Target); err != nil {
			return cand, false, err
		}
	}
	if err := d.block.BumpNeighbours(); err != nil {
		return cand, ok, err
	}
	d.ws.log.Debug("drag end", "block", d.block, "connected", ok)
	return cand, ok, nil
}

// Abort cancels the gesture. The block is returned to the connection it
// was unplugged from when that is still possible; otherwise it stays where
// the drag started.
func (d *Drag) Abort() error {
	if d.done {
		return nil
	}
	d.finish()
	defer d.ws.events.SetGroup("")
	if d.origin == nil || d.origin.block.disposed {
		return nil
	}
	plug := d.block.plug()
	if plug == nil || plug.connectError(d.origin) != "" {
		return nil
	}
	return plug.Connect(d.origin)
}

func (d *Drag) finish() {
	d.done = true
	d.hasBest = false
	d.ws.dragging = false
}

package blocks

import (
	"github.com/matzehuels/snaplink/pkg/events"
)

// BumpAwayFrom moves c's root tree so that c ends up one snap radius below
// and beside static, out of snapping range. If c's root cannot move, static's
// root is moved instead with the vertical offset negated. Nothing moves
// during a drag, on a palette, or when neither root is movable.
func (c *Connection) BumpAwayFrom(static *Connection) error {
	ws := c.ws()
	if ws.dragging || ws.opts.Palette || static.ws().opts.Palette {
		return nil
	}
	root := c.block.RootBlock()
	reverse := false
	if !root.movable {
		root = static.block.RootBlock()
		if !root.movable {
			return nil
		}
		reverse = true
	}
	if !root.rendered {
		return nil
	}

	margin := ws.opts.SnapRadius
	dx := static.pos.X + margin - c.pos.X
	dy := static.pos.Y + margin - c.pos.Y
	if reverse {
		dy = -dy
	}
	if ws.opts.RTL {
		dx = static.pos.X - margin - c.pos.X
	}

	ws.log.Debug("bump", "block", root, "from", static, "dx", dx, "dy", dy)
	ws.hooks.OnBump(root.id, dx, dy)
	if err := root.MoveBy(dx, dy); err != nil {
		return err
	}
	ws.fire(events.Event{Type: events.TypeBump, BlockID: root.id, X: root.xy.X, Y: root.xy.Y, DX: dx, DY: dy})
	return nil
}

// BumpNeighbours pushes away every block of another tree whose connections
// sit within snapping range of b's tree, as long as at least one side of
// each pair is free. The inferior side (output or previous) always moves.
func (b *Block) BumpNeighbours() error {
	ws := b.ws
	if ws.dragging || ws.opts.Palette || b.disposed {
		return nil
	}
	root := b.RootBlock()
	for _, c := range b.Connections(false) {
		if c.hidden {
			continue
		}
		if c.target != nil && c.kind.IsSuperior() {
			if err := c.target.block.BumpNeighbours(); err != nil {
				return err
			}
		}
		for _, other := range c.Neighbours(ws.opts.SnapRadius) {
			if c.target != nil && other.target != nil {
				continue
			}
			if other.block.RootBlock() == root {
				continue
			}
			var err error
			if c.kind.IsSuperior() {
				err = other.BumpAwayFrom(c)
			} else {
				err = c.BumpAwayFrom(other)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

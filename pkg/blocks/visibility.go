package blocks

import (
	"strconv"

	"github.com/matzehuels/snaplink/pkg/events"
)

// HideAll hides c and, when c is a parent-side connection with a child,
// every connection of every block below it. Affordances of those blocks
// are closed.
func (c *Connection) HideAll() error {
	if err := c.SetHidden(true); err != nil {
		return err
	}
	if c.target == nil || !c.kind.IsSuperior() {
		return nil
	}
	for _, b := range c.target.block.Descendants() {
		for _, bc := range b.Connections(true) {
			if err := bc.SetHidden(true); err != nil {
				return err
			}
		}
		b.closeAffordances()
	}
	return nil
}

// UnhideAll reveals c and the connections below it that should be visible.
// A collapsed child only reveals its output, next and previous
// connections. It returns the deepest blocks revealed, which callers must
// re-render; when nothing deeper was revealed the list is just the
// immediate child. A connection without a child returns nil.
func (c *Connection) UnhideAll() ([]*Block, error) {
	if err := c.SetHidden(false); err != nil {
		return nil, err
	}
	if !c.kind.IsSuperior() {
		return nil, nil
	}
	block := c.TargetBlock()
	if block == nil {
		return nil, nil
	}

	var conns []*Connection
	if block.collapsed {
		for _, bc := range []*Connection{block.output, block.next, block.previous} {
			if bc != nil {
				conns = append(conns, bc)
			}
		}
	} else {
		conns = block.Connections(true)
	}

	var renderList []*Block
	for _, bc := range conns {
		list, err := bc.UnhideAll()
		if err != nil {
			return nil, err
		}
		renderList = append(renderList, list...)
	}
	if len(renderList) == 0 {
		renderList = []*Block{block}
	}
	return renderList, nil
}

// SetCollapsed folds or unfolds b. Folding hides every input connection
// and the trees behind them; unfolding reveals them again, re-renders what
// was revealed and pushes away neighbours the new size overlaps.
func (b *Block) SetCollapsed(collapsed bool) error {
	if b.collapsed == collapsed {
		return nil
	}
	b.collapsed = collapsed

	// Inside a collapsed ancestor everything stays hidden either way.
	inHidden := b.plug() != nil && b.plug().hidden

	var renderList []*Block
	for _, in := range b.inputs {
		if in.conn == nil || inHidden {
			continue
		}
		if collapsed {
			if err := in.conn.HideAll(); err != nil {
				return err
			}
			continue
		}
		list, err := in.conn.UnhideAll()
		if err != nil {
			return err
		}
		renderList = append(renderList, list...)
	}
	if collapsed {
		b.closeAffordances()
	}
	if len(renderList) == 0 {
		renderList = []*Block{b}
	}

	b.ws.fire(events.Change(b.id, events.ElementCollapsed, "",
		strconv.FormatBool(!collapsed), strconv.FormatBool(collapsed)))

	if !b.rendered {
		return nil
	}
	for _, r := range renderList {
		if err := b.ws.Render(r); err != nil {
			return err
		}
	}
	return b.BumpNeighbours()
}

// plug returns the connection b hangs from: output or previous.
func (b *Block) plug() *Connection {
	if b.output != nil {
		return b.output
	}
	return b.previous
}

package blocks

import (
	"fmt"

	"github.com/matzehuels/snaplink/pkg/errors"
	"github.com/matzehuels/snaplink/pkg/events"
	"github.com/matzehuels/snaplink/pkg/geom"
)

// Connection is a typed attachment point on a block.
//
// Every connection that is not hidden is in its workspace's index for its
// kind, at the position it was last moved to. Links are symmetric: when
// a.Target() == b then b.Target() == a.
type Connection struct {
	block  *Block
	kind   Kind
	input  *Input
	pos    geom.Point
	offset geom.Point
	target *Connection
	hidden bool
	inDB   bool
	check  []string
	shadow *ShadowTemplate
}

func newConnection(b *Block, kind Kind, in *Input) (*Connection, error) {
	c := &Connection{block: b, kind: kind, input: in, pos: b.xy}
	if err := c.index().Add(c, c.pos); err != nil {
		return nil, b.ws.invariant("newConnection", err)
	}
	c.inDB = true
	return c, nil
}

// Block returns the owning block.
func (c *Connection) Block() *Block { return c.block }

// Kind returns the connection kind.
func (c *Connection) Kind() Kind { return c.kind }

// Input returns the input owning this connection, or nil for block-level
// output, previous and next connections.
func (c *Connection) Input() *Input { return c.input }

// Position returns the absolute workspace position.
func (c *Connection) Position() geom.Point { return c.pos }

// Offset returns the position relative to the owning block's origin.
func (c *Connection) Offset() geom.Point { return c.offset }

// Target returns the connection linked to c, or nil.
func (c *Connection) Target() *Connection { return c.target }

// TargetBlock returns the block on the other side of the link, or nil.
func (c *Connection) TargetBlock() *Block {
	if c.target == nil {
		return nil
	}
	return c.target.block
}

// IsConnected reports whether c is linked.
func (c *Connection) IsConnected() bool { return c.target != nil }

// IsSuperior reports whether c is on the parent side of a link.
func (c *Connection) IsSuperior() bool { return c.kind.IsSuperior() }

// Hidden reports whether c is excluded from the index.
func (c *Connection) Hidden() bool { return c.hidden }

// InDB reports whether c is currently indexed.
func (c *Connection) InDB() bool { return c.inDB }

// Check returns the accepted type names; nil accepts any type.
func (c *Connection) Check() []string { return c.check }

// Shadow returns the template refilling this slot when it is emptied.
func (c *Connection) Shadow() *ShadowTemplate { return c.shadow }

func (c *Connection) ws() *Workspace { return c.block.ws }

func (c *Connection) index() *connIndex { return c.block.ws.dbs[c.kind] }

func (c *Connection) inputName() string {
	if c.input == nil {
		return ""
	}
	return c.input.name
}

func (c *Connection) String() string {
	if c == nil {
		return "<nil>"
	}
	if c.input != nil {
		return fmt.Sprintf("%s.%s(%s)", c.block, c.input.name, c.kind)
	}
	return fmt.Sprintf("%s.%s", c.block, c.kind)
}

// MoveTo sets the absolute position and re-indexes c.
func (c *Connection) MoveTo(p geom.Point) error {
	ix := c.index()
	if c.inDB {
		if err := ix.Remove(c); err != nil {
			return c.ws().invariant("moveTo", err)
		}
		c.inDB = false
	}
	c.pos = p
	if !c.hidden {
		if err := ix.Add(c, p); err != nil {
			return c.ws().invariant("moveTo", err)
		}
		c.inDB = true
	}
	return nil
}

// MoveBy translates c.
func (c *Connection) MoveBy(dx, dy float64) error {
	return c.MoveTo(c.pos.Add(geom.Pt(dx, dy)))
}

// SetOffsetInBlock records the position relative to the owning block's
// origin. The renderer calls this; MoveToOffset applies it.
func (c *Connection) SetOffsetInBlock(x, y float64) { c.offset = geom.Pt(x, y) }

// MoveToOffset positions c relative to the given block origin.
func (c *Connection) MoveToOffset(blockXY geom.Point) error {
	return c.MoveTo(blockXY.Add(c.offset))
}

// DistanceFrom returns the Euclidean distance between c and other.
func (c *Connection) DistanceFrom(other *Connection) float64 {
	return c.pos.Dist(other.pos)
}

// SetHidden adds c to or removes it from the index.
func (c *Connection) SetHidden(hidden bool) error {
	c.hidden = hidden
	ix := c.index()
	switch {
	case hidden && c.inDB:
		if err := ix.Remove(c); err != nil {
			return c.ws().invariant("setHidden", err)
		}
		c.inDB = false
	case !hidden && !c.inDB:
		if err := ix.Add(c, c.pos); err != nil {
			return c.ws().invariant("setHidden", err)
		}
		c.inDB = true
	}
	return nil
}

func (c *Connection) deindex() error {
	ix := c.index()
	defer ix.Forget(c)
	if !c.inDB {
		return nil
	}
	c.inDB = false
	if err := ix.Remove(c); err != nil {
		return c.ws().invariant("dispose", err)
	}
	return nil
}

// CheckType reports whether the type checks of c and other overlap. A nil
// check on either side accepts anything.
func (c *Connection) CheckType(other *Connection) bool {
	if c.check == nil || other.check == nil {
		return true
	}
	for _, a := range c.check {
		for _, b := range other.check {
			if a == b {
				return true
			}
		}
	}
	return false
}

// SetCheck replaces the accepted types. Calling it with no arguments
// accepts anything. If the current target no longer type-checks, the child
// side is unplugged and bumped away.
func (c *Connection) SetCheck(types ...string) error {
	if err := errors.ValidateCheck(types); err != nil {
		return err
	}
	if len(types) == 0 {
		c.check = nil
	} else {
		c.check = append([]string(nil), types...)
	}
	if c.target == nil || c.CheckType(c.target) {
		return nil
	}
	child := c.block
	if c.kind.IsSuperior() {
		child = c.TargetBlock()
	}
	if err := child.Unplug(false); err != nil {
		return err
	}
	return c.block.BumpNeighbours()
}

// SetShadow installs the template that refills this slot. An empty slot,
// or one holding a shadow, is refilled right away. Passing nil removes the
// template.
func (c *Connection) SetShadow(t *ShadowTemplate) error {
	if !c.kind.IsSuperior() {
		return errors.New(errors.ErrCodeInvalidInput, "%s cannot hold a shadow", c)
	}
	if t != nil {
		cp := t.clone()
		t = &cp
	}
	c.shadow = t
	if t == nil {
		return nil
	}
	if target := c.TargetBlock(); target != nil {
		if !target.shadow {
			return nil
		}
		if err := c.disconnectChild(false); err != nil {
			return err
		}
		if err := target.dispose(); err != nil {
			return err
		}
	}
	return c.RespawnShadow()
}

// orient returns the pair ordered parent side first.
func orient(a, b *Connection) (parent, child *Connection) {
	if a.kind.IsSuperior() {
		return a, b
	}
	return b, a
}

// connectError explains why a and b can never be linked, or returns "".
func (c *Connection) connectError(other *Connection) string {
	switch {
	case other == nil:
		return "no target"
	case c.block == other.block:
		return "same block"
	case other.kind != c.kind.Opposite():
		return fmt.Sprintf("%s does not pair with %s", c.kind, other.kind)
	case c.block.ws != other.block.ws:
		return "different workspaces"
	case c.block.disposed || other.block.disposed:
		return "disposed block"
	case !c.CheckType(other):
		return "type check failed"
	}
	parent, child := orient(c, other)
	if parent.block.shadow && !child.block.shadow {
		return "shadow blocks only hold shadow blocks"
	}
	if child.block.isAncestorOf(parent.block) {
		return "would create a cycle"
	}
	return ""
}

// Connect links c and other. Incompatible pairs are programming errors;
// use IsConnectionAllowed to test a pair first.
//
// If the parent side is already occupied, the previous child is
// re-attached further down the new child when exactly one slot fits, is
// disposed when it is a shadow, and is otherwise bumped away.
func (c *Connection) Connect(other *Connection) error {
	if other != nil && c.target == other {
		return nil
	}
	if reason := c.connectError(other); reason != "" {
		return c.ws().invariant("connect", errors.Invariant("cannot connect %s to %s: %s", c, other, reason))
	}
	parent, child := orient(c, other)
	return parent.connectChild(child)
}

func (parent *Connection) connectChild(child *Connection) error {
	ws := parent.ws()
	parentBlock, childBlock := parent.block, child.block

	if child.target != nil {
		if err := child.Disconnect(); err != nil {
			return err
		}
	}

	var orphan *Block
	if target := parent.TargetBlock(); target != nil {
		if err := parent.disconnectChild(false); err != nil {
			return err
		}
		if target.shadow {
			// Keep edited values for the next respawn.
			tmpl := templateOf(target)
			parent.shadow = &tmpl
			if err := target.dispose(); err != nil {
				return err
			}
		} else {
			orphan = target
		}
	}

	parent.target, child.target = child, parent
	childBlock.parent = parentBlock
	if childBlock.shadow && parent.shadow == nil {
		tmpl := templateOf(childBlock)
		parent.shadow = &tmpl
	}

	ws.fire(events.Event{
		Type:      events.TypeConnect,
		BlockID:   childBlock.id,
		ParentID:  parentBlock.id,
		InputName: parent.inputName(),
	})
	ws.hooks.OnConnect(parentBlock.id, childBlock.id, parent.kind.String())
	ws.log.Debug("connect", "parent", parent, "child", child)

	if parent.hidden {
		if err := parent.HideAll(); err != nil {
			return err
		}
	}
	parentBlock.UpdateDisabled()

	if parentBlock.rendered && childBlock.rendered {
		target := parentBlock
		if parent.kind == NextStatement {
			target = childBlock
		}
		if err := ws.Render(target); err != nil {
			return err
		}
	}

	if orphan != nil {
		return parent.reattach(orphan, childBlock)
	}
	return nil
}

// reattach finds a home for orphan after childBlock displaced it from
// parent: the single compatible value slot down the new child's tree, or
// the end of the new child's stack. Otherwise the orphan is bumped.
func (parent *Connection) reattach(orphan, childBlock *Block) error {
	var plug, slot *Connection
	switch parent.kind {
	case InputValue:
		plug = orphan.output
		if plug != nil {
			slot = orphanSlot(childBlock, plug)
		}
	case NextStatement:
		plug = orphan.previous
		if last := childBlock.lastConnectionInStack(); last != nil && plug != nil && plug.CheckType(last) {
			slot = last
		}
	}
	if plug == nil {
		return nil
	}
	if slot != nil {
		return slot.Connect(plug)
	}
	return plug.BumpAwayFrom(parent)
}

// orphanSlot walks down from b through the only type-compatible value input
// at each level and returns the first empty or shadow-filled one.
func orphanSlot(b *Block, plug *Connection) *Connection {
	for {
		conn := singleValueSlot(b, plug)
		if conn == nil {
			return nil
		}
		b = conn.TargetBlock()
		if b == nil || b.shadow {
			return conn
		}
	}
}

func singleValueSlot(b *Block, plug *Connection) *Connection {
	var found *Connection
	for _, in := range b.inputs {
		c := in.conn
		if c == nil || c.kind != InputValue || !plug.CheckType(c) {
			continue
		}
		if found != nil {
			return nil
		}
		found = c
	}
	return found
}

// Disconnect breaks the link on c. The emptied parent slot is refilled
// from its shadow template.
func (c *Connection) Disconnect() error {
	if c.target == nil {
		return c.ws().invariant("disconnect", errors.Invariant("%s is not connected", c))
	}
	parent, _ := orient(c, c.target)
	return parent.disconnectChild(true)
}

func (parent *Connection) disconnectChild(respawn bool) error {
	child := parent.target
	if err := parent.disconnectInternal(parent.block, child.block); err != nil {
		return err
	}
	if respawn {
		return parent.RespawnShadow()
	}
	return nil
}

// disconnectInternal breaks the symmetric link and reflows both sides.
func (c *Connection) disconnectInternal(parentBlock, childBlock *Block) error {
	ws := c.ws()
	parentConn := c
	if !c.kind.IsSuperior() {
		parentConn = c.target
	}
	ws.fire(events.Event{
		Type:      events.TypeDisconnect,
		BlockID:   childBlock.id,
		ParentID:  parentBlock.id,
		InputName: parentConn.inputName(),
	})
	ws.hooks.OnDisconnect(parentBlock.id, childBlock.id, parentConn.kind.String())
	ws.log.Debug("disconnect", "parent", parentConn, "child", parentConn.target)

	c.target.target = nil
	c.target = nil
	childBlock.parent = nil
	childBlock.UpdateDisabled()

	if parentBlock.rendered && !parentBlock.disposing {
		if err := ws.Render(parentBlock); err != nil {
			return err
		}
	}
	if childBlock.rendered && !childBlock.disposing {
		if err := ws.Render(childBlock); err != nil {
			return err
		}
	}
	return nil
}

// RespawnShadow refills an empty parent-side slot from its template. It does
// nothing while record-undo is off or the owning block is being disposed.
// A factory that yields no block is a programming error.
func (c *Connection) RespawnShadow() error {
	ws := c.ws()
	if c.target != nil || c.shadow == nil || !c.kind.IsSuperior() || c.block.disposing {
		return nil
	}
	if !ws.events.RecordUndo() {
		return nil
	}
	if ws.opts.Shadows == nil {
		return ws.invariant("respawnShadow", errors.Invariant("%s has a shadow template but no shadow factory is configured", c))
	}
	b, err := ws.opts.Shadows.NewShadow(ws, *c.shadow)
	if err != nil {
		return err
	}
	if b == nil {
		return ws.invariant("respawnShadow", errors.Invariant("shadow factory returned no block for %q", c.shadow.Type))
	}
	b.shadow = true
	plug := b.previous
	if c.kind == InputValue {
		plug = b.output
	}
	if plug == nil {
		return ws.invariant("respawnShadow", errors.Invariant("shadow %s has no %s connection", b, c.kind.Opposite()))
	}
	if err := c.Connect(plug); err != nil {
		return err
	}
	if c.block.rendered {
		return ws.Render(b)
	}
	return nil
}

// Tighten moves the child side of a link so that both connections share
// the parent's position.
func (c *Connection) Tighten() error {
	if c.target == nil {
		return nil
	}
	parent, child := orient(c, c.target)
	child.block.xy = parent.pos.Sub(child.offset)
	return child.block.layoutConnections()
}

package blocks

import (
	"fmt"
	"strconv"

	"github.com/matzehuels/snaplink/pkg/errors"
	"github.com/matzehuels/snaplink/pkg/events"
	"github.com/matzehuels/snaplink/pkg/field"
	"github.com/matzehuels/snaplink/pkg/geom"
)

// InputKind selects whether an input holds a value, a statement stack, or
// only fields.
type InputKind int

const (
	// InputKindValue holds one value block in an input_value socket.
	InputKindValue InputKind = iota
	// InputKindStatement holds a statement stack in a next_statement
	// socket.
	InputKindStatement
	// InputKindDummy has no connection and only lays out fields.
	InputKindDummy
)

func (k InputKind) String() string {
	switch k {
	case InputKindValue:
		return "value"
	case InputKindStatement:
		return "statement"
	case InputKindDummy:
		return "dummy"
	}
	return fmt.Sprintf("InputKind(%d)", int(k))
}

// ParseInputKind maps a definition keyword to an InputKind.
func ParseInputKind(s string) (InputKind, error) {
	switch s {
	case "value":
		return InputKindValue, nil
	case "statement":
		return InputKindStatement, nil
	case "dummy", "":
		return InputKindDummy, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidDefinition, "unknown input kind %q", s)
}

// Input is a named row of a block: fields followed by an optional
// connection.
type Input struct {
	block  *Block
	name   string
	kind   InputKind
	conn   *Connection
	fields []*field.Field
}

// Name returns the input name.
func (in *Input) Name() string { return in.name }

// Kind returns the input kind.
func (in *Input) Kind() InputKind { return in.kind }

// Block returns the owning block.
func (in *Input) Block() *Block { return in.block }

// Connection returns the input's connection; dummy inputs have none.
func (in *Input) Connection() *Connection { return in.conn }

// Fields returns the input's fields in order.
func (in *Input) Fields() []*field.Field { return in.fields }

// AppendField adds f to the input and makes the block its owner. Named
// fields must be unique within the block; labels may be unnamed.
func (in *Input) AppendField(f *field.Field) error {
	if name := f.Name(); name != "" {
		if err := errors.ValidateName("field", name); err != nil {
			return err
		}
		if in.block.Field(name) != nil {
			return errors.New(errors.ErrCodeInvalidName, "block %s already has a field %q", in.block.typ, name)
		}
	} else if f.Kind() != field.KindLabel {
		return errors.New(errors.ErrCodeInvalidName, "only labels may be unnamed")
	}
	f.SetOwner(in.block)
	in.fields = append(in.fields, f)
	return nil
}

// Affordance is a UI popup attached to a block, such as a comment or a
// warning bubble. Collapsing or hiding a block closes its affordances.
type Affordance struct {
	Name    string
	Visible bool
}

// Block is a node of the workspace forest.
type Block struct {
	ws     *Workspace
	id     string
	typ    string
	inputs []*Input

	output, previous, next *Connection

	parent   *Block
	xy       geom.Point
	size     geom.Size
	rendered bool

	movable   bool
	deletable bool
	collapsed bool
	shadow    bool
	disabled  bool

	// effectiveDisabled is disabled or inherited from an ancestor.
	effectiveDisabled bool

	affordances []*Affordance

	disposing, disposed bool
}

// ID returns the block id.
func (b *Block) ID() string { return b.id }

// Type returns the definition type name.
func (b *Block) Type() string { return b.typ }

// Workspace returns the owning workspace.
func (b *Block) Workspace() *Workspace { return b.ws }

func (b *Block) String() string {
	id := b.id
	if len(id) > 8 {
		id = id[:8]
	}
	return b.typ + "#" + id
}

// XY returns the top-left corner in workspace coordinates.
func (b *Block) XY() geom.Point { return b.xy }

// Size returns the size set by the renderer.
func (b *Block) Size() geom.Size { return b.size }

// SetSize records the rendered extent. Renderers call this.
func (b *Block) SetSize(width, height float64) { b.size = geom.Size{Width: width, Height: height} }

// Rendered reports whether the block has been laid out at least once.
func (b *Block) Rendered() bool { return b.rendered }

// Disposed reports whether the block has been removed from its workspace.
func (b *Block) Disposed() bool { return b.disposed }

// Parent returns the enclosing or preceding block, or nil for a root.
func (b *Block) Parent() *Block { return b.parent }

// RootBlock returns the top of b's tree.
func (b *Block) RootBlock() *Block {
	for b.parent != nil {
		b = b.parent
	}
	return b
}

func (b *Block) isAncestorOf(other *Block) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == b {
			return true
		}
	}
	return false
}

// Children returns the blocks attached to b's inputs, in input order,
// followed by the block attached to its next connection.
func (b *Block) Children() []*Block {
	var out []*Block
	for _, in := range b.inputs {
		if in.conn != nil && in.conn.target != nil {
			out = append(out, in.conn.target.block)
		}
	}
	if b.next != nil && b.next.target != nil {
		out = append(out, b.next.target.block)
	}
	return out
}

// Descendants returns b and every block below it, depth first.
func (b *Block) Descendants() []*Block {
	out := []*Block{b}
	for _, c := range b.Children() {
		out = append(out, c.Descendants()...)
	}
	return out
}

// Connections returns b's own connections: output, previous, next, then
// input connections in order. Unless all is set, the input connections of
// a collapsed block are left out.
func (b *Block) Connections(all bool) []*Connection {
	var out []*Connection
	for _, c := range []*Connection{b.output, b.previous, b.next} {
		if c != nil {
			out = append(out, c)
		}
	}
	if !all && b.collapsed {
		return out
	}
	for _, in := range b.inputs {
		if in.conn != nil {
			out = append(out, in.conn)
		}
	}
	return out
}

// lastConnectionInStack returns the free next connection at the bottom of
// b's stack, or nil if the stack ends in a block without one.
func (b *Block) lastConnectionInStack() *Connection {
	for nb := b; ; {
		nc := nb.next
		if nc == nil {
			return nil
		}
		if nc.target == nil {
			return nc
		}
		nb = nc.target.block
	}
}

// Output returns the value plug, or nil.
func (b *Block) Output() *Connection { return b.output }

// Previous returns the statement notch, or nil.
func (b *Block) Previous() *Connection { return b.previous }

// Next returns the statement tab, or nil.
func (b *Block) Next() *Connection { return b.next }

// SetOutput gives b a value plug accepting the given types. A block cannot
// have both an output and a previous connection.
func (b *Block) SetOutput(check ...string) error {
	if b.previous != nil {
		return errors.New(errors.ErrCodeInvalidDefinition, "%s: a block cannot have both output and previous connections", b.typ)
	}
	return b.ensureConnection(&b.output, Output, check)
}

// SetPrevious gives b a statement notch.
func (b *Block) SetPrevious(check ...string) error {
	if b.output != nil {
		return errors.New(errors.ErrCodeInvalidDefinition, "%s: a block cannot have both output and previous connections", b.typ)
	}
	return b.ensureConnection(&b.previous, PreviousStatement, check)
}

// SetNext gives b a statement tab.
func (b *Block) SetNext(check ...string) error {
	return b.ensureConnection(&b.next, NextStatement, check)
}

func (b *Block) ensureConnection(slot **Connection, kind Kind, check []string) error {
	if *slot == nil {
		c, err := newConnection(b, kind, nil)
		if err != nil {
			return err
		}
		*slot = c
	}
	return (*slot).SetCheck(check...)
}

// AppendInput adds an input row. Value and statement inputs get a
// connection and need a unique name.
func (b *Block) AppendInput(kind InputKind, name string) (*Input, error) {
	if name != "" || kind != InputKindDummy {
		if err := errors.ValidateName("input", name); err != nil {
			return nil, err
		}
		if b.Input(name) != nil {
			return nil, errors.New(errors.ErrCodeInvalidName, "block %s already has an input %q", b.typ, name)
		}
	}
	in := &Input{block: b, name: name, kind: kind}
	var err error
	switch kind {
	case InputKindValue:
		in.conn, err = newConnection(b, InputValue, in)
	case InputKindStatement:
		in.conn, err = newConnection(b, NextStatement, in)
	}
	if err != nil {
		return nil, err
	}
	if b.collapsed && in.conn != nil {
		if err := in.conn.SetHidden(true); err != nil {
			return nil, err
		}
	}
	b.inputs = append(b.inputs, in)
	return in, nil
}

// Input returns the named input, or nil.
func (b *Block) Input(name string) *Input {
	for _, in := range b.inputs {
		if in.name == name {
			return in
		}
	}
	return nil
}

// Inputs returns the inputs in order.
func (b *Block) Inputs() []*Input { return b.inputs }

// Field returns the named field, or nil.
func (b *Block) Field(name string) *field.Field {
	for _, in := range b.inputs {
		for _, f := range in.fields {
			if f.Name() == name {
				return f
			}
		}
	}
	return nil
}

// Fields returns every field on the block in input order.
func (b *Block) Fields() []*field.Field {
	var out []*field.Field
	for _, in := range b.inputs {
		out = append(out, in.fields...)
	}
	return out
}

// SetFieldValue runs value through the named field's validation pipeline.
func (b *Block) SetFieldValue(name, value string) error {
	f := b.Field(name)
	if f == nil {
		return errors.New(errors.ErrCodeNotFound, "block %s has no field %q", b, name)
	}
	return f.SetValue(value)
}

// FieldChanged implements field.Owner: it records the change, re-renders
// the block and pushes away neighbours the new size overlaps.
func (b *Block) FieldChanged(f *field.Field, oldValue, newValue string) {
	ws := b.ws
	ws.fire(events.Change(b.id, events.ElementField, f.Name(), oldValue, newValue))
	ws.hooks.OnFieldChange(b.id, f.Name())
	if !b.rendered || b.disposing {
		return
	}
	if err := ws.Render(b); err != nil {
		ws.log.Error("render after field change", "block", b, "err", err)
		return
	}
	if err := b.BumpNeighbours(); err != nil {
		ws.log.Error("bump after field change", "block", b, "err", err)
	}
}

var _ field.Owner = (*Block)(nil)

// Movable reports whether users may drag b.
func (b *Block) Movable() bool { return b.movable }

// SetMovable toggles dragging. Immovable roots are never bumped.
func (b *Block) SetMovable(movable bool) { b.movable = movable }

// Deletable reports whether users may delete b.
func (b *Block) Deletable() bool { return b.deletable }

// SetDeletable toggles deletion.
func (b *Block) SetDeletable(deletable bool) { b.deletable = deletable }

// Shadow reports whether b is a placeholder default block.
func (b *Block) Shadow() bool { return b.shadow }

// SetShadow marks b as a shadow block. A shadow cannot hold real blocks.
func (b *Block) SetShadow(shadow bool) error {
	if shadow {
		for _, c := range b.Children() {
			if !c.shadow {
				return errors.New(errors.ErrCodeInvalidState, "%s holds a real block and cannot become a shadow", b)
			}
		}
	}
	b.shadow = shadow
	return nil
}

// Collapsed reports whether b is collapsed.
func (b *Block) Collapsed() bool { return b.collapsed }

// Disabled reports b's own disabled flag.
func (b *Block) Disabled() bool { return b.disabled }

// InheritedDisabled reports whether any ancestor is disabled. Blocks
// further down a stack count the blocks above them as ancestors.
func (b *Block) InheritedDisabled() bool {
	for p := b.parent; p != nil; p = p.parent {
		if p.disabled {
			return true
		}
	}
	return false
}

// EffectiveDisabled is the state the renderer draws: own or inherited.
func (b *Block) EffectiveDisabled() bool { return b.effectiveDisabled }

// SetDisabled sets b's own disabled flag and propagates it to every block
// below.
func (b *Block) SetDisabled(disabled bool) error {
	if b.disabled == disabled {
		return nil
	}
	b.disabled = disabled
	b.ws.fire(events.Change(b.id, events.ElementDisabled, "",
		strconv.FormatBool(!disabled), strconv.FormatBool(disabled)))
	b.UpdateDisabled()
	if b.rendered {
		return b.ws.Render(b)
	}
	return nil
}

// UpdateDisabled recomputes the effective disabled state of b and its
// descendants.
func (b *Block) UpdateDisabled() {
	b.effectiveDisabled = b.disabled || (b.parent != nil && b.parent.effectiveDisabled)
	for _, c := range b.Children() {
		c.UpdateDisabled()
	}
}

// AddAffordance attaches a named popup to b, initially closed. Adding an
// existing name returns the existing affordance.
func (b *Block) AddAffordance(name string) *Affordance {
	if a := b.Affordance(name); a != nil {
		return a
	}
	a := &Affordance{Name: name}
	b.affordances = append(b.affordances, a)
	return a
}

// Affordance returns the named popup, or nil.
func (b *Block) Affordance(name string) *Affordance {
	for _, a := range b.affordances {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Affordances returns b's popups.
func (b *Block) Affordances() []*Affordance { return b.affordances }

func (b *Block) closeAffordances() {
	for _, a := range b.affordances {
		a.Visible = false
	}
}

// Place sets the position of a top-level block before its first render.
// Rendered blocks move with MoveBy.
func (b *Block) Place(x, y float64) error {
	if b.rendered || b.parent != nil {
		return b.ws.invariant("place", errors.Invariant("place %s: only unrendered top-level blocks can be placed", b))
	}
	b.xy = geom.Pt(x, y)
	return nil
}

// MoveBy translates a rendered top-level block and its whole tree.
// Anything else is a programming error.
func (b *Block) MoveBy(dx, dy float64) error {
	if !b.rendered {
		return b.ws.invariant("moveBy", errors.Invariant("moveBy %s: block is not rendered", b))
	}
	if b.parent != nil {
		return b.ws.invariant("moveBy", errors.Invariant("moveBy %s: block is not top-level", b))
	}
	if err := b.translate(geom.Pt(dx, dy)); err != nil {
		return err
	}
	b.ws.fire(events.Event{Type: events.TypeMove, BlockID: b.id, X: b.xy.X, Y: b.xy.Y, DX: dx, DY: dy})
	return nil
}

// MoveTo moves a rendered top-level block so its origin is at p.
func (b *Block) MoveTo(p geom.Point) error {
	d := p.Sub(b.xy)
	return b.MoveBy(d.X, d.Y)
}

func (b *Block) translate(d geom.Point) error {
	b.xy = b.xy.Add(d)
	for _, c := range b.Connections(true) {
		if err := c.MoveBy(d.X, d.Y); err != nil {
			return err
		}
	}
	for _, child := range b.Children() {
		if err := child.translate(d); err != nil {
			return err
		}
	}
	return nil
}

// layoutConnections moves every connection of b to its offset from b's
// origin, then pulls attached children into place.
func (b *Block) layoutConnections() error {
	conns := b.Connections(true)
	for _, c := range conns {
		if err := c.MoveToOffset(b.xy); err != nil {
			return err
		}
	}
	for _, c := range conns {
		if c.kind.IsSuperior() && c.target != nil {
			if err := c.Tighten(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Unplug detaches b from its parent. With healStack, a statement block
// hands the blocks below it to its former predecessor.
func (b *Block) Unplug(healStack bool) error {
	if b.output != nil {
		if b.output.target != nil {
			return b.output.Disconnect()
		}
		return nil
	}
	if b.previous == nil || b.previous.target == nil {
		return nil
	}
	prevTarget := b.previous.target
	var below *Connection
	if healStack && b.next != nil && b.next.target != nil {
		below = b.next.target
		if err := b.next.Disconnect(); err != nil {
			return err
		}
	}
	if err := b.previous.Disconnect(); err != nil {
		return err
	}
	if below != nil && below.CheckType(prevTarget) {
		return prevTarget.Connect(below)
	}
	return nil
}

// Dispose removes b and everything below it from the workspace. With
// healStack, the blocks after b in its stack are kept and reattached.
func (b *Block) Dispose(healStack bool) error {
	if b.disposed {
		return nil
	}
	if err := b.Unplug(healStack); err != nil {
		return err
	}
	return b.dispose()
}

func (b *Block) dispose() error {
	ws := b.ws
	ws.fire(events.Event{Type: events.TypeDelete, BlockID: b.id})
	for _, d := range b.Descendants() {
		d.disposing = true
	}
	ws.events.Disable()
	defer ws.events.Enable()
	return b.teardown()
}

func (b *Block) teardown() error {
	if b.parent != nil {
		for _, c := range []*Connection{b.output, b.previous} {
			if c != nil && c.target != nil {
				if err := c.target.disconnectChild(false); err != nil {
					return err
				}
			}
		}
	}
	for _, c := range b.Connections(true) {
		if c.kind.IsSuperior() && c.target != nil {
			child := c.target.block
			if err := c.disconnectChild(false); err != nil {
				return err
			}
			if err := child.teardown(); err != nil {
				return err
			}
		}
	}
	for _, c := range b.Connections(true) {
		if err := c.deindex(); err != nil {
			return err
		}
	}
	b.ws.remove(b)
	b.disposed = true
	b.rendered = false
	return nil
}

package blocks

import (
	"io"
	"maps"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/snaplink/pkg/errors"
	"github.com/matzehuels/snaplink/pkg/events"
	"github.com/matzehuels/snaplink/pkg/observability"
)

// Default snapping radii in workspace units.
const (
	DefaultSnapRadius           = 28
	DefaultConnectingSnapRadius = 48
)

// Renderer lays out a single block. It is called post-order, so every
// child of b has already been rendered; it must set b's size and the
// offset of each of b's connections.
type Renderer interface {
	Render(b *Block) error
}

// ShadowTemplate describes the default block that refills an emptied slot.
type ShadowTemplate struct {
	Type   string
	Fields map[string]string
}

func (t ShadowTemplate) clone() ShadowTemplate {
	return ShadowTemplate{Type: t.Type, Fields: maps.Clone(t.Fields)}
}

func templateOf(b *Block) ShadowTemplate {
	t := ShadowTemplate{Type: b.typ}
	for _, f := range b.Fields() {
		if f.Name() == "" {
			continue
		}
		if t.Fields == nil {
			t.Fields = make(map[string]string)
		}
		t.Fields[f.Name()] = f.Value()
	}
	return t
}

// ShadowFactory builds shadow blocks from templates.
type ShadowFactory interface {
	NewShadow(ws *Workspace, t ShadowTemplate) (*Block, error)
}

// Options configure a Workspace. The zero value is usable.
type Options struct {
	// SnapRadius is the search radius for connection candidates and the
	// bump margin. Defaults to DefaultSnapRadius.
	SnapRadius float64

	// ConnectingSnapRadius is used once a drag has a candidate, so the
	// highlighted connection does not flicker at the edge of the radius.
	// Defaults to DefaultConnectingSnapRadius.
	ConnectingSnapRadius float64

	// RTL lays blocks out right to left.
	RTL bool

	// Palette marks a template surface: nothing on it connects or bumps.
	Palette bool

	Renderer Renderer
	Shadows  ShadowFactory
	Events   *events.Recorder
	Hooks    observability.WorkspaceHooks
	Logger   *log.Logger

	// NewID generates block ids. Defaults to uuid.NewString.
	NewID func() string
}

// Workspace owns a forest of blocks and the per-kind connection indices.
// A Workspace is not safe for concurrent use.
type Workspace struct {
	opts     Options
	blocks   map[string]*Block
	order    []*Block
	dbs      [len(Kinds)]*connIndex
	dragging bool

	events *events.Recorder
	hooks  observability.WorkspaceHooks
	log    *log.Logger
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(opts Options) *Workspace {
	if opts.SnapRadius <= 0 {
		opts.SnapRadius = DefaultSnapRadius
	}
	if opts.ConnectingSnapRadius < opts.SnapRadius {
		opts.ConnectingSnapRadius = max(DefaultConnectingSnapRadius, opts.SnapRadius)
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	ws := &Workspace{
		opts:   opts,
		blocks: make(map[string]*Block),
		dbs:    newIndices(),
		events: opts.Events,
		hooks:  opts.Hooks,
		log:    opts.Logger,
	}
	if ws.events == nil {
		ws.events = events.NewRecorder()
	}
	if ws.hooks == nil {
		ws.hooks = observability.NoopWorkspaceHooks{}
	}
	if ws.log == nil {
		ws.log = log.New(io.Discard)
	}
	return ws
}

// Options returns the effective options.
func (ws *Workspace) Options() Options { return ws.opts }

// SnapRadius returns the search and bump radius.
func (ws *Workspace) SnapRadius() float64 { return ws.opts.SnapRadius }

// RTL reports right-to-left layout.
func (ws *Workspace) RTL() bool { return ws.opts.RTL }

// Palette reports whether this is a non-interactive template surface.
func (ws *Workspace) Palette() bool { return ws.opts.Palette }

// Events returns the event recorder.
func (ws *Workspace) Events() *events.Recorder { return ws.events }

// Logger returns the workspace logger.
func (ws *Workspace) Logger() *log.Logger { return ws.log }

// Dragging reports whether a drag is in progress.
func (ws *Workspace) Dragging() bool { return ws.dragging }

// SetShadowFactory installs the factory used to respawn shadows.
func (ws *Workspace) SetShadowFactory(f ShadowFactory) { ws.opts.Shadows = f }

// SetRenderer installs the layout renderer.
func (ws *Workspace) SetRenderer(r Renderer) { ws.opts.Renderer = r }

// NewBlock creates an empty top-level block at the origin. Its
// connections are added with SetOutput, SetPrevious, SetNext and
// AppendInput.
func (ws *Workspace) NewBlock(typ string) (*Block, error) {
	if err := errors.ValidateName("block type", typ); err != nil {
		return nil, err
	}
	id := ws.opts.NewID()
	if _, ok := ws.blocks[id]; ok {
		return nil, ws.invariant("newBlock", errors.Invariant("duplicate block id %q", id))
	}
	b := &Block{ws: ws, id: id, typ: typ, movable: true, deletable: true}
	ws.blocks[id] = b
	ws.order = append(ws.order, b)
	ws.fire(events.Event{Type: events.TypeCreate, BlockID: id})
	return b, nil
}

// Block returns the block with the given id.
func (ws *Workspace) Block(id string) (*Block, bool) {
	b, ok := ws.blocks[id]
	return b, ok
}

// Blocks returns every live block in creation order.
func (ws *Workspace) Blocks() []*Block {
	return append([]*Block(nil), ws.order...)
}

// TopBlocks returns the roots of the forest in creation order.
func (ws *Workspace) TopBlocks() []*Block {
	var out []*Block
	for _, b := range ws.order {
		if b.parent == nil {
			out = append(out, b)
		}
	}
	return out
}

func (ws *Workspace) remove(b *Block) {
	delete(ws.blocks, b.id)
	for i, o := range ws.order {
		if o == b {
			ws.order = append(ws.order[:i], ws.order[i+1:]...)
			break
		}
	}
}

// Clear disposes every block.
func (ws *Workspace) Clear() error {
	for _, b := range ws.TopBlocks() {
		if b.disposed {
			continue
		}
		if err := b.Dispose(false); err != nil {
			return err
		}
	}
	return nil
}

// Render lays out b's subtree bottom-up, re-renders each ancestor, then
// positions every connection of the tree from the root's origin.
func (ws *Workspace) Render(b *Block) error {
	if b.disposed {
		return ws.invariant("render", errors.Invariant("render %s: block is disposed", b))
	}
	if err := ws.renderTree(b); err != nil {
		return err
	}
	for p := b.parent; p != nil; p = p.parent {
		if err := ws.renderOne(p); err != nil {
			return err
		}
	}
	return b.RootBlock().layoutConnections()
}

// RenderAll renders every top-level block.
func (ws *Workspace) RenderAll() error {
	for _, b := range ws.TopBlocks() {
		if err := ws.Render(b); err != nil {
			return err
		}
	}
	return nil
}

func (ws *Workspace) renderTree(b *Block) error {
	for _, c := range b.Children() {
		if err := ws.renderTree(c); err != nil {
			return err
		}
	}
	return ws.renderOne(b)
}

func (ws *Workspace) renderOne(b *Block) error {
	if r := ws.opts.Renderer; r != nil {
		if err := r.Render(b); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "render %s", b)
		}
	}
	b.rendered = true
	return nil
}

func (ws *Workspace) fire(e events.Event) { ws.events.Fire(e) }

// invariant logs a programming error raised by op and returns it.
func (ws *Workspace) invariant(op string, err error) error {
	ws.log.Error("invariant violated", "op", op, "err", err)
	ws.hooks.OnInvariant(op, err)
	return err
}

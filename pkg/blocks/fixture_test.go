package blocks

import (
	"fmt"
	"testing"

	"github.com/matzehuels/snaplink/pkg/events"
	"github.com/matzehuels/snaplink/pkg/field"
	"github.com/matzehuels/snaplink/pkg/geom"
)

// gridRenderer lays blocks out on a fixed grid: value inputs on the right
// edge at x=100, statement inputs indented by 20, 40 units per input row,
// and the next connection below the last row. Output and previous stay at
// the origin.
type gridRenderer struct{ calls int }

func (r *gridRenderer) Render(b *Block) error {
	r.calls++
	y := 0.0
	for _, in := range b.Inputs() {
		if c := in.Connection(); c != nil {
			switch in.Kind() {
			case InputKindValue:
				c.SetOffsetInBlock(100, y)
			case InputKindStatement:
				c.SetOffsetInBlock(20, y+20)
			}
		}
		y += 40
	}
	if y == 0 {
		y = 40
	}
	if b.Next() != nil {
		b.Next().SetOffsetInBlock(0, y)
	}
	b.SetSize(100, y)
	return nil
}

// shadowMaker builds value shadows with one text field per template entry.
type shadowMaker struct {
	calls    int
	nilBlock bool
}

func (s *shadowMaker) NewShadow(ws *Workspace, t ShadowTemplate) (*Block, error) {
	s.calls++
	if s.nilBlock {
		return nil, nil
	}
	b, err := ws.NewBlock(t.Type)
	if err != nil {
		return nil, err
	}
	if err := b.SetOutput(); err != nil {
		return nil, err
	}
	in, err := b.AppendInput(InputKindDummy, "")
	if err != nil {
		return nil, err
	}
	for name, v := range t.Fields {
		if err := in.AppendField(field.NewText(name, v)); err != nil {
			return nil, err
		}
	}
	return b, nil
}

type fixture struct {
	t        *testing.T
	ws       *Workspace
	renderer *gridRenderer
	n        int
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{t: t, renderer: &gridRenderer{}}
	if opts.Renderer == nil {
		opts.Renderer = f.renderer
	}
	if opts.Events == nil {
		opts.Events = events.NewRecorder()
	}
	opts.NewID = func() string {
		f.n++
		return fmt.Sprintf("b%d", f.n)
	}
	f.ws = NewWorkspace(opts)
	return f
}

func (f *fixture) must(err error) {
	f.t.Helper()
	if err != nil {
		f.t.Fatal(err)
	}
}

// block creates a block with the given value inputs, unplaced and
// unrendered.
func (f *fixture) block(typ string, inputs ...string) *Block {
	f.t.Helper()
	b, err := f.ws.NewBlock(typ)
	f.must(err)
	for _, name := range inputs {
		_, err := b.AppendInput(InputKindValue, name)
		f.must(err)
	}
	return b
}

func (f *fixture) place(b *Block, x, y float64) *Block {
	f.t.Helper()
	f.must(b.Place(x, y))
	f.must(f.ws.Render(b))
	return b
}

// value creates and renders a value block at (x, y).
func (f *fixture) value(typ string, x, y float64, inputs ...string) *Block {
	f.t.Helper()
	b := f.block(typ, inputs...)
	f.must(b.SetOutput())
	return f.place(b, x, y)
}

// statement creates and renders a statement block at (x, y).
func (f *fixture) statement(typ string, x, y float64) *Block {
	f.t.Helper()
	b := f.block(typ)
	f.must(b.SetPrevious())
	f.must(b.SetNext())
	return f.place(b, x, y)
}

// plugInto connects child's output to parent's named input.
func (f *fixture) plugInto(parent *Block, input string, child *Block) {
	f.t.Helper()
	f.must(parent.Input(input).Connection().Connect(child.Output()))
}

// stack connects b below a.
func (f *fixture) stack(a, b *Block) {
	f.t.Helper()
	f.must(a.Next().Connect(b.Previous()))
}

func (f *fixture) checkIndex() {
	f.t.Helper()
	if err := f.ws.CheckIndex(); err != nil {
		f.t.Fatalf("index inconsistent: %v", err)
	}
}

func (f *fixture) eventTypes() []events.Type {
	var out []events.Type
	for _, e := range f.ws.Events().Pending() {
		out = append(out, e.Type)
	}
	return out
}

func pt(x, y float64) geom.Point { return geom.Pt(x, y) }

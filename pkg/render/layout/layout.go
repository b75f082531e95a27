package layout

import (
	"math"

	"github.com/matzehuels/snaplink/pkg/blocks"
	"github.com/matzehuels/snaplink/pkg/measure"
)

// Default geometry in workspace units.
const (
	DefaultPadding         = 6
	DefaultRowHeight       = 24
	DefaultMinWidth        = 40
	DefaultTabWidth        = 8
	DefaultStatementIndent = 16
	DefaultEmptyBody       = 16
)

// Options control block geometry. Zero fields take the defaults above.
type Options struct {
	Padding         float64
	RowHeight       float64
	MinWidth        float64
	TabWidth        float64
	StatementIndent float64
	EmptyBody       float64

	// RTL mirrors every connection offset around the block origin.
	RTL bool
}

func (o *Options) setDefaults() {
	if o.Padding <= 0 {
		o.Padding = DefaultPadding
	}
	if o.RowHeight <= 0 {
		o.RowHeight = DefaultRowHeight
	}
	if o.MinWidth <= 0 {
		o.MinWidth = DefaultMinWidth
	}
	if o.TabWidth <= 0 {
		o.TabWidth = DefaultTabWidth
	}
	if o.StatementIndent <= 0 {
		o.StatementIndent = DefaultStatementIndent
	}
	if o.EmptyBody <= 0 {
		o.EmptyBody = DefaultEmptyBody
	}
}

// Renderer is a blocks.Renderer that stacks input rows vertically. Fields
// are laid out left to right, value inputs sit at the end of their row and
// statement inputs open an indented body below their row.
type Renderer struct {
	m    *measure.Measurer
	opts Options
}

var _ blocks.Renderer = (*Renderer)(nil)

// New creates a renderer measuring text with m.
func New(m *measure.Measurer, opts Options) *Renderer {
	opts.setDefaults()
	return &Renderer{m: m, opts: opts}
}

// Options returns the effective options.
func (r *Renderer) Options() Options { return r.opts }

// Render sets b's size and connection offsets. b's children have already
// been rendered.
func (r *Renderer) Render(b *blocks.Block) error {
	o := r.opts
	x0 := 0.0
	if b.Output() != nil {
		x0 = o.TabWidth
	}
	width, y := o.MinWidth, 0.0

	if b.Collapsed() {
		width = math.Max(width, x0+r.m.Width(b.Type()+" …"))
		y = r.rowHeight()
	} else {
		for _, in := range b.Inputs() {
			rowW, rowH := x0+r.fieldsWidth(in), r.rowHeight()
			c := in.Connection()
			switch in.Kind() {
			case blocks.InputKindValue:
				r.place(c, rowW, y)
				if child := c.TargetBlock(); child != nil {
					rowW += child.Size().Width
					rowH = math.Max(rowH, child.Size().Height)
				} else {
					rowW += o.TabWidth
				}
			case blocks.InputKindStatement:
				r.place(c, o.StatementIndent, y+rowH)
				bodyW, bodyH := stackExtent(c.TargetBlock())
				rowW = math.Max(rowW, o.StatementIndent+bodyW)
				rowH += math.Max(bodyH, o.EmptyBody)
			}
			width = math.Max(width, rowW)
			y += rowH
		}
		if y == 0 {
			y = r.rowHeight()
		}
	}

	if c := b.Output(); c != nil {
		r.place(c, 0, 0)
	}
	if c := b.Previous(); c != nil {
		r.place(c, 0, 0)
	}
	if c := b.Next(); c != nil {
		r.place(c, 0, y)
	}
	b.SetSize(width, y)
	return nil
}

func (r *Renderer) place(c *blocks.Connection, x, y float64) {
	if r.opts.RTL {
		x = -x
	}
	c.SetOffsetInBlock(x, y)
}

func (r *Renderer) rowHeight() float64 {
	return math.Max(r.opts.RowHeight, r.m.LineHeight()+2*r.opts.Padding)
}

func (r *Renderer) fieldsWidth(in *blocks.Input) float64 {
	w := r.opts.Padding
	for _, f := range in.Fields() {
		w += r.m.Width(f.Text()) + r.opts.Padding
	}
	return w
}

// stackExtent returns the bounding size of the statement stack starting
// at b.
func stackExtent(b *blocks.Block) (w, h float64) {
	for ; b != nil; b = b.Next().TargetBlock() {
		w = math.Max(w, b.Size().Width)
		h += b.Size().Height
		if b.Next() == nil {
			break
		}
	}
	return w, h
}

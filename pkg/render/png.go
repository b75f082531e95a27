package render

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/snaplink/pkg/blocks"
)

const (
	DefaultScale  = 2.0
	DefaultMargin = 20.0
)

// Options configure PNG output.
type Options struct {
	// Scale multiplies workspace units into pixels.
	Scale float64

	// Margin is blank space around the drawing, in workspace units.
	Margin float64

	// Face draws block text. Defaults to a 7x13 bitmap face; pass the
	// layout measurer's face so text fits the boxes it was measured for.
	Face font.Face
}

var palette = []color.Color{
	color.RGBA{0x5b, 0x80, 0xa5, 0xff},
	color.RGBA{0x5b, 0xa5, 0x5b, 0xff},
	color.RGBA{0xa5, 0x5b, 0x80, 0xff},
	color.RGBA{0xa5, 0x74, 0x5b, 0xff},
	color.RGBA{0x74, 0x5b, 0xa5, 0xff},
	color.RGBA{0x5b, 0xa5, 0x9a, 0xff},
}

var (
	shadowFill   = color.RGBA{0xdd, 0xdd, 0xdd, 0xff}
	disabledFill = color.RGBA{0xf2, 0xf2, 0xf2, 0xff}
	outline      = color.Black
	socket       = color.RGBA{0xff, 0xc8, 0x00, 0xff}
)

// PNG draws every visible block of ws. Blocks must have been rendered.
func PNG(ws *blocks.Workspace, opts Options) ([]byte, error) {
	if opts.Scale <= 0 {
		opts.Scale = DefaultScale
	}
	if opts.Margin < 0 {
		opts.Margin = 0
	} else if opts.Margin == 0 {
		opts.Margin = DefaultMargin
	}
	if opts.Face == nil {
		opts.Face = basicfont.Face7x13
	}

	var visible []*blocks.Block
	for _, top := range ws.TopBlocks() {
		for _, b := range top.Descendants() {
			if drawn(b) {
				visible = append(visible, b)
			}
		}
	}

	minX, minY, maxX, maxY := 0.0, 0.0, 0.0, 0.0
	for i, b := range visible {
		x, y, w, h := box(b, ws.RTL())
		if i == 0 {
			minX, minY, maxX, maxY = x, y, x+w, y+h
			continue
		}
		minX, minY = math.Min(minX, x), math.Min(minY, y)
		maxX, maxY = math.Max(maxX, x+w), math.Max(maxY, y+h)
	}

	width := int(math.Ceil((maxX - minX + 2*opts.Margin) * opts.Scale))
	height := int(math.Ceil((maxY - minY + 2*opts.Margin) * opts.Scale))
	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()
	dc.Scale(opts.Scale, opts.Scale)
	dc.Translate(opts.Margin-minX, opts.Margin-minY)
	dc.SetFontFace(opts.Face)

	for _, b := range visible {
		drawBlock(dc, b, ws.RTL())
	}
	for _, b := range visible {
		for _, c := range b.Connections(false) {
			if c.IsConnected() || c.Hidden() {
				continue
			}
			p := c.Position()
			dc.DrawCircle(p.X, p.Y, 2)
			dc.SetColor(socket)
			dc.Fill()
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// drawn reports whether b is outside every collapsed ancestor. Collapsing
// hides the connection a block hangs from.
func drawn(b *blocks.Block) bool {
	plug := b.Output()
	if plug == nil {
		plug = b.Previous()
	}
	return plug == nil || !plug.Hidden()
}

func box(b *blocks.Block, rtl bool) (x, y, w, h float64) {
	xy, size := b.XY(), b.Size()
	x = xy.X
	if rtl {
		x -= size.Width
	}
	return x, xy.Y, size.Width, size.Height
}

func drawBlock(dc *gg.Context, b *blocks.Block, rtl bool) {
	x, y, w, h := box(b, rtl)
	dc.DrawRoundedRectangle(x, y, w, h, 3)
	dc.SetColor(fill(b))
	dc.FillPreserve()
	dc.SetLineWidth(0.5)
	dc.SetColor(outline)
	dc.Stroke()

	if b.Shadow() || b.EffectiveDisabled() {
		dc.SetColor(color.Gray{0x60})
	} else {
		dc.SetColor(color.White)
	}
	ax := 0.0
	tx := x + 4
	if rtl {
		ax, tx = 1, x+w-4
	}
	dc.DrawStringAnchored(label(b), tx, y+math.Min(h, dc.FontHeight()+8)/2, ax, 0.35)
}

func fill(b *blocks.Block) color.Color {
	switch {
	case b.Shadow():
		return shadowFill
	case b.EffectiveDisabled():
		return disabledFill
	}
	h := fnv.New32a()
	h.Write([]byte(b.Type()))
	return palette[h.Sum32()%uint32(len(palette))]
}

func label(b *blocks.Block) string {
	if b.Collapsed() {
		return b.Type() + " …"
	}
	var parts []string
	for _, f := range b.Fields() {
		if t := f.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return b.Type()
	}
	return strings.Join(parts, " ")
}

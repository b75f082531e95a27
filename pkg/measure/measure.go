package measure

import (
	"fmt"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/matzehuels/snaplink/pkg/observability"
)

// DefaultFontSize is the size used when Options.FontSize is zero.
const DefaultFontSize = 11

// widthTable names the memo table in hook callbacks.
const widthTable = "width"

// Options configure a Measurer.
type Options struct {
	FontSize float64

	// Font is TrueType data. Defaults to Go Regular.
	Font []byte

	Hooks observability.MemoHooks
}

// Measurer reports text extents in workspace units. Widths are memoised
// only while a scope is open (see Begin), so that a layout pass measuring
// the same labels many times pays once, and nothing is retained between
// passes.
//
// A Measurer is not safe for concurrent use.
type Measurer struct {
	dc    *gg.Context
	face  font.Face
	size  float64
	hooks observability.MemoHooks

	depth int
	memo  map[string]float64
}

// New parses the font and builds a Measurer.
func New(opts Options) (*Measurer, error) {
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultFontSize
	}
	if opts.Font == nil {
		opts.Font = goregular.TTF
	}
	if opts.Hooks == nil {
		opts.Hooks = observability.NoopMemoHooks{}
	}
	f, err := truetype.Parse(opts.Font)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:    opts.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	dc := gg.NewContext(1, 1)
	dc.SetFontFace(face)
	return &Measurer{dc: dc, face: face, size: opts.FontSize, hooks: opts.Hooks}, nil
}

// FontSize returns the configured font size.
func (m *Measurer) FontSize() float64 { return m.size }

// Face returns the font face widths are measured with, for drawing the
// same text elsewhere.
func (m *Measurer) Face() font.Face { return m.face }

// LineHeight returns the height of one line of text.
func (m *Measurer) LineHeight() float64 { return m.dc.FontHeight() }

// Width returns the advance width of text.
func (m *Measurer) Width(text string) float64 {
	if text == "" {
		return 0
	}
	if m.memo == nil {
		w, _ := m.dc.MeasureString(text)
		return w
	}
	if w, ok := m.memo[text]; ok {
		m.hooks.OnMemoHit(widthTable)
		return w
	}
	m.hooks.OnMemoMiss(widthTable)
	w, _ := m.dc.MeasureString(text)
	m.memo[text] = w
	return w
}

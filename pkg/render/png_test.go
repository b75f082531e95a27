package render

import (
	"bytes"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/snaplink/pkg/blocks"
)

// boxRenderer gives every block a 100x40 box with a value socket on the
// right edge.
type boxRenderer struct{}

func (boxRenderer) Render(b *blocks.Block) error {
	for _, in := range b.Inputs() {
		if c := in.Connection(); c != nil {
			c.SetOffsetInBlock(100, 0)
		}
	}
	b.SetSize(100, 40)
	return nil
}

func workspace(t *testing.T, rtl bool) *blocks.Workspace {
	t.Helper()
	return blocks.NewWorkspace(blocks.Options{Renderer: boxRenderer{}, RTL: rtl, Logger: log.New(io.Discard)})
}

func place(t *testing.T, ws *blocks.Workspace, x, y float64, inputs ...string) *blocks.Block {
	t.Helper()
	b, err := ws.NewBlock("thing")
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetOutput(); err != nil {
		t.Fatal(err)
	}
	for _, name := range inputs {
		if _, err := b.AppendInput(blocks.InputKindValue, name); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Place(x, y); err != nil {
		t.Fatal(err)
	}
	if err := ws.Render(b); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestPNGBounds(t *testing.T) {
	tests := []struct {
		name          string
		rtl           bool
		scale, margin float64
		wantW, wantH  int
	}{
		{"one to one", false, 1, 10, 320, 160},
		{"scaled", false, 2, 10, 640, 320},
		{"no margin", false, 1, -1, 300, 140},
		{"rtl", true, 1, 10, 320, 160},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := workspace(t, tt.rtl)
			place(t, ws, 0, 0)
			place(t, ws, 200, 100)

			data, err := PNG(ws, Options{Scale: tt.scale, Margin: tt.margin})
			if err != nil {
				t.Fatal(err)
			}
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatal(err)
			}
			if b := img.Bounds(); b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("bounds = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
			if r, g, b, _ := img.At(1, 1).RGBA(); tt.margin > 0 && (r != 0xffff || g != 0xffff || b != 0xffff) {
				t.Errorf("margin pixel = %v, want white", img.At(1, 1))
			}
		})
	}
}

func TestPNGSkipsCollapsedChildren(t *testing.T) {
	ws := workspace(t, false)
	parent := place(t, ws, 0, 0, "X")
	child := place(t, ws, 500, 500)
	if err := parent.Input("X").Connection().Connect(child.Output()); err != nil {
		t.Fatal(err)
	}
	if err := parent.SetCollapsed(true); err != nil {
		t.Fatal(err)
	}
	if drawn(child) {
		t.Fatal("child of a collapsed block should not be drawn")
	}

	data, err := PNG(ws, Options{Scale: 1, Margin: -1})
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 40 {
		t.Errorf("bounds = %dx%d, want only the parent box", b.Dx(), b.Dy())
	}
}

func TestFill(t *testing.T) {
	ws := workspace(t, false)
	b := place(t, ws, 0, 0)
	if fill(b) == color.Color(shadowFill) {
		t.Error("real block drawn as shadow")
	}
	if err := b.SetDisabled(true); err != nil {
		t.Fatal(err)
	}
	if fill(b) != color.Color(disabledFill) {
		t.Errorf("disabled fill = %v", fill(b))
	}
	if got := label(b); got != "thing" {
		t.Errorf("label = %q", got)
	}
}

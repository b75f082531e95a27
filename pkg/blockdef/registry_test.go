package blockdef

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/snaplink/pkg/blocks"
	"github.com/matzehuels/snaplink/pkg/errors"
	"github.com/matzehuels/snaplink/pkg/script"
)

func quietEngine() *script.Engine {
	return script.New(script.Options{Logger: log.New(io.Discard)})
}

func newWorkspace() *blocks.Workspace {
	return blocks.NewWorkspace(blocks.Options{Logger: log.New(io.Discard)})
}

func builtin(t *testing.T) *Registry {
	t.Helper()
	r, err := Builtin(quietEngine())
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	return r
}

func TestBuiltinLoads(t *testing.T) {
	r := builtin(t)
	types := r.Types()
	if len(types) == 0 || types[0] != "math_number" {
		t.Fatalf("Types() = %v", types)
	}
	for _, typ := range types {
		if _, err := r.New(newWorkspace(), typ); err != nil {
			t.Errorf("New(%s): %v", typ, err)
		}
	}
}

func TestNewFillsShadows(t *testing.T) {
	r := builtin(t)
	ws := newWorkspace()
	b, err := r.New(ws, "math_arithmetic")
	if err != nil {
		t.Fatal(err)
	}

	if got := b.Output().Check(); len(got) != 1 || got[0] != "Number" {
		t.Errorf("output check = %v", got)
	}
	for _, name := range []string{"A", "B"} {
		shadow := b.Input(name).Connection().TargetBlock()
		if shadow == nil || !shadow.Shadow() || shadow.Type() != "math_number" {
			t.Fatalf("input %s holds %v, want a math_number shadow", name, shadow)
		}
		if v := shadow.Field("NUM").Value(); v != "1" {
			t.Errorf("input %s shadow NUM = %q, want 1", name, v)
		}
	}
	op := b.Field("OP")
	if op.Value() != "ADD" || op.Text() != "+" {
		t.Errorf("OP = %q/%q", op.Value(), op.Text())
	}
	if n := len(ws.Blocks()); n != 3 {
		t.Errorf("workspace holds %d blocks, want 3", n)
	}
}

func TestShadowRespawnKeepsEditedValue(t *testing.T) {
	r := builtin(t)
	ws := newWorkspace()
	sum, err := r.New(ws, "math_arithmetic")
	if err != nil {
		t.Fatal(err)
	}
	slot := sum.Input("A").Connection()
	if err := slot.TargetBlock().SetFieldValue("NUM", "5"); err != nil {
		t.Fatal(err)
	}

	solid, err := r.New(ws, "math_number")
	if err != nil {
		t.Fatal(err)
	}
	if err := slot.Connect(solid.Output()); err != nil {
		t.Fatal(err)
	}
	if err := slot.Disconnect(); err != nil {
		t.Fatal(err)
	}

	shadow := slot.TargetBlock()
	if shadow == nil || !shadow.Shadow() {
		t.Fatal("the slot should be refilled with a shadow")
	}
	if v := shadow.Field("NUM").Value(); v != "5" {
		t.Errorf("respawned NUM = %q, want the edited 5", v)
	}
}

func TestScriptedValidator(t *testing.T) {
	r := builtin(t)
	b, err := r.New(newWorkspace(), "variables_set")
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetFieldValue("VAR", "  count "); err != nil {
		t.Fatal(err)
	}
	if v := b.Field("VAR").Value(); v != "count" {
		t.Errorf("VAR = %q, want trimmed count", v)
	}
	if err := b.SetFieldValue("VAR", "1abc"); !errors.IsRejection(err) {
		t.Errorf("invalid identifier error = %v", err)
	}
}

func TestFieldKinds(t *testing.T) {
	r := builtin(t)
	ws := newWorkspace()

	flag, err := r.New(ws, "logic_flag")
	if err != nil {
		t.Fatal(err)
	}
	if v := flag.Field("FLAG").Value(); v != "TRUE" {
		t.Errorf("FLAG = %q", v)
	}

	num, err := r.New(ws, "math_number")
	if err != nil {
		t.Fatal(err)
	}
	if err := num.SetFieldValue("NUM", "-1e9"); err != nil {
		t.Fatal(err)
	}
	if v := num.Field("NUM").Value(); v != "-1000000000" {
		t.Errorf("unbounded NUM = %q", v)
	}

	loop, err := r.New(ws, "controls_repeat_ext")
	if err != nil {
		t.Fatal(err)
	}
	if loop.Previous() == nil || loop.Next() == nil || loop.Output() != nil {
		t.Error("statement block connections")
	}
	if in := loop.Input("DO"); in.Kind() != blocks.InputKindStatement || in.Connection().Kind() != blocks.NextStatement {
		t.Errorf("DO input = %v", in.Kind())
	}
}

func TestInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"syntax", `[[block]`},
		{"unknown key", "[[block]]\ntype = \"a\"\ncolour = 20\n"},
		{"bad type name", "[[block]]\ntype = \"a b\"\n"},
		{"output and previous", "[[block]]\ntype = \"a\"\noutput = {}\nprevious = {}\n"},
		{"bad input kind", "[[block]]\ntype = \"a\"\n[[block.input]]\nname = \"X\"\nkind = \"loop\"\n"},
		{"duplicate input", "[[block]]\ntype = \"a\"\n[[block.input]]\nname = \"X\"\n[[block.input]]\nname = \"X\"\n"},
		{"dummy with check", "[[block]]\ntype = \"a\"\n[[block.input]]\nkind = \"dummy\"\ncheck = [\"Number\"]\n"},
		{"duplicate check", "[[block]]\ntype = \"a\"\noutput = { check = [\"N\", \"N\"] }\n"},
		{"unnamed text field", "[[block]]\ntype = \"a\"\n[[block.input]]\n[[block.input.field]]\nkind = \"text\"\n"},
		{"duplicate field", "[[block]]\ntype = \"a\"\n[[block.input]]\n[[block.input.field]]\nname = \"F\"\n[[block.input.field]]\nname = \"F\"\n"},
		{"empty dropdown", "[[block]]\ntype = \"a\"\n[[block.input]]\n[[block.input.field]]\nname = \"F\"\nkind = \"dropdown\"\n"},
		{"bad validator", "[[block]]\ntype = \"a\"\n[[block.input]]\n[[block.input.field]]\nname = \"F\"\nvalidator = \"function(t) {\"\n"},
		{"duplicate type", "[[block]]\ntype = \"a\"\n[[block]]\ntype = \"a\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry(quietEngine()).Load([]byte(tt.doc))
			if !errors.Is(err, errors.ErrCodeInvalidDefinition) {
				t.Errorf("Load error = %v, want INVALID_DEFINITION", err)
			}
		})
	}
}

func TestValidatorNeedsEngine(t *testing.T) {
	doc := "[[block]]\ntype = \"a\"\n[[block.input]]\n[[block.input.field]]\nname = \"F\"\nvalidator = \"function(t) {}\"\n"
	if err := NewRegistry(nil).Load([]byte(doc)); !errors.Is(err, errors.ErrCodeInvalidDefinition) {
		t.Errorf("Load error = %v", err)
	}
}

func TestUnknownType(t *testing.T) {
	_, err := NewRegistry(nil).New(newWorkspace(), "missing")
	if !errors.Is(err, errors.ErrCodeUnknownBlockType) {
		t.Errorf("New error = %v", err)
	}
}

func TestSelfNestingShadowFails(t *testing.T) {
	r := NewRegistry(nil)
	doc := "[[block]]\ntype = \"loop\"\noutput = {}\n[[block.input]]\nname = \"X\"\nshadow = { type = \"loop\" }\n"
	if err := r.Load([]byte(doc)); err != nil {
		t.Fatal(err)
	}
	ws := newWorkspace()
	if _, err := r.New(ws, "loop"); !errors.Is(err, errors.ErrCodeInvalidDefinition) {
		t.Errorf("New error = %v", err)
	}
	if n := len(ws.Blocks()); n != 0 {
		t.Errorf("%d partial blocks left behind", n)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defs.toml")
	doc := "[[block]]\ntype = \"stop\"\nprevious = {}\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewRegistry(nil)
	if err := r.LoadFile(path); err != nil {
		t.Fatal(err)
	}
	d, ok := r.Lookup("stop")
	if !ok || d.Previous == nil || d.Next != nil {
		t.Errorf("Lookup(stop) = %+v, %v", d, ok)
	}
}

package blocks

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/snaplink/pkg/errors"
	"github.com/matzehuels/snaplink/pkg/events"
)

func TestConnectDisconnectSymmetric(t *testing.T) {
	f := newFixture(t, Options{})
	p := f.value("p", 0, 0, "A")
	c := f.value("c", 200, 200)
	socket := p.Input("A").Connection()

	f.must(socket.Connect(c.Output()))

	if socket.Target() != c.Output() || c.Output().Target() != socket {
		t.Fatal("link is not symmetric")
	}
	if c.Parent() != p {
		t.Errorf("Parent() = %v, want %v", c.Parent(), p)
	}
	if got := c.XY(); got != pt(100, 0) {
		t.Errorf("child XY = %v, want (100, 0)", got)
	}
	if c.Output().Position() != socket.Position() {
		t.Error("child output should coincide with the socket")
	}
	f.checkIndex()

	f.must(c.Output().Disconnect())
	if socket.Target() != nil || c.Output().Target() != nil {
		t.Fatal("disconnect left a dangling side")
	}
	if c.Parent() != nil {
		t.Error("child still has a parent")
	}
	f.checkIndex()

	types := f.eventTypes()
	if types[len(types)-2] != events.TypeConnect || types[len(types)-1] != events.TypeDisconnect {
		t.Errorf("event tail = %v", types)
	}
}

func TestConnectIsIdempotent(t *testing.T) {
	f := newFixture(t, Options{})
	p := f.value("p", 0, 0, "A")
	c := f.value("c", 200, 200)
	f.plugInto(p, "A", c)
	n := len(f.ws.Events().Pending())
	f.plugInto(p, "A", c)
	if len(f.ws.Events().Pending()) != n {
		t.Error("reconnecting the same pair should do nothing")
	}
}

func TestConnectRejectsInvalidPairs(t *testing.T) {
	var buf bytes.Buffer
	f := newFixture(t, Options{Logger: log.New(&buf)})
	p := f.value("p", 0, 0, "A")
	q := f.value("q", 0, 100, "B")
	typed := f.value("typed", 0, 200)
	f.must(typed.Output().SetCheck("Number"))
	f.must(p.Input("A").Connection().SetCheck("String"))
	f.plugInto(q, "B", p)

	tests := []struct {
		name string
		a, b *Connection
	}{
		{"same kind", p.Output(), q.Output()},
		{"same block", p.Output(), p.Input("A").Connection()},
		{"type check", p.Input("A").Connection(), typed.Output()},
		{"cycle", p.Input("A").Connection(), q.Output()},
		{"nil", p.Output(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.Connect(tt.b)
			if !errors.IsProgrammingError(err) {
				t.Fatalf("Connect error = %v, want programming error", err)
			}
		})
	}
	if !strings.Contains(buf.String(), "invariant violated") {
		t.Error("programming errors should be logged")
	}
	f.checkIndex()
}

func TestDisconnectUnconnectedIsProgrammingError(t *testing.T) {
	f := newFixture(t, Options{})
	p := f.value("p", 0, 0)
	if err := p.Output().Disconnect(); !errors.IsProgrammingError(err) {
		t.Errorf("Disconnect error = %v", err)
	}
}

func TestIsConnectionAllowedRejectsAncestry(t *testing.T) {
	f := newFixture(t, Options{})
	p := f.value("p", 0, 0, "A")
	c := f.value("c", 300, 0, "B")
	f.plugInto(p, "A", c)

	b := c.Input("B").Connection()
	if p.Output().IsConnectionAllowed(b, 1000) {
		t.Error("a block must not plug into its own descendant")
	}
	if b.IsConnectionAllowed(p.Output(), 1000) {
		t.Error("a descendant socket must not take its ancestor")
	}

	free := f.value("free", 250, 0)
	if !b.IsConnectionAllowed(free.Output(), 1000) {
		t.Error("unrelated free block should be allowed")
	}
	if b.IsConnectionAllowed(free.Output(), 1) {
		t.Error("radius must bound the distance")
	}
}

func TestIsConnectionAllowedRules(t *testing.T) {
	f := newFixture(t, Options{})
	p := f.value("p", 0, 0, "A")
	occupant := f.value("occupant", 300, 0)
	f.plugInto(p, "A", occupant)
	socket := p.Input("A").Connection()
	loose := f.value("loose", 500, 0)

	if loose.Output().IsConnectionAllowed(socket, 1000) {
		t.Error("output offered a socket held by a solid block")
	}
	if socket.IsConnectionAllowed(occupant.Output(), 1000) {
		t.Error("socket offered an already connected output")
	}

	occupant.SetMovable(false)
	other := f.value("other", 0, 300, "B")
	if other.Input("B").Connection().IsConnectionAllowed(occupant.Output(), 1000) {
		t.Error("connected output should not be offered")
	}

	s1 := f.statement("s1", 0, 500)
	s2 := f.statement("s2", 0, 600)
	f.stack(s1, s2)
	endless := f.block("endless")
	f.must(endless.SetPrevious())
	f.place(endless, 300, 500)
	if endless.Previous().IsConnectionAllowed(s1.Next(), 1000) {
		t.Error("a block without next must not splice into an occupied next")
	}
	s3 := f.statement("s3", 300, 700)
	if !s3.Previous().IsConnectionAllowed(s1.Next(), 1000) {
		t.Error("a block with next may splice into a stack")
	}

	palette := newFixture(t, Options{Palette: true})
	pa := palette.value("pa", 0, 0, "A")
	pb := palette.value("pb", 100, 0)
	if pb.Output().IsConnectionAllowed(pa.Input("A").Connection(), 1000) {
		t.Error("palette blocks never connect")
	}
}

func TestHiddenConnectionsLeaveIndex(t *testing.T) {
	f := newFixture(t, Options{})
	p := f.value("p", 0, 0, "A")
	socket := p.Input("A").Connection()
	ix := f.ws.Index(InputValue)

	if !ix.Contains(socket) || !socket.InDB() {
		t.Fatal("visible socket should be indexed")
	}
	f.must(socket.SetHidden(true))
	if ix.Contains(socket) || socket.InDB() {
		t.Error("hidden socket is still indexed")
	}
	f.must(socket.MoveBy(10, 10))
	if ix.Contains(socket) {
		t.Error("moving a hidden socket re-indexed it")
	}
	f.must(socket.SetHidden(false))
	if pos, ok := ix.Position(socket); !ok || pos != socket.Position() {
		t.Errorf("unhidden socket indexed at %v, %v; want %v", pos, ok, socket.Position())
	}
	f.checkIndex()
}

func TestClosestScenario(t *testing.T) {
	f := newFixture(t, Options{})
	// Sockets land at x = 0, 10 and 100 on y = 0.
	for _, x := range []float64{0, 10, 100} {
		b := f.block("socket", "A")
		f.place(b, x-100, 0)
	}
	probe := f.value("probe", 0, 0)
	out := probe.Output()

	got, dist := out.Closest(20, pt(5, 0))
	if got == nil || got.Position().X != 10 || dist != 5 {
		t.Errorf("probe 5: got %v at %v, want x=10 at 5", got, dist)
	}
	got, dist = out.Closest(20, pt(3, 0))
	if got == nil || got.Position().X != 0 || dist != 3 {
		t.Errorf("probe 3: got %v at %v, want x=0 at 3", got, dist)
	}
	got, dist = out.Closest(20, pt(50, 0))
	if got != nil || dist != 20 {
		t.Errorf("probe 50: got %v at %v, want nil at radius", got, dist)
	}
}

func TestOrphanReattachedBelowNewChild(t *testing.T) {
	f := newFixture(t, Options{})
	p := f.value("p", 0, 0, "A")
	x := f.value("x", 300, 0)
	f.plugInto(p, "A", x)

	c := f.value("c", 300, 300, "B")
	f.plugInto(p, "A", c)

	if c.Parent() != p {
		t.Fatalf("new child parent = %v", c.Parent())
	}
	if x.Parent() != c || c.Input("B").Connection().TargetBlock() != x {
		t.Errorf("orphan parent = %v, want %v", x.Parent(), c)
	}
	if x.XY() != pt(200, 0) {
		t.Errorf("orphan XY = %v, want (200, 0)", x.XY())
	}
	f.checkIndex()
}

func TestOrphanBumpedWithoutSlot(t *testing.T) {
	f := newFixture(t, Options{})
	p := f.value("p", 0, 0, "A")
	x := f.value("x", 300, 0)
	f.plugInto(p, "A", x)

	c := f.value("c", 300, 300)
	f.plugInto(p, "A", c)

	if x.Parent() != nil {
		t.Fatalf("orphan should be top-level, has parent %v", x.Parent())
	}
	// The orphan was at the socket (100, 0) and is pushed one radius away.
	if x.XY() != pt(128, 28) {
		t.Errorf("orphan XY = %v, want (128, 28)", x.XY())
	}
	f.checkIndex()
}

func TestOrphanStatementGoesToEndOfStack(t *testing.T) {
	f := newFixture(t, Options{})
	top := f.statement("top", 0, 0)
	old := f.statement("old", 300, 0)
	f.stack(top, old)

	inserted := f.statement("inserted", 300, 300)
	f.stack(top, inserted)

	if old.Parent() != inserted {
		t.Errorf("displaced block parent = %v, want %v", old.Parent(), inserted)
	}
	if old.XY() != pt(0, 80) {
		t.Errorf("displaced XY = %v, want (0, 80)", old.XY())
	}
}

func TestShadowRespawn(t *testing.T) {
	maker := &shadowMaker{}
	f := newFixture(t, Options{Shadows: maker})
	p := f.value("p", 0, 0, "A")
	socket := p.Input("A").Connection()

	f.must(socket.SetShadow(&ShadowTemplate{Type: "num", Fields: map[string]string{"NUM": "1"}}))
	shadow := socket.TargetBlock()
	if shadow == nil || !shadow.Shadow() || !shadow.Rendered() {
		t.Fatalf("SetShadow did not fill the slot: %v", shadow)
	}
	f.must(shadow.SetFieldValue("NUM", "5"))

	solid := f.value("solid", 300, 0)
	f.plugInto(p, "A", solid)
	if !shadow.Disposed() {
		t.Error("displaced shadow should be disposed")
	}
	if got := socket.Shadow().Fields["NUM"]; got != "5" {
		t.Errorf("template NUM = %q, want edited value 5", got)
	}

	f.must(solid.Output().Disconnect())
	respawned := socket.TargetBlock()
	if respawned == nil || !respawned.Shadow() || respawned == shadow {
		t.Fatalf("no fresh shadow after disconnect: %v", respawned)
	}
	if got := respawned.Field("NUM").Value(); got != "5" {
		t.Errorf("respawned NUM = %q, want 5", got)
	}
	if maker.calls != 2 {
		t.Errorf("factory calls = %d, want 2", maker.calls)
	}
	f.checkIndex()
}

func TestShadowRespawnNeedsRecordUndo(t *testing.T) {
	maker := &shadowMaker{}
	f := newFixture(t, Options{Shadows: maker})
	p := f.value("p", 0, 0, "A")
	socket := p.Input("A").Connection()
	f.must(socket.SetShadow(&ShadowTemplate{Type: "num"}))

	solid := f.value("solid", 300, 0)
	f.plugInto(p, "A", solid)

	f.ws.Events().SetRecordUndo(false)
	f.must(solid.Output().Disconnect())
	if socket.IsConnected() {
		t.Error("shadow respawned while record-undo was off")
	}
}

func TestShadowFactoryReturningNothing(t *testing.T) {
	maker := &shadowMaker{}
	f := newFixture(t, Options{Shadows: maker})
	p := f.value("p", 0, 0, "A")
	socket := p.Input("A").Connection()
	f.must(socket.SetShadow(&ShadowTemplate{Type: "num"}))
	solid := f.value("solid", 300, 0)
	f.plugInto(p, "A", solid)

	maker.nilBlock = true
	if err := solid.Output().Disconnect(); !errors.IsProgrammingError(err) {
		t.Errorf("Disconnect error = %v, want programming error", err)
	}
}

func TestSetCheckUnplugsIncompatibleChild(t *testing.T) {
	f := newFixture(t, Options{})
	p := f.value("p", 0, 0, "A")
	c := f.value("c", 300, 0)
	f.must(c.Output().SetCheck("Number"))
	f.plugInto(p, "A", c)

	f.must(p.Input("A").Connection().SetCheck("String"))
	if c.Parent() != nil {
		t.Fatal("incompatible child still attached")
	}
	if c.Output().DistanceFrom(p.Input("A").Connection()) <= f.ws.SnapRadius() {
		t.Error("unplugged child should be bumped out of range")
	}

	if err := c.Output().SetCheck("Number", "Number"); err == nil {
		t.Error("duplicate checks should be rejected")
	}
}

func TestCheckType(t *testing.T) {
	f := newFixture(t, Options{})
	a := f.value("a", 0, 0)
	b := f.value("b", 0, 0)
	tests := []struct {
		a, b []string
		want bool
	}{
		{nil, nil, true},
		{nil, []string{"Number"}, true},
		{[]string{"Number", "String"}, []string{"String"}, true},
		{[]string{"Number"}, []string{"Boolean"}, false},
	}
	for _, tt := range tests {
		f.must(a.Output().SetCheck(tt.a...))
		f.must(b.Output().SetCheck(tt.b...))
		if got := a.Output().CheckType(b.Output()); got != tt.want {
			t.Errorf("CheckType(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

package blocks

import (
	"testing"

	"github.com/matzehuels/snaplink/pkg/events"
)

// chain builds p -> c -> d through value inputs A and B; d has input E.
func chain(f *fixture) (p, c, d *Block) {
	p = f.value("p", 0, 0, "A")
	c = f.value("c", 300, 0, "B")
	d = f.value("d", 600, 0, "E")
	f.plugInto(p, "A", c)
	f.plugInto(c, "B", d)
	return p, c, d
}

func TestCollapseHidesDescendants(t *testing.T) {
	f := newFixture(t, Options{})
	p, c, d := chain(f)
	note := d.AddAffordance("comment")
	note.Visible = true

	f.must(p.SetCollapsed(true))

	if p.Output().Hidden() {
		t.Error("collapsed block keeps its output")
	}
	hidden := []*Connection{
		p.Input("A").Connection(),
		c.Output(), c.Input("B").Connection(),
		d.Output(), d.Input("E").Connection(),
	}
	for _, conn := range hidden {
		if !conn.Hidden() || conn.InDB() {
			t.Errorf("%v should be hidden and out of the index", conn)
		}
	}
	if note.Visible {
		t.Error("affordances below a collapsed block should close")
	}
	f.checkIndex()

	f.must(p.SetCollapsed(false))
	for _, conn := range hidden {
		if conn.Hidden() {
			t.Errorf("%v should be visible after expanding", conn)
		}
	}
	f.checkIndex()

	var collapsedEvents int
	for _, e := range f.ws.Events().Pending() {
		if e.Type == events.TypeChange && e.Element == events.ElementCollapsed {
			collapsedEvents++
		}
	}
	if collapsedEvents != 2 {
		t.Errorf("collapsed change events = %d, want 2", collapsedEvents)
	}
}

func TestUnhideAllStopsAtCollapsedMiddleBlock(t *testing.T) {
	f := newFixture(t, Options{})
	p, c, d := chain(f)
	f.must(c.SetCollapsed(true))

	socket := p.Input("A").Connection()
	f.must(socket.HideAll())
	renderList, err := socket.UnhideAll()
	f.must(err)

	if len(renderList) != 1 || renderList[0] != c {
		t.Errorf("renderList = %v, want [c]", renderList)
	}
	if socket.Hidden() || c.Output().Hidden() {
		t.Error("socket and the collapsed block's output should be visible")
	}
	for _, conn := range []*Connection{c.Input("B").Connection(), d.Output(), d.Input("E").Connection()} {
		if !conn.Hidden() {
			t.Errorf("%v inside a collapsed block should stay hidden", conn)
		}
	}
	f.checkIndex()
}

func TestUnhideAllReturnsLeaves(t *testing.T) {
	f := newFixture(t, Options{})
	p, _, d := chain(f)
	socket := p.Input("A").Connection()
	f.must(socket.HideAll())

	renderList, err := socket.UnhideAll()
	f.must(err)
	if len(renderList) != 1 || renderList[0] != d {
		t.Errorf("renderList = %v, want the deepest block [d]", renderList)
	}

	empty := f.value("empty", 0, 500, "X")
	list, err := empty.Input("X").Connection().UnhideAll()
	f.must(err)
	if list != nil {
		t.Errorf("childless connection returned %v", list)
	}
}

func TestCollapseInsideCollapsedParentKeepsHidden(t *testing.T) {
	f := newFixture(t, Options{})
	p, c, d := chain(f)
	f.must(p.SetCollapsed(true))
	f.must(c.SetCollapsed(true))
	f.must(c.SetCollapsed(false))

	if !c.Input("B").Connection().Hidden() || !d.Output().Hidden() {
		t.Error("expanding inside a collapsed parent must not reveal anything")
	}
	f.checkIndex()
}

func TestConnectIntoHiddenSlotHidesChild(t *testing.T) {
	f := newFixture(t, Options{})
	p := f.value("p", 0, 0, "A")
	f.must(p.SetCollapsed(true))
	c := f.value("c", 300, 0, "B")
	f.plugInto(p, "A", c)

	if !c.Output().Hidden() || !c.Input("B").Connection().Hidden() {
		t.Error("a child attached to a hidden slot should be hidden")
	}
	f.checkIndex()
}

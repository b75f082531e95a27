package cli

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/snaplink/pkg/geom"
	"github.com/matzehuels/snaplink/pkg/pipeline"
)

func newTestEnv(t *testing.T) *pipeline.Env {
	t.Helper()
	env, err := pipeline.NewEnv(pipeline.Options{Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func newDemoModel(t *testing.T) *DragModel {
	t.Helper()
	env := newTestEnv(t)
	runner, err := seedRunner(context.Background(), env, nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewDragModel(env, runner, 8)
}

func press(m *DragModel, keys ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(k)
	}
	return cmd
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func runeKey(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestDragModelSelection(t *testing.T) {
	m := newDemoModel(t)
	if got := m.alias(m.Selected()); got != "loop" {
		t.Fatalf("initial selection = %s", got)
	}
	press(m, keyDown, keyDown, keyDown)
	if got := m.alias(m.Selected()); got != "sum" {
		t.Errorf("selection after three downs = %s, want sum (shadows are skipped)", got)
	}
}

func TestDragModelAbortRestores(t *testing.T) {
	m := newDemoModel(t)
	press(m, keyDown, keyEnter)
	if !m.Dragging() {
		t.Fatalf("enter should start a drag, err = %v", m.Err)
	}
	press(m, keyRight, keyRight, keyRight, keyEsc)
	if m.Dragging() {
		t.Fatal("esc should end the drag")
	}
	if got := m.Selected().XY(); got != geom.Pt(400, 300) {
		t.Errorf("aborted drag left the block at %v", got)
	}
}

func TestDragModelDrop(t *testing.T) {
	m := newDemoModel(t)
	press(m, keyDown, keyEnter, keyRight, keyRight, keyRight, keyEnter)
	if m.Dragging() || m.Err != nil {
		t.Fatalf("dragging=%t err=%v", m.Dragging(), m.Err)
	}
	if got := m.Selected().XY(); got != geom.Pt(424, 300) {
		t.Errorf("dropped at %v, want (424, 300)", got)
	}
	if !strings.Contains(m.Status, "dropped say") {
		t.Errorf("status = %q", m.Status)
	}
	if err := m.env.Workspace.CheckIndex(); err != nil {
		t.Fatal(err)
	}
}

func TestDragModelToggles(t *testing.T) {
	m := newDemoModel(t)
	loop := m.Selected()

	press(m, runeKey("c"))
	if !loop.Collapsed() {
		t.Error("c should collapse the selection")
	}
	press(m, runeKey("d"))
	if !loop.Disabled() {
		t.Error("d should disable the selection")
	}
	if view := m.View(); !strings.Contains(view, "collapsed,disabled") {
		t.Errorf("view does not show the flags:\n%s", view)
	}

	press(m, runeKey("x"))
	if n := len(m.selectable()); n != 2 {
		t.Errorf("%d selectable blocks after delete, want 2", n)
	}
}

func TestDragModelQuit(t *testing.T) {
	m := newDemoModel(t)
	press(m, keyEnter)
	cmd := press(m, runeKey("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if m.Dragging() {
		t.Error("quitting should abort the drag")
	}
}

package measure

import (
	"errors"
	"testing"

	"github.com/matzehuels/snaplink/pkg/observability"
)

func newMeasurer(t *testing.T, hooks observability.MemoHooks) *Measurer {
	t.Helper()
	m, err := New(Options{FontSize: 12, Hooks: hooks})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestWidth(t *testing.T) {
	m := newMeasurer(t, nil)
	if w := m.Width(""); w != 0 {
		t.Errorf("Width(\"\") = %v", w)
	}
	narrow, wide := m.Width("iiii"), m.Width("MMMM")
	if narrow <= 0 || wide <= narrow {
		t.Errorf("Width(iiii)=%v Width(MMMM)=%v", narrow, wide)
	}
	if double := m.Width("MMMMMMMM"); double <= wide {
		t.Errorf("longer text should be wider: %v <= %v", double, wide)
	}
	if m.LineHeight() <= 0 {
		t.Errorf("LineHeight = %v", m.LineHeight())
	}
}

func TestBadFont(t *testing.T) {
	if _, err := New(Options{Font: []byte("not a font")}); err == nil {
		t.Error("expected a parse error")
	}
}

func TestScopeMemo(t *testing.T) {
	counters := observability.NewCounters()
	m := newMeasurer(t, counters)

	m.Width("abc")
	if counters.Get("memo.miss.width")+counters.Get("memo.hit.width") != 0 {
		t.Fatal("no memo outside a scope")
	}

	err := m.Run(func() error {
		first := m.Width("abc")
		m.Begin()
		second := m.Width("abc")
		if err := m.End(); err != nil {
			return err
		}
		if first != second {
			t.Errorf("memoised width %v != %v", second, first)
		}
		if !m.Active() {
			t.Error("outer scope should still be open")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if m.Active() {
		t.Error("scope should be closed after Run")
	}
	if got := counters.Get("memo.miss.width"); got != 1 {
		t.Errorf("misses = %d, want 1", got)
	}
	if got := counters.Get("memo.hit.width"); got != 1 {
		t.Errorf("hits = %d, want 1", got)
	}
}

func TestRunReleasesOnError(t *testing.T) {
	m := newMeasurer(t, nil)
	boom := errors.New("boom")
	if err := m.Run(func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Run error = %v", err)
	}
	if m.Active() {
		t.Error("failed Run must close its scope")
	}

	func() {
		defer func() { _ = recover() }()
		_ = m.Run(func() error { panic("layout bug") })
	}()
	if m.Active() {
		t.Error("panicking Run must close its scope")
	}
}

func TestUnbalancedEnd(t *testing.T) {
	m := newMeasurer(t, nil)
	if err := m.End(); !errors.Is(err, ErrUnbalanced) {
		t.Errorf("End error = %v", err)
	}

	err := m.Run(func() error { return m.End() })
	if !errors.Is(err, ErrUnbalanced) {
		t.Errorf("Run closing its own scope: error = %v, want ErrUnbalanced", err)
	}
	if m.Active() {
		t.Error("scope left open")
	}
}

package events

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func testRecorder(sinks ...Sink) *Recorder {
	r := NewRecorder(sinks...)
	n := 0
	r.newID = func() string {
		n++
		return fmt.Sprintf("e%d", n)
	}
	r.now = func() time.Time { return time.Unix(0, 0).UTC() }
	return r
}

func TestRecorderDisableNests(t *testing.T) {
	mem := NewMemory()
	r := testRecorder(mem)

	r.Disable()
	r.Disable()
	r.Fire(Event{Type: TypeCreate, BlockID: "a"})
	r.Enable()
	r.Fire(Event{Type: TypeCreate, BlockID: "b"})
	r.Enable()
	r.Fire(Event{Type: TypeCreate, BlockID: "c"})

	if err := r.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := mem.Events()
	if len(got) != 1 || got[0].BlockID != "c" {
		t.Fatalf("events = %v, want only c", got)
	}
	if got[0].ID != "e1" || got[0].Time.IsZero() {
		t.Errorf("id/time not filled: %+v", got[0])
	}
}

func TestRecorderGroups(t *testing.T) {
	r := testRecorder()
	g := r.BeginGroup()
	r.Fire(Event{Type: TypeMove, BlockID: "a"})
	r.SetGroup("")
	r.Fire(Event{Type: TypeMove, BlockID: "a"})

	pending := r.Pending()
	if pending[0].Group != g || pending[1].Group != "" {
		t.Errorf("groups = %q, %q", pending[0].Group, pending[1].Group)
	}
}

func TestRecordUndoFlag(t *testing.T) {
	r := NewRecorder()
	if !r.RecordUndo() {
		t.Fatal("record-undo should default on")
	}
	if old := r.SetRecordUndo(false); !old {
		t.Error("SetRecordUndo should return previous value")
	}
	if r.RecordUndo() {
		t.Error("record-undo still on")
	}
}

type failingSink struct {
	calls   int
	err     error
	written []Event
}

func (f *failingSink) Write(_ context.Context, events []Event) error {
	f.calls++
	if f.err == nil {
		f.written = append(f.written, events...)
	}
	return f.err
}

func (f *failingSink) Close() error { return nil }

func TestFlushJoinsErrorsAndDeliversToOthers(t *testing.T) {
	boom := errors.New("boom")
	bad := &failingSink{err: boom}
	mem := NewMemory()
	r := testRecorder(bad, mem)
	r.Fire(Event{Type: TypeDelete, BlockID: "a"})

	err := r.Flush(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Flush error = %v, want boom", err)
	}
	if bad.calls != 1 {
		t.Errorf("non-retryable error retried %d times", bad.calls)
	}
	if len(mem.Events()) != 1 {
		t.Error("healthy sink missed the batch")
	}
	if len(r.Pending()) != 0 {
		t.Error("queue not cleared")
	}
}

func TestFlushRetriesRetryable(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()

	bad := &failingSink{err: Retryable(errors.New("timeout"))}
	r := testRecorder(bad)
	r.Fire(Event{Type: TypeDelete, BlockID: "a"})

	if err := r.Flush(context.Background()); !IsRetryable(err) {
		t.Fatalf("Flush error = %v, want retryable", err)
	}
	if bad.calls != 3 {
		t.Errorf("calls = %d, want 3", bad.calls)
	}
	if r.Undelivered() != 1 {
		t.Errorf("Undelivered() = %d, want 1", r.Undelivered())
	}
}

func TestFlushRedeliversBacklog(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()

	bad := &failingSink{err: Retryable(errors.New("timeout"))}
	mem := NewMemory()
	r := testRecorder(bad, mem)
	r.Fire(Event{Type: TypeDelete, BlockID: "a"})
	if err := r.Flush(context.Background()); err == nil {
		t.Fatal("Flush should fail while the sink is down")
	}

	bad.err = nil
	r.Fire(Event{Type: TypeDelete, BlockID: "b"})
	if err := r.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := bad.written; len(got) != 2 || got[0].BlockID != "a" || got[1].BlockID != "b" {
		t.Errorf("recovered sink got %v, want a then b", got)
	}
	if len(mem.Events()) != 2 {
		t.Errorf("healthy sink got %d events, want 2", len(mem.Events()))
	}
	if r.Undelivered() != 0 {
		t.Errorf("Undelivered() = %d, want 0", r.Undelivered())
	}
	// Nothing new and nothing held back: no writes.
	calls := bad.calls
	if err := r.Flush(context.Background()); err != nil || bad.calls != calls {
		t.Errorf("empty Flush wrote again: err=%v calls=%d", err, bad.calls)
	}
}

func TestFileSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log", "events.jsonl")
	sink, err := NewFile(path)
	if err != nil {
		t.Fatal(err)
	}
	r := testRecorder(sink)
	r.Fire(Change("b1", ElementField, "NUM", "1", "2"))
	r.Fire(Event{Type: TypeConnect, BlockID: "b2", ParentID: "b1", InputName: "VALUE"})
	if err := r.Close(context.Background()); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].NewValue != "2" || got[1].ParentID != "b1" {
		t.Errorf("read back %+v", got)
	}
}

func TestEventString(t *testing.T) {
	tests := []struct {
		e    Event
		want string
	}{
		{Change("b", ElementField, "NUM", "1", "2"), `change b field.NUM "1" -> "2"`},
		{Event{Type: TypeConnect, BlockID: "c", ParentID: "p", InputName: "X"}, "connect c parent=p input=X"},
		{Event{Type: TypeBump, BlockID: "c", DX: 3, DY: -4}, "bump c by (3, -4)"},
		{Event{Type: TypeCreate, BlockID: "c"}, "create c"},
	}
	for _, tt := range tests {
		if got := tt.e.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

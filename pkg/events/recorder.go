package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sink receives batches of events from a Recorder.
type Sink interface {
	Write(ctx context.Context, events []Event) error
	Close() error
}

// Recorder queues events fired by the block model and delivers them to its
// sinks on Flush. Firing never blocks; only Flush performs I/O.
//
// Disable/Enable nest: events are recorded only while every Disable has been
// matched by an Enable. The record-undo flag is independent and only gates
// side effects that would otherwise pollute an undo history, such as
// respawning shadow blocks.
//
// A Recorder is not safe for concurrent use.
type Recorder struct {
	disabled   int
	recordUndo bool
	group      string
	queue      []Event
	sinks      []Sink
	// backlog[i] holds batches sinks[i] could not take after retrying.
	backlog [][]Event

	now   func() time.Time
	newID func() string
}

// NewRecorder creates an enabled recorder with record-undo on.
func NewRecorder(sinks ...Sink) *Recorder {
	return &Recorder{
		recordUndo: true,
		sinks:      sinks,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// AddSink attaches another sink.
func (r *Recorder) AddSink(s Sink) { r.sinks = append(r.sinks, s) }

// Enabled reports whether fired events are recorded.
func (r *Recorder) Enabled() bool { return r.disabled == 0 }

// Disable suspends recording until the matching Enable.
func (r *Recorder) Disable() { r.disabled++ }

// Enable resumes recording suspended by Disable.
func (r *Recorder) Enable() {
	if r.disabled > 0 {
		r.disabled--
	}
}

// RecordUndo reports the record-undo flag.
func (r *Recorder) RecordUndo() bool { return r.recordUndo }

// SetRecordUndo sets the record-undo flag and returns its previous value.
func (r *Recorder) SetRecordUndo(on bool) bool {
	old := r.recordUndo
	r.recordUndo = on
	return old
}

// Group returns the current event group.
func (r *Recorder) Group() string { return r.group }

// SetGroup tags subsequent events with group. An empty group clears it.
func (r *Recorder) SetGroup(group string) { r.group = group }

// BeginGroup starts a fresh group and returns its id.
func (r *Recorder) BeginGroup() string {
	r.group = r.newID()
	return r.group
}

// Fire records e if recording is enabled. ID, time and group are filled in
// when empty.
func (r *Recorder) Fire(e Event) {
	if r == nil || r.disabled > 0 {
		return
	}
	if e.ID == "" {
		e.ID = r.newID()
	}
	if e.Time.IsZero() {
		e.Time = r.now()
	}
	if e.Group == "" {
		e.Group = r.group
	}
	r.queue = append(r.queue, e)
}

// Pending returns a copy of the queued events.
func (r *Recorder) Pending() []Event {
	return append([]Event(nil), r.queue...)
}

// Flush delivers the queued events to every sink and clears the queue.
// Sinks reporting a Retryable error are retried with backoff; when the
// retries run out, that sink's batch is kept and sent ahead of the next
// one. Other errors drop the batch for that sink. Errors from individual
// sinks are joined; a failing sink does not stop delivery to the others.
func (r *Recorder) Flush(ctx context.Context) error {
	for len(r.backlog) < len(r.sinks) {
		r.backlog = append(r.backlog, nil)
	}
	fresh := r.queue
	r.queue = nil
	var errs []error
	for i, s := range r.sinks {
		batch := append(r.backlog[i], fresh...)
		if len(batch) == 0 {
			continue
		}
		err := withRetry(ctx, func() error { return s.Write(ctx, batch) })
		r.backlog[i] = nil
		if err != nil {
			if IsRetryable(err) {
				r.backlog[i] = batch
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Undelivered returns how many events are held back for sinks that have
// not accepted them yet.
func (r *Recorder) Undelivered() int {
	n := 0
	for _, b := range r.backlog {
		n += len(b)
	}
	return n
}

// Close flushes and closes every sink.
func (r *Recorder) Close(ctx context.Context) error {
	errs := []error{r.Flush(ctx)}
	for _, s := range r.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

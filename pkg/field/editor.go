package field

import (
	"fmt"

	"github.com/matzehuels/snaplink/pkg/errors"
)

// State is the position of an [Editor] in its lifecycle.
type State int

const (
	// StateIdle means no editor surface is open.
	StateIdle State = iota
	// StateEditing means an editor surface is open and accepting keystrokes.
	StateEditing
	// StateCommitted is reported by a Commit; the editor rests idle afterwards.
	StateCommitted
	// StateCancelled is reported by a Cancel; the editor rests idle afterwards.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEditing:
		return "editing"
	case StateCommitted:
		return "committed"
	case StateCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Command drives an Editor.
type Command interface{ command() }

// Open materializes the editor surface seeded with the current text.
type Open struct{}

// Keystroke replaces the editor's raw text. For dropdowns the text is the
// chosen option value.
type Keystroke struct{ Text string }

// Commit writes the final value back (blur or Enter).
type Commit struct{}

// Cancel restores the pre-edit value (Escape).
type Cancel struct{}

func (Open) command()      {}
func (Keystroke) command() {}
func (Commit) command()    {}
func (Cancel) command()    {}

// Effect is an instruction for the external editor surface.
type Effect interface{ effect() }

// ShowEditor asks the surface to open, seeded with Text.
type ShowEditor struct{ Text string }

// SetDisplay asks the surface to show Text, which may be a raw, not yet
// accepted value.
type SetDisplay struct{ Text string }

// MarkInvalid flags or unflags the input as invalid without discarding it.
type MarkInvalid struct{ Invalid bool }

// HideEditor asks the surface to close.
type HideEditor struct{}

func (ShowEditor) effect()  {}
func (SetDisplay) effect()  {}
func (MarkInvalid) effect() {}
func (HideEditor) effect()  {}

// Result is what a command produced: the state reached and the effects
// the surface must apply, in order.
type Result struct {
	State   State
	Effects []Effect
}

// Editor is the in-place editing state machine for one field:
//
//	idle -> editing -> (committed | cancelled) -> idle
//
// It owns no UI; callers translate effects onto whatever surface they have.
type Editor struct {
	field        *Field
	state        State
	defaultValue string
	raw          string
	invalid      bool
	edited       bool
}

// NewEditor creates an idle editor bound to f.
func NewEditor(f *Field) *Editor {
	return &Editor{field: f}
}

// Field returns the edited field.
func (e *Editor) Field() *Field { return e.field }

// State returns the resting state: idle or editing.
func (e *Editor) State() State { return e.state }

// Raw returns the text currently in the editor surface.
func (e *Editor) Raw() string { return e.raw }

// Invalid reports whether the current raw text failed validation.
func (e *Editor) Invalid() bool { return e.invalid }

// Apply runs cmd. Commands that make no sense in the current state return
// an INVALID_STATE error; opening a non-editable field returns
// NOT_EDITABLE.
func (e *Editor) Apply(cmd Command) (Result, error) {
	switch c := cmd.(type) {
	case Open:
		return e.open()
	case Keystroke:
		if e.state != StateEditing {
			return Result{State: e.state}, e.wrongState("keystroke")
		}
		return e.keystroke(c.Text), nil
	case Commit:
		if e.state != StateEditing {
			return Result{State: e.state}, e.wrongState("commit")
		}
		return e.commit(), nil
	case Cancel:
		if e.state != StateEditing {
			return Result{State: e.state}, e.wrongState("cancel")
		}
		return e.cancel(), nil
	}
	return Result{State: e.state}, errors.New(errors.ErrCodeUnsupported, "unknown editor command %T", cmd)
}

func (e *Editor) open() (Result, error) {
	if e.state == StateEditing {
		return Result{State: e.state}, e.wrongState("open")
	}
	if !e.field.IsEditable() {
		return Result{State: e.state}, errors.New(errors.ErrCodeNotEditable, "field %s is not editable", e.field.Name())
	}
	e.state = StateEditing
	e.defaultValue = e.field.Value()
	e.raw = e.field.Text()
	if e.field.kind == KindDropdown {
		// A dropdown surface selects option values, not labels.
		e.raw = e.field.Value()
	}
	e.invalid = false
	e.edited = false
	return Result{State: StateEditing, Effects: []Effect{ShowEditor{Text: e.raw}}}, nil
}

// keystroke validates the new raw text. Accepted values are applied live so
// the block re-flows while typing; rejected ones only flag the input.
func (e *Editor) keystroke(text string) Result {
	e.raw = text
	e.edited = true
	v, ok := e.field.Validate(text)
	e.invalid = !ok
	if ok {
		e.field.apply(v)
	}
	return Result{State: StateEditing, Effects: []Effect{SetDisplay{Text: text}, MarkInvalid{Invalid: !ok}}}
}

// commit stores the validated raw text. Without a keystroke since Open the
// stored value is left as it is.
func (e *Editor) commit() Result {
	if !e.edited {
		return e.close(StateCommitted)
	}
	v, ok := e.field.Validate(e.raw)
	if !ok {
		v = e.defaultValue
	}
	e.field.apply(v)
	return e.close(StateCommitted)
}

func (e *Editor) cancel() Result {
	e.field.apply(e.defaultValue)
	return e.close(StateCancelled)
}

func (e *Editor) close(reached State) Result {
	effects := []Effect{HideEditor{}, SetDisplay{Text: e.field.Text()}}
	if e.invalid {
		effects = append(effects, MarkInvalid{Invalid: false})
	}
	e.state = StateIdle
	e.raw = ""
	e.invalid = false
	e.edited = false
	return Result{State: reached, Effects: effects}
}

func (e *Editor) wrongState(cmd string) error {
	return errors.New(errors.ErrCodeInvalidState, "cannot %s field %s while %s", cmd, e.field.Name(), e.state)
}

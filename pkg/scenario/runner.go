package scenario

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/snaplink/pkg/blocks"
	"github.com/matzehuels/snaplink/pkg/errors"
	"github.com/matzehuels/snaplink/pkg/field"
	"github.com/matzehuels/snaplink/pkg/pipeline"
)

// epsilon is the tolerance for ExpectXY.
const epsilon = 1e-6

// Report is the outcome of a run.
type Report struct {
	Name  string
	Steps []StepResult
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index  int // 1-based
	Do     string
	Block  string
	Detail string

	// Err is the error the step returned, expected or not.
	Err error

	// Failure explains an unmet expectation or unexpected error. Empty
	// means the step passed.
	Failure string
}

// Passed reports whether the step met its expectations.
func (s StepResult) Passed() bool { return s.Failure == "" }

// Failed returns the steps that did not pass.
func (r *Report) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if !s.Passed() {
			out = append(out, s)
		}
	}
	return out
}

// Runner applies scenarios to an Env. Block aliases persist across Run
// calls, so scenarios can be applied one after another to one session.
type Runner struct {
	env   *pipeline.Env
	names map[string]*blocks.Block
}

// NewRunner creates a runner for env.
func NewRunner(env *pipeline.Env) *Runner {
	return &Runner{env: env, names: make(map[string]*blocks.Block)}
}

// Lookup returns the block behind a reference.
func (r *Runner) Lookup(ref string) (*blocks.Block, error) { return r.resolve(ref) }

// Alias returns the scenario name of b, or its id.
func (r *Runner) Alias(b *blocks.Block) string {
	for name, nb := range r.names {
		if nb == b {
			return name
		}
	}
	return b.ID()
}

// Run places the scenario's blocks and applies its steps. Unmet
// expectations are recorded in the report and do not stop the run. A
// programming error, or an index left inconsistent, aborts it.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	log := r.env.Logger
	rep := &Report{Name: sc.Name}

	for _, s := range sc.Blocks {
		if err := r.spawn(s); err != nil {
			return rep, err
		}
	}
	if err := r.env.Flush(ctx); err != nil {
		log.Warn("flush events", "err", err)
	}

	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		res := StepResult{Index: i + 1, Do: st.Do, Block: st.Block}
		err := r.env.Measurer.Run(func() error {
			var err error
			res.Detail, err = r.apply(st)
			return err
		})
		res.Err = err
		r.judge(st, &res)
		rep.Steps = append(rep.Steps, res)

		if res.Passed() {
			log.Debug("step", "n", res.Index, "do", st.Do, "block", st.Block, "detail", res.Detail)
		} else {
			log.Warn("step failed", "n", res.Index, "do", st.Do, "block", st.Block, "reason", res.Failure)
		}
		if errors.IsProgrammingError(err) {
			return rep, err
		}
		if cerr := r.env.Workspace.CheckIndex(); cerr != nil {
			return rep, fmt.Errorf("after step %d: %w", res.Index, cerr)
		}
		if err := r.env.Flush(ctx); err != nil {
			log.Warn("flush events", "err", err)
		}
	}
	return rep, nil
}

func (r *Runner) spawn(s Spawn) error {
	if _, taken := r.names[s.Name]; taken {
		return errors.New(errors.ErrCodeInvalidInput, "block name %q already used", s.Name)
	}
	b, err := r.env.Spawn(s.Type, s.X, s.Y)
	if err != nil {
		return fmt.Errorf("spawn %s: %w", s.Name, err)
	}
	for _, name := range slices.Sorted(maps.Keys(s.Fields)) {
		if err := b.SetFieldValue(name, s.Fields[name]); err != nil {
			return fmt.Errorf("spawn %s: %w", s.Name, err)
		}
	}
	r.names[s.Name] = b
	return nil
}

func (r *Runner) apply(st Step) (string, error) {
	if st.Do == ActionSpawn {
		if err := r.spawn(*st.Spawn); err != nil {
			return "", err
		}
		return fmt.Sprintf("spawned %s", st.Spawn.Type), nil
	}

	b, err := r.resolve(st.Block)
	if err != nil {
		return "", err
	}
	switch st.Do {
	case ActionDrag:
		return r.drag(b, st)
	case ActionConnect:
		return r.connect(b, st)
	case ActionUnplug:
		return "unplugged", b.Unplug(st.Heal)
	case ActionMove:
		return fmt.Sprintf("moved by (%g, %g)", st.DX, st.DY), b.MoveBy(st.DX, st.DY)
	case ActionSet:
		err := b.SetFieldValue(st.Field, st.Value)
		return fmt.Sprintf("%s = %q", st.Field, fieldValue(b, st.Field)), err
	case ActionEdit:
		return r.edit(b, st)
	case ActionCollapse, ActionExpand:
		return fmt.Sprintf("collapsed=%t", st.Do == ActionCollapse), b.SetCollapsed(st.Do == ActionCollapse)
	case ActionDisable, ActionEnable:
		return fmt.Sprintf("disabled=%t", st.Do == ActionDisable), b.SetDisabled(st.Do == ActionDisable)
	case ActionDispose:
		if err := b.Dispose(st.Heal); err != nil {
			return "", err
		}
		r.forgetDisposed()
		return "disposed", nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "action %q", st.Do)
}

// drag simulates a gesture: start, one intermediate move, drop.
func (r *Runner) drag(b *blocks.Block, st Step) (string, error) {
	d, err := r.env.Workspace.StartDrag(b, st.Heal)
	if err != nil {
		return "", err
	}
	d.Move(st.DX/2, st.DY/2)
	cand, ok, err := d.End(st.DX, st.DY)
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("dropped at %s", b.XY()), nil
	}
	return fmt.Sprintf("connected %s to %s (distance %.1f)", cand.Local, cand.Target, cand.Distance), nil
}

func (r *Runner) connect(parent *blocks.Block, st Step) (string, error) {
	child, err := r.resolve(st.Target)
	if err != nil {
		return "", err
	}
	var (
		slot *blocks.Connection
		plug *blocks.Connection
	)
	if st.Input == "next" {
		slot, plug = parent.Next(), child.Previous()
	} else if in := parent.Input(st.Input); in != nil {
		slot = in.Connection()
		if in.Kind() == blocks.InputKindStatement {
			plug = child.Previous()
		} else {
			plug = child.Output()
		}
	}
	if slot == nil {
		return "", errors.New(errors.ErrCodeNotFound, "block %s has no connection %q", st.Block, st.Input)
	}
	if plug == nil {
		return "", errors.New(errors.ErrCodeInvalidInput, "block %s cannot plug into %s", st.Target, st.Input)
	}
	if err := slot.Connect(plug); err != nil {
		return "", err
	}
	return fmt.Sprintf("connected %s.%s", st.Block, st.Input), nil
}

// edit drives the field editor: open, one keystroke per entry, then
// commit or cancel.
func (r *Runner) edit(b *blocks.Block, st Step) (string, error) {
	f := b.Field(st.Field)
	if f == nil {
		return "", errors.New(errors.ErrCodeNotFound, "block %s has no field %q", st.Block, st.Field)
	}
	ed := field.NewEditor(f)
	if _, err := ed.Apply(field.Open{}); err != nil {
		return "", err
	}
	for _, k := range st.Keys {
		if _, err := ed.Apply(field.Keystroke{Text: k}); err != nil {
			return "", err
		}
	}
	var end field.Command = field.Commit{}
	if st.Cancel {
		end = field.Cancel{}
	}
	res, err := ed.Apply(end)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s = %q", res.State, st.Field, f.Value()), nil
}

func (r *Runner) judge(st Step, res *StepResult) {
	if st.ExpectError != "" {
		switch {
		case res.Err == nil:
			res.Failure = fmt.Sprintf("expected error %s, step succeeded", st.ExpectError)
		case errors.GetCode(res.Err) != errors.Code(st.ExpectError):
			res.Failure = fmt.Sprintf("expected error %s, got %v", st.ExpectError, res.Err)
		}
		return
	}
	if res.Err != nil {
		res.Failure = res.Err.Error()
		return
	}
	if st.Do == ActionDispose {
		return
	}
	ref := st.Block
	switch st.Do {
	case ActionSpawn:
		ref = st.Spawn.Name
	case ActionConnect:
		ref = st.Target
	}
	b, err := r.resolve(ref)
	if err != nil {
		res.Failure = fmt.Sprintf("after step: %v", err)
		return
	}
	if st.Expect != "" {
		if msg := r.checkParent(b, st.Expect); msg != "" {
			res.Failure = msg
			return
		}
	}
	if st.ExpectXY != nil {
		want := st.ExpectXY
		if got := b.XY(); math.Abs(got.X-want[0]) > epsilon || math.Abs(got.Y-want[1]) > epsilon {
			res.Failure = fmt.Sprintf("position %s, want (%g, %g)", got, want[0], want[1])
			return
		}
	}
	if st.ExpectValue != nil {
		if got := fieldValue(b, st.Field); got != *st.ExpectValue {
			res.Failure = fmt.Sprintf("field %s = %q, want %q", st.Field, got, *st.ExpectValue)
		}
	}
}

// checkParent compares where b hangs with an expect string.
func (r *Runner) checkParent(b *blocks.Block, expect string) string {
	got := r.Where(b)
	if expect == Detached {
		if got != Detached {
			return fmt.Sprintf("attached to %s, want detached", got)
		}
		return ""
	}
	i := strings.LastIndex(expect, ".")
	if i <= 0 {
		return fmt.Sprintf("bad expect %q: want <block>.<input> or %q", expect, Detached)
	}
	parent, err := r.resolve(expect[:i])
	if err != nil {
		return fmt.Sprintf("expect %q: %v", expect, err)
	}
	if b.Parent() != parent || slotName(b) != expect[i+1:] {
		return fmt.Sprintf("attached to %s, want %s", got, expect)
	}
	return ""
}

// Where describes b's attachment as "<parent>.<input>", "<parent>.next"
// or "none".
func (r *Runner) Where(b *blocks.Block) string {
	if b.Parent() == nil {
		return Detached
	}
	return r.Alias(b.Parent()) + "." + slotName(b)
}

func slotName(b *blocks.Block) string {
	plug := b.Output()
	if plug == nil {
		plug = b.Previous()
	}
	if plug == nil || plug.Target() == nil {
		return ""
	}
	if in := plug.Target().Input(); in != nil {
		return in.Name()
	}
	return "next"
}

func (r *Runner) resolve(ref string) (*blocks.Block, error) {
	segs := strings.Split(ref, "/")
	b, ok := r.names[segs[0]]
	if !ok {
		if b, ok = r.env.Workspace.Block(segs[0]); !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "no block %q", segs[0])
		}
	}
	for _, seg := range segs[1:] {
		var next *blocks.Block
		if seg == "next" {
			if c := b.Next(); c != nil {
				next = c.TargetBlock()
			}
		} else if in := b.Input(seg); in != nil && in.Connection() != nil {
			next = in.Connection().TargetBlock()
		}
		if next == nil {
			return nil, errors.New(errors.ErrCodeNotFound, "%s: nothing at %q", ref, seg)
		}
		b = next
	}
	return b, nil
}

func (r *Runner) forgetDisposed() {
	for name, b := range r.names {
		if b.Disposed() {
			delete(r.names, name)
		}
	}
}

func fieldValue(b *blocks.Block, name string) string {
	if f := b.Field(name); f != nil {
		return f.Value()
	}
	return ""
}

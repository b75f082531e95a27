package script

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dop251/goja"

	"github.com/matzehuels/snaplink/pkg/field"
)

// DefaultTimeout bounds a single validator call.
const DefaultTimeout = 100 * time.Millisecond

// Options configure an Engine.
type Options struct {
	// Timeout interrupts a validator that runs too long. The call is then
	// treated as a rejection. Zero means DefaultTimeout; negative disables.
	Timeout time.Duration

	// Logger receives script failures. Defaults to log.Default().
	Logger *log.Logger
}

// Engine compiles validator scripts into field validators. All validators
// from one Engine share a single goja runtime, so an Engine and the fields
// using its validators must stay on one goroutine.
type Engine struct {
	vm      *goja.Runtime
	timeout time.Duration
	log     *log.Logger
}

// New creates an engine with a fresh runtime.
func New(opts Options) *Engine {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Engine{vm: goja.New(), timeout: opts.Timeout, log: opts.Logger}
}

// Compile turns src, a JavaScript function expression taking the
// class-validated text, into a Validator. The function's result decides:
//
//	null       reject
//	undefined  accept the text unchanged
//	otherwise  accept, storing the result converted to a string
//
// A thrown exception or a timeout rejects.
func (e *Engine) Compile(name, src string) (field.Validator, error) {
	prog, err := goja.Compile(name, "("+src+")", true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompile, name, err)
	}
	v, err := e.vm.RunProgram(prog)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompile, name, err)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFunction, name)
	}
	return func(text string) (string, bool) {
		out, err := e.call(fn, text)
		if err != nil {
			e.log.Warn("validator failed", "script", name, "err", err)
			return "", false
		}
		switch {
		case goja.IsNull(out):
			return "", false
		case goja.IsUndefined(out):
			return text, true
		}
		return out.String(), true
	}, nil
}

func (e *Engine) call(fn goja.Callable, text string) (goja.Value, error) {
	if e.timeout > 0 {
		timer := time.AfterFunc(e.timeout, func() { e.vm.Interrupt(ErrTimeout) })
		defer func() {
			timer.Stop()
			e.vm.ClearInterrupt()
		}()
	}
	return fn(goja.Undefined(), e.vm.ToValue(text))
}

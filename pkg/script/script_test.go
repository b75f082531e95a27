package script

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/snaplink/pkg/field"
)

func newEngine(timeout time.Duration) *Engine {
	return New(Options{Timeout: timeout, Logger: log.New(io.Discard)})
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		input  string
		want   string
		wantOK bool
	}{
		{"null rejects", "function(t) { return null }", "abc", "", false},
		{"undefined keeps", "function(t) {}", "abc", "abc", true},
		{"string rewrites", "function(t) { return t.toUpperCase() }", "abc", "ABC", true},
		{"number result is stringified", "function(t) { return t.length }", "abcd", "4", true},
		{"conditional", "function(t) { return t.length > 3 ? null : t }", "abcd", "", false},
		{"throw rejects", "function(t) { throw new Error('no') }", "abc", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := newEngine(0).Compile(tt.name, tt.src)
			if err != nil {
				t.Fatal(err)
			}
			got, ok := v(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("validator(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	e := newEngine(0)
	if _, err := e.Compile("syntax", "function(t) {"); !errors.Is(err, ErrCompile) {
		t.Errorf("syntax error = %v, want ErrCompile", err)
	}
	if _, err := e.Compile("value", "42"); !errors.Is(err, ErrNotFunction) {
		t.Errorf("non-function error = %v, want ErrNotFunction", err)
	}
}

func TestTimeoutRejects(t *testing.T) {
	e := newEngine(20 * time.Millisecond)
	v, err := e.Compile("spin", "function(t) { for (;;) {} }")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := v("x"); ok {
		t.Error("a validator that never returns should reject")
	}

	// The runtime stays usable after an interrupt.
	echo, err := e.Compile("echo", "function(t) { return t }")
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := echo("y"); !ok || got != "y" {
		t.Errorf("echo = (%q, %v)", got, ok)
	}
}

func TestValidatorRunsAfterClassCheck(t *testing.T) {
	v, err := newEngine(0).Compile("even", "function(t) { return Number(t) % 2 === 0 ? undefined : null }")
	if err != nil {
		t.Fatal(err)
	}
	f := field.NewNumber("N", "0", 0, 100, 1)
	f.SetValidator(v)

	if err := f.SetValue("1,0"); err != nil {
		t.Fatalf("SetValue(1,0) = %v", err)
	}
	if f.Value() != "10" {
		t.Errorf("Value = %q, want 10", f.Value())
	}
	if err := f.SetValue("7"); err == nil {
		t.Error("odd numbers should be rejected")
	}
	if f.Value() != "10" {
		t.Errorf("rejected value changed field to %q", f.Value())
	}
}

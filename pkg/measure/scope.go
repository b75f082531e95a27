package measure

import "errors"

// ErrUnbalanced is returned by End without a matching Begin.
var ErrUnbalanced = errors.New("measure: End without Begin")

// Begin opens a memo scope. Scopes nest; the memo lives until the
// outermost scope ends.
func (m *Measurer) Begin() {
	if m.depth == 0 {
		m.memo = make(map[string]float64)
	}
	m.depth++
}

// End closes the innermost scope and drops the memo when none remain.
func (m *Measurer) End() error {
	if m.depth == 0 {
		return ErrUnbalanced
	}
	m.depth--
	if m.depth == 0 {
		m.memo = nil
	}
	return nil
}

// Active reports whether a scope is open.
func (m *Measurer) Active() bool { return m.depth > 0 }

// Run calls fn inside a scope. The scope is closed even if fn fails or
// panics. If fn succeeds but closed more scopes than it opened, Run
// returns ErrUnbalanced.
func (m *Measurer) Run(fn func() error) (err error) {
	m.Begin()
	defer func() {
		if endErr := m.End(); err == nil {
			err = endErr
		}
	}()
	return fn()
}

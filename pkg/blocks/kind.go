package blocks

import "fmt"

// Kind is the type of a connection point.
type Kind int

const (
	// Output is the value plug on the leading edge of a value block.
	Output Kind = iota
	// InputValue is a value socket owned by an input.
	InputValue
	// PreviousStatement is the notch on top of a statement block.
	PreviousStatement
	// NextStatement is the tab below a statement block, or the socket of a
	// statement input.
	NextStatement
)

// Kinds lists every connection kind in index order.
var Kinds = [...]Kind{Output, InputValue, PreviousStatement, NextStatement}

var kindNames = [...]string{
	Output:            "output",
	InputValue:        "input_value",
	PreviousStatement: "previous_statement",
	NextStatement:     "next_statement",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Opposite returns the kind k can attach to.
func (k Kind) Opposite() Kind {
	switch k {
	case Output:
		return InputValue
	case InputValue:
		return Output
	case PreviousStatement:
		return NextStatement
	default:
		return PreviousStatement
	}
}

// IsSuperior reports whether a connection of kind k is on the parent side
// of a link.
func (k Kind) IsSuperior() bool {
	return k == InputValue || k == NextStatement
}

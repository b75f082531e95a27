package field

import (
	"fmt"

	"github.com/matzehuels/snaplink/pkg/errors"
)

// Kind selects the variant-specific behaviour of a field.
type Kind int

const (
	// KindText is a free-form text input.
	KindText Kind = iota
	// KindNumber is a numeric input with optional bounds and precision.
	KindNumber
	// KindDropdown stores an option value and displays its label.
	KindDropdown
	// KindCheckbox stores "TRUE" or "FALSE".
	KindCheckbox
	// KindLabel is static, non-editable text.
	KindLabel
)

var kindNames = map[Kind]string{
	KindText:     "text",
	KindNumber:   "number",
	KindDropdown: "dropdown",
	KindCheckbox: "checkbox",
	KindLabel:    "label",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a definition keyword to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidDefinition, "unknown field kind %q", s)
}

// Validator inspects a proposed value and returns the value to store.
// Returning false rejects the value.
type Validator func(text string) (string, bool)

// Owner is notified after a field's stored value changes. Blocks implement
// it to emit change events and re-render.
type Owner interface {
	FieldChanged(f *Field, oldValue, newValue string)
}

// Editable is the capability shared by fields a user can change.
type Editable interface {
	Name() string
	Value() string
	Text() string
	IsEditable() bool
	SetValue(text string) error
}

// Field is a value slot on a block. Its value is only ever changed through
// the validation pipeline: [Field.SetValue] for programmatic changes and
// [Editor] for interactive ones.
type Field struct {
	name      string
	kind      Kind
	value     string
	text      string
	editable  bool
	validator Validator
	owner     Owner

	// Number
	min, max  float64
	precision float64

	// Dropdown
	options   []Option
	generator OptionsFunc
}

var _ Editable = (*Field)(nil)

func newField(name string, kind Kind, value string) *Field {
	f := &Field{name: name, kind: kind, editable: kind != KindLabel}
	f.value = value
	f.text = f.displayFor(value)
	return f
}

// NewText creates a text input field.
func NewText(name, value string) *Field { return newField(name, KindText, value) }

// NewLabel creates a static label.
func NewLabel(name, text string) *Field { return newField(name, KindLabel, text) }

// NewCheckbox creates a checkbox field.
func NewCheckbox(name string, checked bool) *Field {
	v := "FALSE"
	if checked {
		v = "TRUE"
	}
	return newField(name, KindCheckbox, v)
}

// Name returns the field name, unique within its block.
func (f *Field) Name() string { return f.name }

// Kind returns the field variant.
func (f *Field) Kind() Kind { return f.kind }

// Value returns the stored, language-neutral value.
func (f *Field) Value() string { return f.value }

// Text returns the human-readable display text for the stored value.
// Dropdown labels are looked up on every call since generated option
// lists may change between calls.
func (f *Field) Text() string {
	if f.kind == KindDropdown {
		return f.labelFor(f.value)
	}
	return f.text
}

// IsEditable reports whether an editor may be opened on this field.
func (f *Field) IsEditable() bool { return f.editable && f.kind != KindLabel }

// SetEditable toggles interactive editing. Labels are never editable.
func (f *Field) SetEditable(editable bool) { f.editable = editable }

// SetValidator installs the user-supplied validator, run after the
// variant's own check. Passing nil removes it.
func (f *Field) SetValidator(v Validator) { f.validator = v }

// SetOwner attaches the field to its block.
func (f *Field) SetOwner(o Owner) { f.owner = o }

// Owner returns the block the field belongs to, or nil.
func (f *Field) Owner() Owner { return f.owner }

// Validate runs the two-stage pipeline on text: the variant's class check,
// then the user validator on the class-validated result.
func (f *Field) Validate(text string) (string, bool) {
	v, ok := f.classValidate(text)
	if !ok {
		return "", false
	}
	if f.validator != nil {
		return f.validator(v)
	}
	return v, true
}

// SetValue validates text and stores the result. A rejection leaves the
// field untouched and returns a ValidationRejection.
func (f *Field) SetValue(text string) error {
	v, ok := f.Validate(text)
	if !ok {
		return errors.Rejected(f.name, text)
	}
	f.apply(v)
	return nil
}

// apply stores an already-validated value. It reports whether the value
// changed; unchanged values produce no notification.
func (f *Field) apply(value string) bool {
	if value == f.value {
		return false
	}
	old := f.value
	f.value = value
	f.text = f.displayFor(value)
	if f.owner != nil {
		f.owner.FieldChanged(f, old, value)
	}
	return true
}

func (f *Field) displayFor(value string) string {
	if f.kind == KindDropdown {
		return f.labelFor(value)
	}
	return value
}

func (f *Field) String() string { return fmt.Sprintf("%s(%s=%q)", f.kind, f.name, f.value) }

package field

// Option is one dropdown entry: a display label and the stored value.
type Option struct {
	Label string
	Value string
}

// OptionsFunc generates dropdown options at lookup time, for menus whose
// contents depend on workspace state (variable names, for instance).
type OptionsFunc func() []Option

// NewDropdown creates a dropdown over a static option list. The first
// option is selected.
func NewDropdown(name string, options []Option) *Field {
	f := &Field{name: name, kind: KindDropdown, editable: true, options: options}
	if len(options) > 0 {
		f.value = options[0].Value
	}
	f.text = f.labelFor(f.value)
	return f
}

// NewDynamicDropdown creates a dropdown whose options come from gen.
func NewDynamicDropdown(name string, gen OptionsFunc) *Field {
	f := &Field{name: name, kind: KindDropdown, editable: true, generator: gen}
	if opts := f.Options(); len(opts) > 0 {
		f.value = opts[0].Value
	}
	f.text = f.labelFor(f.value)
	return f
}

// Options returns the current option list. Non-dropdown fields have none.
func (f *Field) Options() []Option {
	if f.generator != nil {
		return f.generator()
	}
	return f.options
}

// labelFor finds the label of value; unknown values display verbatim.
func (f *Field) labelFor(value string) string {
	for _, o := range f.Options() {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

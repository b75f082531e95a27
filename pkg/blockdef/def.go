package blockdef

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/snaplink/pkg/blocks"
	"github.com/matzehuels/snaplink/pkg/errors"
	"github.com/matzehuels/snaplink/pkg/field"
)

// File is the top level of a definitions document.
type File struct {
	Blocks []Definition `toml:"block"`
}

// Definition describes one block type.
type Definition struct {
	Type     string         `toml:"type"`
	Tooltip  string         `toml:"tooltip"`
	Output   *ConnectionDef `toml:"output"`
	Previous *ConnectionDef `toml:"previous"`
	Next     *ConnectionDef `toml:"next"`
	Inputs   []InputDef     `toml:"input"`

	// Movable and Deletable default to true.
	Movable   *bool `toml:"movable"`
	Deletable *bool `toml:"deletable"`
}

// ConnectionDef declares a connection and its type check. An empty check
// accepts any type.
type ConnectionDef struct {
	Check []string `toml:"check"`
}

// InputDef declares one input row.
type InputDef struct {
	Name   string     `toml:"name"`
	Kind   string     `toml:"kind"`
	Check  []string   `toml:"check"`
	Shadow *ShadowDef `toml:"shadow"`
	Fields []FieldDef `toml:"field"`
}

// ShadowDef names the default block that fills an empty input.
type ShadowDef struct {
	Type   string            `toml:"type"`
	Fields map[string]string `toml:"fields"`
}

// FieldDef declares a field. Min and Max only apply to number fields and
// default to an unbounded range; Options only apply to dropdowns.
type FieldDef struct {
	Name      string      `toml:"name"`
	Kind      string      `toml:"kind"`
	Value     string      `toml:"value"`
	Min       *float64    `toml:"min"`
	Max       *float64    `toml:"max"`
	Precision float64     `toml:"precision"`
	Options   []OptionDef `toml:"options"`
	Validator string      `toml:"validator"`
	Editable  *bool       `toml:"editable"`
}

// OptionDef is one dropdown entry.
type OptionDef struct {
	Label string `toml:"label"`
	Value string `toml:"value"`
}

// Parse decodes a definitions document. Unknown keys are rejected so that
// typos do not silently drop connections or fields.
func Parse(data []byte) ([]Definition, error) {
	var f File
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "parse block definitions")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidDefinition, "unknown definition keys: %s", strings.Join(keys, ", "))
	}
	return f.Blocks, nil
}

// ParseFile reads and decodes a definitions file.
func ParseFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (in InputDef) kind() (blocks.InputKind, error) {
	if in.Kind == "" && in.Name != "" {
		return blocks.InputKindValue, nil
	}
	return blocks.ParseInputKind(in.Kind)
}

func (fd FieldDef) kind() (field.Kind, error) {
	if fd.Kind == "" {
		return field.KindText, nil
	}
	return field.ParseKind(fd.Kind)
}

// validate checks d without building it. Validator scripts are compiled
// separately by the registry.
func (d *Definition) validate() error {
	if err := errors.ValidateName("block type", d.Type); err != nil {
		return err
	}
	if d.Output != nil && d.Previous != nil {
		return errors.New(errors.ErrCodeInvalidDefinition, "%s: a block cannot have both output and previous connections", d.Type)
	}
	for _, c := range []*ConnectionDef{d.Output, d.Previous, d.Next} {
		if c == nil {
			continue
		}
		if err := errors.ValidateCheck(c.Check); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDefinition, err, "%s", d.Type)
		}
	}

	inputs := make(map[string]bool)
	fields := make(map[string]bool)
	for i, in := range d.Inputs {
		kind, err := in.kind()
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDefinition, err, "%s: input %d", d.Type, i)
		}
		if kind != blocks.InputKindDummy || in.Name != "" {
			if err := errors.ValidateName("input", in.Name); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidDefinition, err, "%s: input %d", d.Type, i)
			}
			if inputs[in.Name] {
				return errors.New(errors.ErrCodeInvalidDefinition, "%s: duplicate input %q", d.Type, in.Name)
			}
			inputs[in.Name] = true
		}
		if kind == blocks.InputKindDummy && (len(in.Check) > 0 || in.Shadow != nil) {
			return errors.New(errors.ErrCodeInvalidDefinition, "%s: dummy input %q has no connection to check or fill", d.Type, in.Name)
		}
		if err := errors.ValidateCheck(in.Check); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDefinition, err, "%s: input %q", d.Type, in.Name)
		}
		if in.Shadow != nil {
			if err := errors.ValidateName("shadow type", in.Shadow.Type); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidDefinition, err, "%s: input %q", d.Type, in.Name)
			}
		}
		for _, fd := range in.Fields {
			k, err := fd.kind()
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidDefinition, err, "%s: field %q", d.Type, fd.Name)
			}
			if fd.Name == "" {
				if k != field.KindLabel {
					return errors.New(errors.ErrCodeInvalidDefinition, "%s: only labels may be unnamed", d.Type)
				}
				continue
			}
			if fields[fd.Name] {
				return errors.New(errors.ErrCodeInvalidDefinition, "%s: duplicate field %q", d.Type, fd.Name)
			}
			fields[fd.Name] = true
			if k == field.KindDropdown && len(fd.Options) == 0 {
				return errors.New(errors.ErrCodeInvalidDefinition, "%s: dropdown %q has no options", d.Type, fd.Name)
			}
		}
	}
	return nil
}

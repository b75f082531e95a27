package blockdef

import (
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/snaplink/pkg/blocks"
	"github.com/matzehuels/snaplink/pkg/errors"
	"github.com/matzehuels/snaplink/pkg/field"
	"github.com/matzehuels/snaplink/pkg/script"
)

// maxShadowDepth stops definitions whose shadows contain themselves.
const maxShadowDepth = 8

// Registry holds block definitions and builds blocks from them. It also
// serves as the workspace's shadow factory.
type Registry struct {
	defs       map[string]*Definition
	depth      int
	order      []string
	scripts    *script.Engine
	validators map[string]field.Validator
}

var _ blocks.ShadowFactory = (*Registry)(nil)

// NewRegistry creates an empty registry. Definitions with validator
// scripts need a script engine; engine may be nil otherwise.
func NewRegistry(engine *script.Engine) *Registry {
	return &Registry{
		defs:       make(map[string]*Definition),
		scripts:    engine,
		validators: make(map[string]field.Validator),
	}
}

// Register validates d, compiles its validator scripts and adds it.
func (r *Registry) Register(d Definition) error {
	if err := d.validate(); err != nil {
		return err
	}
	if _, ok := r.defs[d.Type]; ok {
		return errors.New(errors.ErrCodeInvalidDefinition, "block type %q is already defined", d.Type)
	}
	compiled := make(map[string]field.Validator)
	for _, in := range d.Inputs {
		for _, fd := range in.Fields {
			if fd.Validator == "" {
				continue
			}
			if r.scripts == nil {
				return errors.New(errors.ErrCodeInvalidDefinition, "%s: field %q has a validator but no script engine is configured", d.Type, fd.Name)
			}
			v, err := r.scripts.Compile(d.Type+"."+fd.Name, fd.Validator)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidDefinition, err, "%s: field %q", d.Type, fd.Name)
			}
			compiled[validatorKey(d.Type, fd.Name)] = v
		}
	}
	for k, v := range compiled {
		r.validators[k] = v
	}
	def := d
	r.defs[d.Type] = &def
	r.order = append(r.order, d.Type)
	return nil
}

// Load parses data and registers every definition in it.
func (r *Registry) Load(data []byte) error {
	defs, err := Parse(data)
	if err != nil {
		return err
	}
	return r.registerAll(defs)
}

// LoadFile parses the file at path and registers every definition in it.
func (r *Registry) LoadFile(path string) error {
	defs, err := ParseFile(path)
	if err != nil {
		return err
	}
	return r.registerAll(defs)
}

func (r *Registry) registerAll(defs []Definition) error {
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the definition of typ.
func (r *Registry) Lookup(typ string) (*Definition, bool) {
	d, ok := r.defs[typ]
	return d, ok
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []string { return slices.Clone(r.order) }

// New creates an unrendered top-level block of type typ in ws. Inputs
// with a shadow template are filled straight away, so ws should use r
// (or a compatible factory) for shadows; New installs r when ws has none.
func (r *Registry) New(ws *blocks.Workspace, typ string) (*blocks.Block, error) {
	def, ok := r.defs[typ]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownBlockType, "unknown block type %q", typ)
	}
	if ws.Options().Shadows == nil {
		ws.SetShadowFactory(r)
	}
	b, err := ws.NewBlock(typ)
	if err != nil {
		return nil, err
	}
	if err := r.build(b, def); err != nil {
		if derr := b.Dispose(false); derr != nil {
			ws.Logger().Error("dispose partial block", "block", b, "err", derr)
		}
		return nil, err
	}
	return b, nil
}

func (r *Registry) build(b *blocks.Block, def *Definition) error {
	if def.Output != nil {
		if err := b.SetOutput(def.Output.Check...); err != nil {
			return err
		}
	}
	if def.Previous != nil {
		if err := b.SetPrevious(def.Previous.Check...); err != nil {
			return err
		}
	}
	if def.Next != nil {
		if err := b.SetNext(def.Next.Check...); err != nil {
			return err
		}
	}
	if def.Movable != nil {
		b.SetMovable(*def.Movable)
	}
	if def.Deletable != nil {
		b.SetDeletable(*def.Deletable)
	}

	for _, idef := range def.Inputs {
		kind, err := idef.kind()
		if err != nil {
			return err
		}
		in, err := b.AppendInput(kind, idef.Name)
		if err != nil {
			return err
		}
		for _, fd := range idef.Fields {
			f, err := r.newField(def.Type, fd)
			if err != nil {
				return err
			}
			if err := in.AppendField(f); err != nil {
				return err
			}
		}
		if c := in.Connection(); c != nil && len(idef.Check) > 0 {
			if err := c.SetCheck(idef.Check...); err != nil {
				return err
			}
		}
	}

	// Shadows go in once every check is in place.
	for _, idef := range def.Inputs {
		if idef.Shadow == nil {
			continue
		}
		t := &blocks.ShadowTemplate{Type: idef.Shadow.Type, Fields: idef.Shadow.Fields}
		if err := b.Input(idef.Name).Connection().SetShadow(t); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) newField(typ string, fd FieldDef) (*field.Field, error) {
	kind, err := fd.kind()
	if err != nil {
		return nil, err
	}
	var f *field.Field
	switch kind {
	case field.KindText:
		f = field.NewText(fd.Name, fd.Value)
	case field.KindLabel:
		f = field.NewLabel(fd.Name, fd.Value)
	case field.KindCheckbox:
		f = field.NewCheckbox(fd.Name, strings.EqualFold(fd.Value, "TRUE"))
	case field.KindNumber:
		lo, hi := math.Inf(-1), math.Inf(1)
		if fd.Min != nil {
			lo = *fd.Min
		}
		if fd.Max != nil {
			hi = *fd.Max
		}
		value := fd.Value
		if value == "" {
			value = "0"
		}
		f = field.NewNumber(fd.Name, value, lo, hi, fd.Precision)
	case field.KindDropdown:
		opts := make([]field.Option, len(fd.Options))
		for i, o := range fd.Options {
			opts[i] = field.Option{Label: o.Label, Value: o.Value}
		}
		f = field.NewDropdown(fd.Name, opts)
		if fd.Value != "" {
			if err := f.SetValue(fd.Value); err != nil {
				return nil, err
			}
		}
	}
	if fd.Editable != nil {
		f.SetEditable(*fd.Editable)
	}
	if v, ok := r.validators[validatorKey(typ, fd.Name)]; ok {
		f.SetValidator(v)
	}
	return f, nil
}

// NewShadow implements blocks.ShadowFactory: it builds a block of the
// template's type, marks it as a shadow and applies the template's field
// values.
func (r *Registry) NewShadow(ws *blocks.Workspace, t blocks.ShadowTemplate) (*blocks.Block, error) {
	if r.depth >= maxShadowDepth {
		return nil, errors.New(errors.ErrCodeInvalidDefinition, "shadow %q nests deeper than %d levels", t.Type, maxShadowDepth)
	}
	r.depth++
	defer func() { r.depth-- }()

	b, err := r.New(ws, t.Type)
	if err != nil {
		return nil, err
	}
	if err := b.SetShadow(true); err != nil {
		return nil, err
	}
	for _, name := range slices.Sorted(maps.Keys(t.Fields)) {
		if err := b.SetFieldValue(name, t.Fields[name]); err != nil {
			if derr := b.Dispose(false); derr != nil {
				ws.Logger().Error("dispose partial shadow", "block", b, "err", derr)
			}
			return nil, err
		}
	}
	return b, nil
}

func validatorKey(typ, name string) string { return typ + "\x00" + name }

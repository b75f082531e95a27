package scenario

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/snaplink/pkg/errors"
)

// Step actions.
const (
	ActionSpawn    = "spawn"
	ActionDrag     = "drag"
	ActionConnect  = "connect"
	ActionUnplug   = "unplug"
	ActionMove     = "move"
	ActionSet      = "set"
	ActionEdit     = "edit"
	ActionCollapse = "collapse"
	ActionExpand   = "expand"
	ActionDisable  = "disable"
	ActionEnable   = "enable"
	ActionDispose  = "dispose"
)

var actions = map[string]bool{
	ActionSpawn: true, ActionDrag: true, ActionConnect: true, ActionUnplug: true,
	ActionMove: true, ActionSet: true, ActionEdit: true, ActionCollapse: true,
	ActionExpand: true, ActionDisable: true, ActionEnable: true, ActionDispose: true,
}

// Detached is the Expect value for a block with no parent.
const Detached = "none"

// Scenario is a scripted editing session: blocks placed up front, then
// steps applied in order.
type Scenario struct {
	Name   string  `toml:"name"`
	Blocks []Spawn `toml:"block"`
	Steps  []Step  `toml:"step"`
}

// Spawn places a block. Name is the alias steps refer to.
type Spawn struct {
	Name   string            `toml:"name"`
	Type   string            `toml:"type"`
	X      float64           `toml:"x"`
	Y      float64           `toml:"y"`
	Fields map[string]string `toml:"fields"`
}

// Step is one action. Block, Target and the block reference part of Input
// are references: an alias, optionally followed by "/INPUT" segments
// walking into children ("loop/TIMES" is the shadow in loop's TIMES
// input, "a/next" the block below a).
type Step struct {
	Do    string `toml:"do"`
	Block string `toml:"block"`

	// spawn
	Spawn *Spawn `toml:"spawn"`

	// drag, move
	DX   float64 `toml:"dx"`
	DY   float64 `toml:"dy"`
	Heal bool    `toml:"heal"`

	// connect: Input names the parent connection on Block ("next" for the
	// next connection); Target is the block plugged in.
	Input  string `toml:"input"`
	Target string `toml:"target"`

	// set, edit
	Field string   `toml:"field"`
	Value string   `toml:"value"`
	Keys  []string `toml:"keys"`
	// Cancel ends an edit with Cancel instead of Commit.
	Cancel bool `toml:"cancel"`

	// Expect is "<ref>.<INPUT>", "<ref>.next" or "none": where the step's
	// subject must hang afterwards. The subject is Block, except for
	// connect (Target) and spawn (the new block).
	Expect string `toml:"expect"`
	// ExpectXY is the subject's position after the step.
	ExpectXY []float64 `toml:"expect_xy"`
	// ExpectValue is the subject's Field value after the step.
	ExpectValue *string `toml:"expect_value"`
	// ExpectError is the error code the step must fail with.
	ExpectError string `toml:"expect_error"`
}

// Parse decodes a scenario. Unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	md, err := toml.Decode(string(data), &sc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse scenario")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidInput, "scenario: unknown keys %s", strings.Join(keys, ", "))
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// ParseFile reads and decodes a scenario file.
func ParseFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read scenario")
	}
	return Parse(data)
}

// Validate checks the scenario's shape. Whether references resolve is
// only known while running.
func (sc *Scenario) Validate() error {
	names := make(map[string]bool)
	check := func(s Spawn, where string) error {
		if err := errors.ValidateName(where, s.Name); err != nil {
			return err
		}
		if names[s.Name] {
			return errors.New(errors.ErrCodeInvalidInput, "%s: duplicate block name %q", where, s.Name)
		}
		names[s.Name] = true
		return errors.ValidateName(where+" type", s.Type)
	}
	for _, s := range sc.Blocks {
		if err := check(s, "block"); err != nil {
			return err
		}
	}
	for i, st := range sc.Steps {
		if !actions[st.Do] {
			return errors.New(errors.ErrCodeInvalidInput, "step %d: unknown action %q", i+1, st.Do)
		}
		switch st.Do {
		case ActionSpawn:
			if st.Spawn == nil {
				return errors.New(errors.ErrCodeInvalidInput, "step %d: spawn needs a [step.spawn] table", i+1)
			}
			if err := check(*st.Spawn, "step spawn"); err != nil {
				return err
			}
			continue
		case ActionConnect:
			if st.Input == "" || st.Target == "" {
				return errors.New(errors.ErrCodeInvalidInput, "step %d: connect needs input and target", i+1)
			}
		case ActionSet, ActionEdit:
			if st.Field == "" {
				return errors.New(errors.ErrCodeInvalidInput, "step %d: %s needs a field", i+1, st.Do)
			}
		}
		if st.Block == "" {
			return errors.New(errors.ErrCodeInvalidInput, "step %d: %s needs a block", i+1, st.Do)
		}
		if st.ExpectXY != nil && len(st.ExpectXY) != 2 {
			return errors.New(errors.ErrCodeInvalidInput, "step %d: expect_xy needs two numbers", i+1)
		}
	}
	return nil
}

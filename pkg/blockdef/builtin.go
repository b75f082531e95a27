package blockdef

import (
	_ "embed"

	"github.com/matzehuels/snaplink/pkg/script"
)

//go:embed builtin.toml
var builtinTOML []byte

// Builtin returns a registry preloaded with the built-in block library.
// engine compiles the library's validator scripts and must not be nil.
func Builtin(engine *script.Engine) (*Registry, error) {
	r := NewRegistry(engine)
	if err := r.Load(builtinTOML); err != nil {
		return nil, err
	}
	return r, nil
}

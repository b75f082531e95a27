// Package blockdef loads block types from TOML and builds blocks from
// them.
//
// # Definitions
//
// A definitions document is a list of [[block]] tables:
//
//	[[block]]
//	type = "controls_repeat_ext"
//	previous = {}
//	next = {}
//
//	  [[block.input]]
//	  name = "TIMES"
//	  check = ["Number"]
//	  shadow = { type = "math_number", fields = { NUM = "10" } }
//
//	  [[block.input]]
//	  name = "DO"
//	  kind = "statement"
//
// Connections (output, previous, next) are present when their table is,
// with an optional type check. Inputs default to kind "value" when named
// and "dummy" otherwise. Fields may be text, number, dropdown, checkbox or
// label; any field may carry a JavaScript validator (see package script).
//
// # Registry
//
// [Registry] validates and stores definitions. [Registry.New] builds an
// unrendered block in a workspace, filling inputs from their shadow
// templates, and [Registry.NewShadow] makes the registry usable as the
// workspace's [blocks.ShadowFactory].
//
// [Builtin] returns a registry with a small embedded library of common
// blocks.
package blockdef

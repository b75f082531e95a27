// Package scenario replays scripted editing sessions against a workspace.
//
// A scenario is a TOML file: blocks placed up front, then steps applied
// in order. Each step can state what it expects, so a scenario doubles as
// an end-to-end check of snapping, bumping and field validation:
//
//	name = "print inside a loop"
//
//	[[block]]
//	name = "loop"
//	type = "controls_repeat_ext"
//
//	[[block]]
//	name = "say"
//	type = "text_print"
//	x = 300
//	y = 200
//
//	[[step]]
//	do = "drag"
//	block = "say"
//	dx = -284
//	dy = -152
//	expect = "loop.DO"
//
// Blocks are referred to by name, or by id for blocks the scenario did not
// spawn. A reference may walk into children with "/": "loop/TIMES" is the
// number shadow in the loop's TIMES input.
//
// [Runner.Run] never stops at an unmet expectation; it records it in the
// [Report]. Programming errors and an inconsistent connection index abort
// the run.
package scenario

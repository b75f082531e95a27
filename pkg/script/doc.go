// Package script runs user-supplied field validators written in
// JavaScript.
//
// Block definitions may attach a validator to a field as a function
// expression:
//
//	validator = "function(text) { return text.length > 8 ? null : text.toUpperCase() }"
//
// [Engine.Compile] turns the source into a [field.Validator] that runs after
// the field's own class check. Returning null rejects the value, returning
// undefined keeps it, and any other result replaces it.
//
// Scripts run in an embedded [github.com/dop251/goja] runtime with no
// access to the host beyond the text argument.
package script

import "errors"

// Sentinel errors for script compilation and execution.
var (
	ErrCompile     = errors.New("script: compile failed")
	ErrNotFunction = errors.New("script: validator is not a function")
	ErrTimeout     = errors.New("script: validator timed out")
)

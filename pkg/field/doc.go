// Package field implements editable value slots on blocks.
//
// # Variants
//
// A [Field] is one of a fixed set of kinds ([KindText], [KindNumber],
// [KindDropdown], [KindCheckbox], [KindLabel]). Behaviour that differs per
// kind - the class validator and the display text - is selected by switching
// on the kind, not by embedding.
//
// # Validation pipeline
//
// Every proposed value passes two stages:
//
//  1. The class validator of the kind. Numbers are parsed, clamped and
//     rounded; checkboxes only accept TRUE/FALSE. A rejection stops here.
//  2. The optional user validator set with [Field.SetValidator], which sees
//     the class-validated value and may reject or rewrite it.
//
// Only a value that survives both stages is stored, and only a change
// notifies the [Owner] (the block), which re-renders and checks neighbours.
//
// # Editing
//
// [Editor] is an explicit state machine driven by [Open], [Keystroke],
// [Commit] and [Cancel]. Each command returns a [Result] listing the
// effects for an external editor surface:
//
//	ed := field.NewEditor(f)
//	ed.Apply(field.Open{})
//	ed.Apply(field.Keystroke{Text: "21"})
//	res, _ := ed.Apply(field.Commit{})
//	// res.State == field.StateCommitted
//
// A commit writes the validated raw text, or the pre-edit value when the
// text is invalid; with no keystroke since Open it leaves the value alone.
// A cancel always restores the pre-edit value. A dropdown editor works on
// option values, never on their labels.
package field

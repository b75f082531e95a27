// Package layout is a reference block renderer.
//
// [Renderer] implements blocks.Renderer with a simple row model: each input
// is one row of fields, value inputs end in a socket holding the child
// block, and statement inputs open an indented body below their row. The
// next connection sits under the last row. Text is measured with package
// measure, so wrapping a workspace render in [measure.Measurer.Run] lets
// repeated labels be measured once.
//
// The geometry is plain: enough to drive snapping, bumping and export.
package layout

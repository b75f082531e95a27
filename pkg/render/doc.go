// Package render draws a laid-out block workspace as a raster image.
//
// Blocks are drawn where the workspace renderer put them: a filled box per
// block, its field text, and a dot for every free connection. Children
// inside a collapsed block are not drawn.
//
//	png, err := render.PNG(ws, render.Options{Face: m.Face(), Scale: 2})
//
// Node-link diagrams of the same workspace live in the [nodelink]
// subpackage, and the geometry itself comes from [layout].
//
// [nodelink]: github.com/matzehuels/snaplink/pkg/render/nodelink
// [layout]: github.com/matzehuels/snaplink/pkg/render/layout
package render

// Package nodelink renders a block workspace as a node-link diagram.
//
// # Overview
//
// Every block becomes a box and every link an arrow from parent to child.
// Value and statement inputs label their edge with the input name; stack
// links are labelled "next". This is the quickest way to see what a drag
// sequence actually connected.
//
// # Usage
//
//	dot := nodelink.ToDOT(ws, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
//   - Detailed: node labels include field values, and top-level blocks
//     their workspace position
//
// # DOT Format
//
// The generated DOT uses top-to-bottom layout (rankdir=TB) with rounded
// box nodes. Shadow blocks are dashed and grey, disabled blocks have grey
// text and collapsed blocks a double outline. Nodes are emitted in block
// creation order so output is stable for a given workspace.
//
// # Dependencies
//
// [RenderSVG] uses [github.com/goccy/go-graphviz] for in-process rendering.
package nodelink

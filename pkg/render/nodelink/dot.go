package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/snaplink/pkg/blocks"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds field values and workspace positions to node labels.
	// When false, only the block type is shown.
	Detailed bool
}

// ToDOT converts the block forest of ws to Graphviz DOT format. Each block
// is a node; each link is an edge from parent to child labelled with the
// input name, or "next" for stack links.
//
// Shadow blocks are drawn dashed and grey, disabled blocks greyed out and
// collapsed blocks with a double outline.
func ToDOT(ws *blocks.Workspace, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=12];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	all := ws.Blocks()
	for _, b := range all {
		attrs := fmtAttrs(b, fmtLabel(b, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", b.ID(), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, b := range all {
		for _, c := range b.Connections(true) {
			if !c.IsSuperior() || !c.IsConnected() {
				continue
			}
			label := "next"
			if in := c.Input(); in != nil {
				label = in.Name()
			}
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", b.ID(), c.TargetBlock().ID(), label)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(b *blocks.Block, detailed bool) string {
	if !detailed {
		return b.Type()
	}
	parts := []string{b.Type()}
	for _, f := range b.Fields() {
		if f.Name() == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", f.Name(), f.Text()))
	}
	if b.Parent() == nil {
		parts = append(parts, fmt.Sprintf("at %s", b.XY()))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(b *blocks.Block, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case b.Shadow():
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	case b.EffectiveDisabled():
		attrs = append(attrs, "fillcolor=whitesmoke", "fontcolor=grey")
	}
	if b.Collapsed() {
		attrs = append(attrs, "peripheries=2")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing scales from
// the origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

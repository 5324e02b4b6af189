package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/tabledraw/pkg/layout"
	"github.com/matzehuels/tabledraw/pkg/table"
)

// Options configures node-link preview rendering.
type Options struct {
	// Detailed includes extra CSV columns in item labels.
	Detailed bool

	// LeftToRight lays the hierarchy out horizontally.
	LeftToRight bool
}

// ToDOT converts one header section to Graphviz DOT. Node ids are
// positional, so duplicate item names under different sub-headers stay
// distinct.
func ToDOT(s *table.Section, opts Options) string {
	rankdir := "TB"
	if opts.LeftToRight {
		rankdir = "LR"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  %q [label=%q, shape=box, style=\"filled,bold\", fillcolor=\"#dae8fc\"];\n", "h", s.Name)
	for gi, g := range s.Groups {
		sub := fmt.Sprintf("s%d", gi)
		fmt.Fprintf(&buf, "  %q [label=%q, style=filled, fillcolor=\"#e1d5e7\"];\n", sub, g.Name)
		for ii, it := range g.Items {
			id := fmt.Sprintf("s%d_i%d", gi, ii)
			fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%q];\n", id, fmtLabel(it, opts.Detailed), layout.StatusFill(it.Status))
		}
	}

	buf.WriteString("\n")
	for gi, g := range s.Groups {
		sub := fmt.Sprintf("s%d", gi)
		fmt.Fprintf(&buf, "  %q -> %q;\n", "h", sub)
		for ii := range g.Items {
			fmt.Fprintf(&buf, "  %q -> %q;\n", sub, fmt.Sprintf("s%d_i%d", gi, ii))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(it table.Item, detailed bool) string {
	if !detailed || len(it.Extra) == 0 {
		return it.Name
	}

	parts := make([]string, 0, len(it.Extra))
	for _, k := range slices.Sorted(maps.Keys(it.Extra)) {
		parts = append(parts, fmt.Sprintf("%s: %s", k, it.Extra[k]))
	}
	return it.Name + "\n" + strings.Join(parts, "\n")
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

// normalizeViewBox replaces Graphviz's pt-sized svg element with a
// unitless one whose viewBox starts at the origin.
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

// Package nodelink renders a header's hierarchy as a node-link diagram.
//
// # Overview
//
// This package produces Graphviz previews of one page: the header at the
// top, its sub-headers below it and each sub-header's items below that.
// Item boxes are filled with the same status colours the draw.io page uses.
//
// # Usage
//
//	dot := nodelink.ToDOT(section, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
//   - Detailed: item labels include the extra CSV columns
//   - LeftToRight: lay the hierarchy out horizontally (rankdir=LR)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink

// Package render holds renderers that draw a grouped table directly, as
// opposed to the draw.io document the pipeline produces.
//
// # Node-Link Previews
//
// The [nodelink] subpackage draws one header's hierarchy as a Graphviz
// diagram. The CLI uses it for `generate --preview` so a table can be checked
// without opening draw.io:
//
//	dot := nodelink.ToDOT(section, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [nodelink]: github.com/matzehuels/tabledraw/pkg/render/nodelink
package render

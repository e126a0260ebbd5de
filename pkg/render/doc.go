// Package render turns frame reports into images.
//
// # Overview
//
// The [nodelink] subpackage draws the scheduled picture graph with Graphviz:
// one rank per update pass, one fill color per surface. This package holds
// the format conversions shared by renderers:
//
//	dot := nodelink.ToDOT(report, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [ToPDF] and [ToPNG] shell out to rsvg-convert (from librsvg).
//
// [nodelink]: github.com/matzehuels/picgraph/pkg/render/nodelink
package render

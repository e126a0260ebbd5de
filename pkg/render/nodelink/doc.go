// Package nodelink draws frame reports as node-link diagrams.
//
// # Overview
//
// [ToDOT] lays out the scheduled pictures of a [builder.Report] as a
// top-to-bottom Graphviz graph:
//
//   - one rank per update pass, so a picture always sits below every parent
//   - one fill color per surface (see [SurfaceColor]), white for the root
//   - a thick outline for pictures that composite into their own surface
//   - a solid edge from the parent a picture resolved its surface from, and
//     dashed edges from every other parent
//
// # Usage
//
//	dot := nodelink.ToDOT(report, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// PNG and PDF output convert the SVG with [render.ToPNG] and [render.ToPDF].
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
//
// [builder.Report]: github.com/matzehuels/picgraph/pkg/builder.Report
// [render.ToPNG]: github.com/matzehuels/picgraph/pkg/render.ToPNG
// [render.ToPDF]: github.com/matzehuels/picgraph/pkg/render.ToPDF
package nodelink

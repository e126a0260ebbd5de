package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/picgraph/pkg/builder"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds pass, surface and composite mode to node labels.
	Detailed bool

	// ShowRects adds each picture's local rect to its label.
	ShowRects bool

	// Pruned also draws pictures that were not scheduled, dashed and grey.
	Pruned bool
}

// surfaceColors fills nodes by surface index; the root surface is white.
var surfaceColors = []string{
	"white", "lightblue", "palegreen", "lightyellow",
	"pink", "lavender", "peachpuff", "lightcyan",
}

// SurfaceColor returns the fill color used for a surface.
func SurfaceColor(surface int) string {
	if surface < 0 {
		return "lightgrey"
	}
	return surfaceColors[surface%len(surfaceColors)]
}

// ToDOT converts a frame report to Graphviz DOT. Every update pass becomes a
// rank, so the diagram reads top to bottom in update order. Edges to the
// parent a picture finally resolved its surface from are solid; any other
// parent → child edge is dashed.
func ToDOT(r *builder.Report, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	drawn := make(map[string]bool, len(r.Pictures))
	for _, p := range r.Pictures {
		if !p.Scheduled && !opts.Pruned {
			continue
		}
		drawn[p.Name] = true
		fmt.Fprintf(&buf, "  %q [%s];\n", p.Name, strings.Join(fmtAttrs(p, opts), ", "))
	}

	if len(r.Passes) > 0 {
		buf.WriteString("\n")
	}
	for i, pass := range r.Passes {
		quoted := make([]string, len(pass))
		for j, name := range pass {
			quoted[j] = strconv.Quote(name)
		}
		fmt.Fprintf(&buf, "  { rank=same; /* pass %d */ %s; }\n", i, strings.Join(quoted, "; "))
	}

	buf.WriteString("\n")
	for _, p := range r.Pictures {
		if !drawn[p.Name] {
			continue
		}
		for _, c := range p.Children {
			if !drawn[c] {
				continue
			}
			child, _ := r.Picture(c)
			if child.Parent == p.Name {
				fmt.Fprintf(&buf, "  %q -> %q;\n", p.Name, c)
			} else {
				fmt.Fprintf(&buf, "  %q -> %q [style=dashed, color=grey];\n", p.Name, c)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(p builder.PictureReport, opts Options) string {
	parts := []string{p.Name}
	if opts.Detailed {
		if p.Scheduled {
			parts = append(parts, fmt.Sprintf("pass: %d", p.Pass), fmt.Sprintf("surface: %d", p.Surface))
		} else {
			parts = append(parts, "pruned")
		}
		if p.Composite != "none" {
			parts = append(parts, p.Composite)
		}
	}
	if opts.ShowRects && p.Scheduled {
		parts = append(parts, p.LocalRect.String())
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(p builder.PictureReport, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(p, opts))}
	if !p.Scheduled {
		return append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=grey40")
	}
	if fill := SurfaceColor(p.Surface); fill != "white" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%s", fill))
	}
	if p.Composite != "none" {
		attrs = append(attrs, "penwidth=3")
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

// normalizeViewBox rewrites the root svg tag to a zero-origin viewBox with
// matching pixel width and height.
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

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/picgraph/pkg/pipeline"
	"github.com/matzehuels/picgraph/pkg/render"
	"github.com/matzehuels/picgraph/pkg/render/nodelink"
	"github.com/matzehuels/picgraph/pkg/scene"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file, or base path for several formats; "-" for stdout
	formats  string // comma-separated output formats
	noCache  bool
	refresh  bool
	diagram  nodelink.Options
	pipeline pipeline.Options
}

// renderCommand creates the render command for drawing a scheduled frame.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	frame := &frameFlags{}
	cmd := &cobra.Command{
		Use:   "render <scene>",
		Short: "Render the scheduled picture graph as DOT, SVG, PNG or PDF",
		Long: `Render the scheduled picture graph of a scene.

Each update pass becomes one rank of the graph and each surface one fill
color. DOT output needs nothing else; SVG is rendered in-process with
Graphviz; PNG and PDF additionally need rsvg-convert (librsvg).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.pipeline = c.pipelineOptions()
			frame.apply(cmd, &opts.pipeline)
			opts.pipeline.Formats = pipeline.ParseFormats(opts.formats)
			opts.pipeline.Refresh = opts.refresh
			opts.pipeline.Render = opts.diagram
			if err := pipeline.ValidateFormats(opts.pipeline.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (several); - for stdout")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): "+strings.Join(render.Formats, ", ")+" (comma-separated, default svg)")
	cmd.Flags().BoolVar(&opts.diagram.Detailed, "detailed", false, "label pictures with pass, surface and composite mode")
	cmd.Flags().BoolVar(&opts.diagram.ShowRects, "rects", false, "label pictures with their local rect")
	cmd.Flags().BoolVar(&opts.diagram.Pruned, "pruned", false, "also draw pictures that were not scheduled")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached reports and artifacts")
	frame.register(cmd)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, path string, opts renderOpts) error {
	s, err := scene.Load(path)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering "+s.Name+"...")
	if opts.output != "-" {
		spinner.Start()
	}
	res, err := runner.Execute(ctx, s, opts.pipeline)
	spinner.Stop()
	if err != nil {
		return err
	}

	if opts.output == "-" {
		for _, format := range opts.pipeline.Formats {
			if _, err := c.out.Write(res.Artifacts[format]); err != nil {
				return err
			}
		}
		return nil
	}

	printSuccess("Rendered %s", StyleTitle.Render(s.Name))
	printStats(res.Report.Stats, res.CacheInfo.RenderHit)
	for _, format := range opts.pipeline.Formats {
		out := outputPath(opts.output, path, format, len(opts.pipeline.Formats) > 1)
		if err := os.WriteFile(out, res.Artifacts[format], 0644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		printFile(out)
	}
	return nil
}

// outputPath picks the file for one format. With no -o the scene path's
// extension is swapped; with several formats -o is treated as a base path.
func outputPath(output, scenePath, format string, multi bool) string {
	if output == "" {
		return strings.TrimSuffix(scenePath, filepath.Ext(scenePath)) + "." + format
	}
	if multi {
		return strings.TrimSuffix(output, filepath.Ext(output)) + "." + format
	}
	return output
}

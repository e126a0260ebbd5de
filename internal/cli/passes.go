package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/picgraph/pkg/pipeline"
	"github.com/matzehuels/picgraph/pkg/scene"
)

// passesOpts holds the command-line flags for the passes command.
type passesOpts struct {
	json     bool // print reports as JSON instead of tables
	surfaces bool // also print the surface table
	noCache  bool
	refresh  bool
	jobs     int // concurrent scene builds
	pipeline pipeline.Options
}

// passesCommand creates the passes command, which builds one frame per scene.
func (c *CLI) passesCommand() *cobra.Command {
	opts := passesOpts{jobs: 4}

	frame := &frameFlags{}
	cmd := &cobra.Command{
		Use:   "passes <scene>...",
		Short: "Build a frame for each scene and print its update passes",
		Long: `Build a frame for each scene file and print the update passes.

Scenes are TOML or JSON files (chosen by extension). Multiple scenes are
built concurrently; output keeps the argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.pipeline = c.pipelineOptions()
			frame.apply(cmd, &opts.pipeline)
			opts.pipeline.Refresh = opts.refresh
			return c.runPasses(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "print frame reports as JSON")
	cmd.Flags().BoolVar(&opts.surfaces, "surfaces", false, "also print surfaces")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached reports")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", opts.jobs, "scenes to build concurrently")
	frame.register(cmd)

	return cmd
}

// sceneResult pairs a scene with its pipeline outcome.
type sceneResult struct {
	path   string
	result *pipeline.Result
}

func (c *CLI) runPasses(ctx context.Context, paths []string, opts passesOpts) error {
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	results := make([]sceneResult, len(paths))

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Building %d scene(s)...", len(paths)))
	if !opts.json {
		spinner.Start()
	}

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(withLogger(ctx, c.Logger))
	g.SetLimit(max(opts.jobs, 1))
	for i, path := range paths {
		g.Go(func() error {
			logger := loggerFromContext(gctx).With("path", path)
			s, err := scene.Load(path)
			if err != nil {
				return err
			}
			logger.Debug("loaded scene", "pictures", s.Len(), "edges", s.EdgeCount())
			res, err := runner.Execute(gctx, s, opts.pipeline)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = sceneResult{path: path, result: res}

			mu.Lock()
			done++
			spinner.Update(fmt.Sprintf("Built %d/%d scenes...", done, len(paths)))
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()
	spinner.Stop()
	if err != nil {
		return err
	}

	for _, r := range results {
		if opts.json {
			if err := r.result.Report.WriteJSON(c.out); err != nil {
				return err
			}
			continue
		}
		c.printFrame(r, opts.surfaces)
	}
	if !opts.json {
		prog.done("Built %d frame(s)", len(results))
		if len(paths) == 1 {
			printNextStep("Step through the passes", appName+" explore "+paths[0])
		}
	}
	return nil
}

func (c *CLI) printFrame(r sceneResult, surfaces bool) {
	report := r.result.Report
	printSuccess("%s %s", StyleTitle.Render(report.Scene), StyleDim.Render(r.path))
	printStats(report.Stats, r.result.CacheInfo.ReportHit)
	fmt.Fprintln(c.out, passTable(report))
	if surfaces {
		fmt.Fprintln(c.out, surfaceTable(report))
	}
}

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/picgraph/pkg/builder"
	"github.com/matzehuels/picgraph/pkg/scene"
)

// benchOpts holds the command-line flags for the bench command.
type benchOpts struct {
	shape  string
	depth  int
	fanout int
	frames int
}

// benchCommand creates the bench command, which times frames over a
// generated scene with one reused builder.
func (c *CLI) benchCommand() *cobra.Command {
	opts := benchOpts{shape: scene.ShapeChain, depth: 10000, fanout: 2, frames: 20}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time frames over a generated scene",
		Long: `Time frames over a generated scene.

Shapes:
  chain    depth pictures, each the only child of the previous one
  tree     complete tree with depth levels and the given fanout
  diamond  four pictures, one reachable along two paths

All frames reuse one builder, so later frames run on warm buffers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBench(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.shape, "shape", opts.shape, "scene shape: chain, tree, diamond")
	cmd.Flags().IntVar(&opts.depth, "depth", opts.depth, "chain length or tree levels")
	cmd.Flags().IntVar(&opts.fanout, "fanout", opts.fanout, "children per tree node")
	cmd.Flags().IntVarP(&opts.frames, "frames", "n", opts.frames, "frames to build")

	return cmd
}

// benchResult aggregates phase timings over all frames.
type benchResult struct {
	report *builder.Report
	frames int
	build  timing
	assign timing
	bounds timing
	total  timing
}

type timing struct {
	n             int
	min, max, sum time.Duration
}

func (t *timing) add(d time.Duration) {
	if t.n == 0 || d < t.min {
		t.min = d
	}
	t.max = max(t.max, d)
	t.sum += d
	t.n++
}

func (t timing) avg() time.Duration {
	if t.n == 0 {
		return 0
	}
	return t.sum / time.Duration(t.n)
}

func (c *CLI) runBench(ctx context.Context, opts benchOpts) error {
	if opts.frames < 1 {
		return fmt.Errorf("--frames must be at least 1")
	}
	s, err := scene.Synthetic(opts.shape, opts.depth, opts.fanout)
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}

	c.Logger.Info("benchmarking", "scene", s.Name, "pictures", s.Len(), "edges", s.EdgeCount(), "frames", opts.frames)
	res, err := benchFrames(ctx, s, opts.frames, c.pipelineOptions().BuilderOptions())
	if err != nil {
		return err
	}

	printSuccess("%s %s", StyleTitle.Render(s.Name), StyleDim.Render(fmt.Sprintf("%d frames", res.frames)))
	printStats(res.report.Stats, false)
	printKeyValue("build", formatTiming(res.build))
	printKeyValue("assign", formatTiming(res.assign))
	printKeyValue("propagate", formatTiming(res.bounds))
	printKeyValue("total", formatTiming(res.total))
	return nil
}

// benchFrames builds n frames of s with one builder.
func benchFrames(ctx context.Context, s *scene.Scene, n int, bopts builder.Options) (*benchResult, error) {
	bopts.Logger = log.New(io.Discard)
	b := builder.New(bopts)
	res := &benchResult{}

	for i := 0; i < n; i++ {
		report, err := b.Build(ctx, s)
		if err != nil {
			return nil, err
		}
		res.report = report
		res.frames++
		res.build.add(report.Stats.BuildTime)
		res.assign.add(report.Stats.AssignTime)
		res.bounds.add(report.Stats.PropagateTime)
		res.total.add(report.Stats.Total())
	}
	return res, nil
}

func formatTiming(t timing) string {
	return fmt.Sprintf("avg %s  min %s  max %s",
		t.avg().Round(time.Microsecond),
		t.min.Round(time.Microsecond),
		t.max.Round(time.Microsecond))
}

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/picgraph/pkg/pipeline"
	"github.com/matzehuels/picgraph/pkg/scene"
)

// exploreCommand creates the explore command, an interactive pass browser.
func (c *CLI) exploreCommand() *cobra.Command {
	var noCache bool

	frame := &frameFlags{}
	cmd := &cobra.Command{
		Use:   "explore <scene>",
		Short: "Step through the update passes of a scene interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions()
			frame.apply(cmd, &opts)
			return c.runExplore(cmd.Context(), args[0], noCache, opts)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	frame.register(cmd)
	return cmd
}

func (c *CLI) runExplore(ctx context.Context, path string, noCache bool, opts pipeline.Options) error {
	s, err := scene.Load(path)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	report, err := runner.Build(ctx, s, opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(NewPassModel(report), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("explore: %w", err)
	}
	return nil
}

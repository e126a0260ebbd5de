package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/picgraph/internal/server"
	"github.com/matzehuels/picgraph/pkg/cache"
	"github.com/matzehuels/picgraph/pkg/pipeline"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr     string
	noCache  bool
	pipeline pipeline.Options
}

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	frame := &frameFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve frames over HTTP",
		Long: `Run the HTTP API.

  POST /v1/frames               build a frame from a JSON scene
  GET  /v1/reports/{sceneHash}  fetch a cached report
  GET  /healthz                 liveness

Frame flags set the defaults for every request; query parameters override them.
Server cache entries are prefixed with "` + server.KeyPrefix + `" so the server can
share a Redis instance with CLI runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				opts.addr = c.Config.Server.Addr
			}
			opts.pipeline = c.pipelineOptions()
			frame.apply(cmd, &opts.pipeline)
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	frame.register(cmd)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	cc, err := c.newCache(ctx, opts.noCache)
	if err != nil {
		return err
	}
	keyer := cache.NewScopedKeyer(nil, server.KeyPrefix)
	runner := pipeline.NewRunner(cc, keyer, c.Logger)
	defer runner.Close()

	c.Logger.Debug("starting server", "addr", opts.addr, "cache", c.Config.Cache.Backend, "no_cache", opts.noCache)
	return server.New(runner, opts.pipeline, c.Logger).ListenAndServe(ctx, opts.addr)
}

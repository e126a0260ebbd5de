package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/picgraph/pkg/pipeline"
)

// frameFlags holds the flags that override the [frame] config section.
type frameFlags struct {
	dpr           float32
	noTileCache   bool
	debugSurfaces bool
}

// register binds the frame flags to cmd.
func (f *frameFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float32Var(&f.dpr, "dpr", 0, "device pixel ratio (default from config, 1)")
	cmd.Flags().BoolVar(&f.noTileCache, "no-tile-cache", false, "treat tile-cache pictures as plain offscreen surfaces")
	cmd.Flags().BoolVar(&f.debugSurfaces, "debug-surfaces", false, "log every surface at debug level")
}

// apply copies explicitly set frame flags over config values.
func (f *frameFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	flags := cmd.Flags()
	if flags.Changed("dpr") {
		opts.DevicePixelRatio = f.dpr
	}
	if flags.Changed("no-tile-cache") {
		opts.DisableTileCache = f.noTileCache
	}
	if flags.Changed("debug-surfaces") {
		opts.DebugSurfaces = f.debugSurfaces
	}
}

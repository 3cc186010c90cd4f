package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/birdayz/framegraph/fviz"
	"github.com/birdayz/framegraph/passes"
)

func newDotCmd(flags *rootFlags) *cobra.Command {
	var (
		svg      string
		detailed bool
		plugs    bool
		overlay  bool
	)

	cmd := &cobra.Command{
		Use:   "dot",
		Short: "Print the finalized demo graph as Graphviz DOT",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx := cmd.Context()
			cfg, _, logger, err := flags.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			e, err := newDemoEngine(passes.NewDevice(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, e.Close()) }()

			if err := e.Start(ctx); err != nil {
				return err
			}
			if overlay {
				res := e.SetDebugOverlay(true)
				if err := e.Frame(ctx); err != nil {
					return err
				}
				if err := <-res; err != nil {
					return err
				}
			}

			dot := fviz.ToDOT(e.Graph(), fviz.Options{Detailed: detailed, PlugLabels: plugs})
			if svg == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), dot)
				return err
			}
			out, err := fviz.RenderSVG(ctx, dot)
			if err != nil {
				return err
			}
			return os.WriteFile(svg, out, 0o644)
		},
	}
	cmd.Flags().StringVar(&svg, "svg", "", "render to this SVG file instead of printing DOT")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include node type and execution position")
	cmd.Flags().BoolVar(&plugs, "plugs", false, "label edges with plug names")
	cmd.Flags().BoolVar(&overlay, "overlay", false, "splice in the debug overlay first")
	return cmd
}

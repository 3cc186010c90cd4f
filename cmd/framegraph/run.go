package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/birdayz/framegraph"
	"github.com/birdayz/framegraph/fgraph"
	"github.com/birdayz/framegraph/fmetrics"
	"github.com/birdayz/framegraph/internal/config"
	"github.com/birdayz/framegraph/passes"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	var (
		frames  uint64
		overlay bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo frame loop",
		Long: `Run builds the demo render graph and computes frames until interrupted.

With --config the file is watched: changing debug.overlay splices the debug
overlay in or out, changing the engine resolution resizes every pass.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, loader, logger, err := flags.setup(nil)
			if err != nil {
				return err
			}
			c := *cfg
			if cmd.Flags().Changed("frames") {
				c.Engine.Frames = frames
			}
			if cmd.Flags().Changed("overlay") {
				c.Debug.Overlay = overlay
			}
			return runEngine(cmd.Context(), &c, loader, logger)
		},
	}
	cmd.Flags().Uint64Var(&frames, "frames", 0, "stop after this many frames, 0 runs until interrupted")
	cmd.Flags().BoolVar(&overlay, "overlay", false, "start with the debug overlay spliced in")
	return cmd
}

func newDemoEngine(dev *passes.Device, cfg *config.Config, logger logr.Logger, opts ...framegraph.Option) (*framegraph.Engine, error) {
	g := fgraph.New()
	if err := passes.BuildDemo(g, dev); err != nil {
		return nil, fmt.Errorf("build demo graph: %w", err)
	}
	base := []framegraph.Option{
		framegraph.WithLogr(logger.WithName("engine")),
		framegraph.WithDebugChecks(cfg.Engine.DebugChecks),
		framegraph.WithQueueFlusher(dev),
		framegraph.WithDebugOverlay(passes.OverlayFactory(dev), passes.DemoOverlayAnchor, passes.DemoOverlayInput),
		framegraph.WithSize(cfg.Engine.Width, cfg.Engine.Height),
		framegraph.WithFrameInterval(cfg.Engine.FrameInterval),
	}
	return framegraph.New(g, append(base, opts...)...)
}

func runEngine(ctx context.Context, cfg *config.Config, loader *config.Loader, logger logr.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	dev := passes.NewDevice()
	e, err := newDemoEngine(dev, cfg, logger, framegraph.WithMetrics(fmetrics.New(reg)))
	if err != nil {
		return err
	}
	if cfg.Debug.Overlay {
		e.SetDebugOverlay(true)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer cancel()
		return e.Run(ctx, cfg.Engine.Frames)
	})

	eg.Go(func() error {
		return present(ctx, dev, cfg.Engine.FrameInterval, logger.WithName("device"))
	})

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		eg.Go(func() error {
			logger.Info("serving metrics", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		eg.Go(func() error {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if loader != nil {
		loader.OnChange(onReload(e, cfg))
		stop, err := loader.Watch()
		if err != nil {
			cancel()
			return multierr.Append(err, multierr.Append(eg.Wait(), e.Close()))
		}
		defer stop()
	}

	err = eg.Wait()
	err = multierr.Append(err, e.Close())
	logger.Info("stopped", "frames", e.Frames())
	return err
}

// liveControl is the part of the engine a config reload may touch.
type liveControl interface {
	SetDebugOverlay(enabled bool) <-chan error
	RequestResize(width, height uint32)
}

// onReload translates config changes into engine requests. Only settings
// that differ from the previous config are submitted.
func onReload(e liveControl, initial *config.Config) func(*config.Config) {
	overlay := initial.Debug.Overlay
	width, height := initial.Engine.Width, initial.Engine.Height
	return func(next *config.Config) {
		if next.Debug.Overlay != overlay {
			overlay = next.Debug.Overlay
			e.SetDebugOverlay(overlay)
		}
		if next.Engine.Width != width || next.Engine.Height != height {
			width, height = next.Engine.Width, next.Engine.Height
			e.RequestResize(width, height)
		}
	}
}

// present drains the device's command list once per frame interval, the way
// a swapchain present would.
func present(ctx context.Context, dev *passes.Device, interval time.Duration, logger logr.Logger) error {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if cmds := dev.Present(); len(cmds) > 0 {
				logger.V(1).Info("present", "commands", len(cmds), "live", dev.Live(""))
			}
		}
	}
}

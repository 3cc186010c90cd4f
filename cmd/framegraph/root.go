package main

import (
	"io"

	"github.com/go-logr/logr"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/birdayz/framegraph/internal/config"
	"github.com/birdayz/framegraph/pkg/log"
)

type rootFlags struct {
	configPath string
	logLevel   string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:          "framegraph",
		Short:        "framegraph drives a render dependency graph",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a YAML config file, watched for changes")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level, overrides the config file")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRunCmd(flags))
	root.AddCommand(newDotCmd(flags))
	return root
}

// setup loads the configuration and creates the process logger. The loader
// is nil when no config file was given. A non-nil logOut redirects the
// console log away from stdout.
func (f *rootFlags) setup(logOut io.Writer) (*config.Config, *config.Loader, logr.Logger, error) {
	cfg := config.Default()
	var loader *config.Loader
	if f.configPath != "" {
		var err error
		loader, err = config.NewLoader(f.configPath, logr.Discard())
		if err != nil {
			return nil, nil, logr.Discard(), err
		}
		cfg = loader.Config()
	}

	level := cfg.Log.Level
	if f.logLevel != "" {
		level = f.logLevel
	}
	if f.verbose {
		level = "debug"
	}
	zl := log.New(level)
	if logOut != nil {
		zl = log.NewWithWriter(zerolog.ConsoleWriter{Out: logOut, NoColor: true}, level)
	}
	logger := log.Logr(zl)

	if loader != nil {
		loader.SetLogger(logger.WithName("config"))
	}
	return cfg, loader, logger, nil
}

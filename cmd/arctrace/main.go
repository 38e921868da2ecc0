// Package main provides the arc-tracer CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"arc-tracer/internal/config"
	"arc-tracer/internal/observability"
	"arc-tracer/internal/vision"
	"arc-tracer/internal/vision/opencv"
	"arc-tracer/ui/previewwindow"

	"github.com/spf13/cobra"
)

// cli carries global flags and the state PersistentPreRunE sets up.
type cli struct {
	cfgFile    string
	envFile    string
	outputJSON bool
	verbose    bool
	noColor    bool

	cfg    *config.Config
	logger *observability.Logger
	ui     *UI

	newToolkit func() vision.Toolkit
	showWindow func(title string, png []byte, status string) error
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "arctrace",
		Short: "Convert raster images into arc(...) plot instructions",
		Long: `arctrace vectorizes an image: it binarizes it, traces region boundaries
(or their skeleton), simplifies each boundary into a polygon and prints one
arc(...) instruction per polygon edge.

All commands support --json for automation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnvFiles(c.envFile)

			var err error
			c.cfg, err = config.Load(c.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			level := "warn"
			if c.verbose {
				level = "debug"
			}
			logFormat := "console"
			if c.outputJSON {
				logFormat = "json"
			}
			c.logger = observability.NewLogger(observability.LogConfig{
				Level:       level,
				Format:      logFormat,
				Output:      cmd.ErrOrStderr(),
				ServiceName: "arctrace",
			})
			c.ui = NewUI(cmd.ErrOrStderr(), c.outputJSON, c.noColor)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "path to .env file")
	root.PersistentFlags().BoolVar(&c.outputJSON, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newProcessCmd(c))
	root.AddCommand(newPreviewCmd(c))
	root.AddCommand(newVersionCmd(c))
	return root
}

func main() {
	c := &cli{
		newToolkit: func() vision.Toolkit { return opencv.New() },
		showWindow: previewwindow.Show,
	}
	if err := newRootCmd(c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"arc-tracer/internal/app"
	"arc-tracer/internal/arc"
	"arc-tracer/internal/pipeline"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// processOutput mirrors the API success envelope, plus run statistics.
type processOutput struct {
	Status           string          `json:"status"`
	InstructionCount int             `json:"instruction_count"`
	Instructions     []string        `json:"instructions"`
	Stats            *pipeline.Stats `json:"stats,omitempty"`
}

func newProcessCmd(c *cli) *cobra.Command {
	var (
		params    paramFlags
		outPath   string
		showStats bool
		debugDir  string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "process <image>",
		Short: "Vectorize an image into arc instructions",
		Long: `Process reads an image (PNG, JPEG, GIF, BMP, TIFF or WebP; "-" reads stdin)
and prints one arc(...) instruction per polygon edge.

Unset flags fall back to the pipeline section of the config file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			p := params.apply(cmd.Flags(), c.cfg.Pipeline)

			cfg := *c.cfg
			cfg.Cache.Driver = "none"
			if debugDir != "" {
				cfg.Debug.Enabled = true
				cfg.Debug.Dir = debugDir
				cfg.Debug.Overwrite = overwrite
			}

			ctx := context.Background()
			a, err := app.New(ctx, &cfg, c.newToolkit(), c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Pipeline.Process(ctx, data, p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				out = f
			}

			if c.outputJSON {
				resp := processOutput{
					Status:           "success",
					InstructionCount: len(res.Instructions),
					Instructions:     arc.Strings(res.Instructions),
				}
				if showStats {
					resp.Stats = &res.Stats
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			if _, err := io.WriteString(out, arc.Join(res.Instructions)); err != nil {
				return fmt.Errorf("write instructions: %w", err)
			}

			if len(res.Instructions) == 0 {
				c.ui.Warning("no instructions produced")
			} else {
				c.ui.Success("%d instructions from %d curves", len(res.Instructions), res.Stats.Curves)
			}
			if showStats {
				c.ui.Info("polygons=%d degenerate=%d mean_vertices=%.2f perimeter=%.1f duration=%s",
					res.Stats.Polygons, res.Stats.Degenerate, res.Stats.MeanVertices,
					res.Stats.TotalPerimeter, res.Stats.Duration)
			}
			if res.DebugPath != "" {
				c.ui.Info("debug image written to %s", res.DebugPath)
			}
			return nil
		},
	}

	f := cmd.Flags()
	params.bind(f)
	f.StringVarP(&outPath, "output", "o", "", "write instructions to a file instead of stdout")
	f.BoolVar(&showStats, "stats", false, "report run statistics")
	f.StringVar(&debugDir, "debug-dir", "", "write a debug render of the traced boundaries into this directory")
	f.BoolVar(&overwrite, "debug-overwrite", false, "overwrite a single contours.png instead of one file per run")

	return cmd
}

// paramFlags binds the pipeline parameters to command flags. Only flags the
// user set override the configured defaults.
type paramFlags struct {
	pipeline.Params
}

func (pf *paramFlags) bind(f *pflag.FlagSet) {
	defaults := pipeline.DefaultParams()
	f.Float64Var(&pf.SamplingRate, "sampling-rate", defaults.SamplingRate, "approximation tolerance as a fraction of each curve's perimeter (0.001-0.1)")
	f.Float64Var(&pf.OriginX, "origin-x", defaults.OriginX, "x offset added after scaling")
	f.Float64Var(&pf.OriginY, "origin-y", defaults.OriginY, "y offset added after scaling")
	f.Float64Var(&pf.Scale, "scale", defaults.Scale, "uniform scale applied to normalized coordinates")
	f.IntVar(&pf.TimeStart, "time-start", defaults.TimeStart, "start time")
	f.IntVar(&pf.TimeEnd, "time-end", defaults.TimeEnd, "end time (timeline mode)")
	f.StringVar(&pf.Method, "method", defaults.Method, "boundary extraction: contour or thinning")
	f.StringVar(&pf.Mode, "mode", defaults.Mode, "output encoding: vertical or timeline")
}

func (pf *paramFlags) apply(f *pflag.FlagSet, base pipeline.Params) pipeline.Params {
	p := base
	if f.Changed("sampling-rate") {
		p.SamplingRate = pf.SamplingRate
	}
	if f.Changed("origin-x") {
		p.OriginX = pf.OriginX
	}
	if f.Changed("origin-y") {
		p.OriginY = pf.OriginY
	}
	if f.Changed("scale") {
		p.Scale = pf.Scale
	}
	if f.Changed("time-start") {
		p.TimeStart = pf.TimeStart
	}
	if f.Changed("time-end") {
		p.TimeEnd = pf.TimeEnd
	}
	if f.Changed("method") {
		p.Method = pf.Method
	}
	if f.Changed("mode") {
		p.Mode = pf.Mode
	}
	return p
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

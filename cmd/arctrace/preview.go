package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"arc-tracer/internal/app"
	"arc-tracer/internal/arc"
	"arc-tracer/internal/preview"

	"github.com/spf13/cobra"
)

type previewOutput struct {
	Status           string `json:"status"`
	InstructionCount int    `json:"instruction_count"`
	Output           string `json:"output"`
}

func newPreviewCmd(c *cli) *cobra.Command {
	var (
		params           paramFlags
		pngPath          string
		instructionsPath string
	)

	cmd := &cobra.Command{
		Use:   "preview <image>",
		Short: "Draw the arc instructions over the source image",
		Long: `Preview vectorizes an image and draws each instruction as a line segment
over it, opening a window unless --png is given.

With --instructions the segments are read from a file of arc(...) lines
instead, which must have been produced with the same parameters.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			p := params.apply(cmd.Flags(), c.cfg.Pipeline)
			tk := c.newToolkit()

			var ins []arc.Instruction
			if instructionsPath != "" {
				f, err := os.Open(instructionsPath)
				if err != nil {
					return fmt.Errorf("open instructions: %w", err)
				}
				ins, err = arc.ParseAll(f)
				f.Close()
				if err != nil {
					return err
				}
			} else {
				cfg := *c.cfg
				cfg.Cache.Driver = "none"
				cfg.Debug.Enabled = false

				ctx := context.Background()
				a, err := app.New(ctx, &cfg, tk, c.logger)
				if err != nil {
					return err
				}
				defer a.Close()

				if ins, err = a.Pipeline.Run(ctx, data, p); err != nil {
					return err
				}
			}

			rendered, err := preview.Render(tk, data, ins, p)
			if err != nil {
				return err
			}

			if pngPath == "" {
				title := "arctrace preview: " + filepath.Base(args[0])
				return c.showWindow(title, rendered, fmt.Sprintf("%d instructions", len(ins)))
			}

			if err := os.WriteFile(pngPath, rendered, 0o644); err != nil {
				return fmt.Errorf("write preview: %w", err)
			}

			if c.outputJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(previewOutput{
					Status:           "success",
					InstructionCount: len(ins),
					Output:           pngPath,
				})
			}
			c.ui.Success("preview of %d instructions written to %s", len(ins), pngPath)
			return nil
		},
	}

	f := cmd.Flags()
	params.bind(f)
	f.StringVar(&pngPath, "png", "", "write the preview to this PNG file instead of opening a window")
	f.StringVar(&instructionsPath, "instructions", "", "draw arc(...) lines from this file instead of vectorizing")

	return cmd
}

// File: cmd/heatmap.go
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sablewood/arbor/internal/hud"
	"github.com/sablewood/arbor/internal/observability"
)

var (
	heatmapIn     string
	heatmapOut    string
	heatmapWidth  int
	heatmapHeight int
	heatmapRadius float64
)

// heatmapCmd renders a PNG intensity map from a recorded JSONL tap log.
var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Render a PNG heatmap from a JSONL tap log.",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := hud.DefaultHeatmapOptions()
		opts.Width = heatmapWidth
		opts.Height = heatmapHeight
		if heatmapRadius > 0 {
			opts.Radius = heatmapRadius
		}
		if err := hud.RenderHeatmapFile(heatmapIn, heatmapOut, opts); err != nil {
			return err
		}
		observability.GetLogger().Info("heatmap written",
			zap.String("in", heatmapIn), zap.String("out", heatmapOut))
		return nil
	},
}

func init() {
	heatmapCmd.Flags().StringVar(&heatmapIn, "in", "taps.jsonl", "input JSONL tap log")
	heatmapCmd.Flags().StringVar(&heatmapOut, "out", "heatmap.png", "output PNG path")
	heatmapCmd.Flags().IntVar(&heatmapWidth, "width", 0, "canvas width (0 = fit to taps)")
	heatmapCmd.Flags().IntVar(&heatmapHeight, "height", 0, "canvas height (0 = fit to taps)")
	heatmapCmd.Flags().Float64Var(&heatmapRadius, "radius", 0, "splat radius in pixels (0 = default)")
	rootCmd.AddCommand(heatmapCmd)
}

// File: internal/hud/heatmap.go
package hud

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/sablewood/arbor/internal/motor"
)

// HeatmapOptions controls heatmap rendering.
type HeatmapOptions struct {
	// Width and Height of the output image. When zero, the canvas is sized
	// to the tap extents plus a margin.
	Width, Height int
	// Radius of the Gaussian splat per tap, in pixels.
	Radius float64
}

// DefaultHeatmapOptions returns the stock rendering parameters.
func DefaultHeatmapOptions() HeatmapOptions {
	return HeatmapOptions{Radius: 12}
}

// RenderHeatmap accumulates a Gaussian splat per tap into an intensity
// field and maps it through a cold-to-hot gradient. Deterministic for a
// given input: no randomness is involved.
func RenderHeatmap(taps []motor.TapEvent, opts HeatmapOptions) (*image.RGBA, error) {
	if opts.Radius <= 0 {
		opts.Radius = 12
	}
	w, h := opts.Width, opts.Height
	if w == 0 || h == 0 {
		w, h = canvasExtent(taps, int(opts.Radius)*2)
	}
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("heatmap: empty canvas %dx%d", w, h)
	}

	field := make([]float64, w*h)
	sigma := opts.Radius / 2.5
	reach := int(opts.Radius)
	for _, tap := range taps {
		for dy := -reach; dy <= reach; dy++ {
			y := tap.Y + dy
			if y < 0 || y >= h {
				continue
			}
			for dx := -reach; dx <= reach; dx++ {
				x := tap.X + dx
				if x < 0 || x >= w {
					continue
				}
				d2 := float64(dx*dx + dy*dy)
				field[y*w+x] += math.Exp(-d2 / (2 * sigma * sigma))
			}
		}
	}

	peak := 0.0
	for _, v := range field {
		if v > peak {
			peak = v
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := 0.0
			if peak > 0 {
				v = field[y*w+x] / peak
			}
			img.SetRGBA(x, y, heatColor(v))
		}
	}
	return img, nil
}

// RenderHeatmapFile reads a JSONL tap log and writes the rendered PNG.
func RenderHeatmapFile(inPath, outPath string, opts HeatmapOptions) error {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open tap log: %w", err)
	}
	defer in.Close()

	taps, err := ReadRecords(in)
	if err != nil {
		return err
	}
	if len(taps) == 0 {
		return fmt.Errorf("no tap records in %q", inPath)
	}

	img, err := RenderHeatmap(taps, opts)
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create heatmap: %w", err)
	}
	defer out.Close()
	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("encode heatmap: %w", err)
	}
	return nil
}

// canvasExtent sizes the canvas to cover every tap plus a margin.
func canvasExtent(taps []motor.TapEvent, margin int) (int, int) {
	maxX, maxY := 0, 0
	for _, t := range taps {
		if t.X > maxX {
			maxX = t.X
		}
		if t.Y > maxY {
			maxY = t.Y
		}
	}
	return maxX + margin + 1, maxY + margin + 1
}

// heatColor maps a normalized intensity to a black-blue-red-yellow ramp.
func heatColor(v float64) color.RGBA {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	switch {
	case v < 0.25:
		// black -> blue
		t := v / 0.25
		return color.RGBA{B: uint8(255 * t), A: 255}
	case v < 0.5:
		// blue -> red
		t := (v - 0.25) / 0.25
		return color.RGBA{R: uint8(255 * t), B: uint8(255 * (1 - t)), A: 255}
	case v < 0.75:
		// red -> orange
		t := (v - 0.5) / 0.25
		return color.RGBA{R: 255, G: uint8(165 * t), A: 255}
	default:
		// orange -> yellow
		t := (v - 0.75) / 0.25
		return color.RGBA{R: 255, G: uint8(165 + 90*t), A: 255}
	}
}

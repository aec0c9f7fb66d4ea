// File: cmd/simulate.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sablewood/arbor/internal/hud"
	"github.com/sablewood/arbor/internal/motor"
	"github.com/sablewood/arbor/internal/observability"
	"github.com/sablewood/arbor/internal/session"
)

var (
	simClicks   int
	simCanvasW  int
	simCanvasH  int
	simInterval time.Duration
	simDrop     bool
)

// simulateCmd exercises the whole pipeline end to end against the logging
// sink: random rectangular targets stand in for detected game objects, and
// every committed tap lands in the JSONL recorder (and the HUD stream when
// enabled).
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run click sequences against randomly placed targets (dry run).",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := observability.GetLogger()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sink := motor.NewLogSink(log)
		sess, err := session.New(cfg.Motor, sink, nil, log)
		if err != nil {
			return err
		}

		if cfg.Recorder.Enabled {
			rec := hud.NewRecorder(cfg.Recorder, log)
			defer rec.Close() //nolint:errcheck
			sess.Subscribe(rec)
		}

		g, ctx := errgroup.WithContext(ctx)
		if cfg.HUD.Enabled {
			stream := hud.NewStream(log)
			sess.Subscribe(stream)
			g.Go(func() error { return stream.Serve(ctx, cfg.HUD.Addr) })
		}

		sess.Start()
		defer sess.Close() //nolint:errcheck

		g.Go(func() error {
			defer stop()
			targets := targetField{w: simCanvasW, h: simCanvasH, rnd: motor.NewTimeSeededRand()}
			for i := 0; i < simClicks; i++ {
				region, _ := targets.Target()
				tag := fmt.Sprintf("simulate-%d", i)

				var err error
				if simDrop && i%4 == 3 {
					err = sess.DropClick(region, tag)
				} else {
					err = sess.ClickRegion(region, tag)
				}
				if err != nil {
					log.Warn("intent rejected", zap.Error(err), zap.String("tag", tag))
				}

				select {
				case <-ctx.Done():
					return nil
				case <-time.After(simInterval):
				}
			}
			// Let the final sequence drain before shutdown.
			select {
			case <-ctx.Done():
			case <-time.After(2 * time.Second):
			}
			return nil
		})

		return g.Wait()
	},
}

// targetField hands out random rectangles on a virtual canvas, playing the
// role of the environment's target provider.
type targetField struct {
	w, h int
	rnd  *motor.Rand
}

func (t targetField) Target() (motor.Region, bool) {
	w := t.rnd.UniformInt(24, 80)
	h := t.rnd.UniformInt(24, 80)
	return motor.Rect{
		X: t.rnd.UniformInt(0, t.w-w),
		Y: t.rnd.UniformInt(0, t.h-h),
		W: w,
		H: h,
	}, true
}

func init() {
	simulateCmd.Flags().IntVar(&simClicks, "clicks", 20, "number of click intents to submit")
	simulateCmd.Flags().IntVar(&simCanvasW, "canvas-width", 800, "virtual canvas width in pixels")
	simulateCmd.Flags().IntVar(&simCanvasH, "canvas-height", 600, "virtual canvas height in pixels")
	simulateCmd.Flags().DurationVar(&simInterval, "interval", 1200*time.Millisecond, "pause between intent submissions")
	simulateCmd.Flags().BoolVar(&simDrop, "with-drops", false, "make every fourth click a modifier-held drop click")
	rootCmd.AddCommand(simulateCmd)
}

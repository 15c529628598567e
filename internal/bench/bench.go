// Package bench runs headless cloud sky scenarios and records how long each
// tick takes.
package bench

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"sort"
	"time"

	"cloudsky/internal/clouds"
	"cloudsky/internal/render"
	"cloudsky/internal/sky"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Scenario is one quality and backend combination.
type Scenario struct {
	Quality clouds.Quality
	Backend string
}

func (s Scenario) String() string { return fmt.Sprintf("%s/%s", s.Quality, s.Backend) }

// Scenarios returns the cross product of qualities and backends.
func Scenarios(qualities []clouds.Quality, backends []string) []Scenario {
	out := make([]Scenario, 0, len(qualities)*len(backends))
	for _, q := range qualities {
		for _, b := range backends {
			out = append(out, Scenario{Quality: q, Backend: b})
		}
	}
	return out
}

// Result summarizes one scenario run.
type Result struct {
	Scenario Scenario
	Ticks    int
	Warmup   time.Duration
	Mean     time.Duration
	P95      time.Duration
	Max      time.Duration
	// Opacity is the mean sky opacity after the last tick.
	Opacity float64

	Sky     *image.RGBA
	Density *image.Gray
}

// Runner drives scenarios derived from a base configuration.
type Runner struct {
	Base  clouds.Config
	Ticks int
	DT    float32
	// ViewerSpeed moves the viewer along +x in world units per second.
	ViewerSpeed float32
	Capture     bool
	Log         logrus.FieldLogger
}

func (r Runner) logger() logrus.FieldLogger {
	if r.Log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		return l
	}
	return r.Log
}

// Run initializes a simulation for sc and ticks it r.Ticks times.
func (r Runner) Run(ctx context.Context, sc Scenario) (Result, error) {
	log := r.logger().WithField("scenario", sc.String())
	cfg := r.Base
	cfg.Quality = sc.Quality
	cfg.Backend = sc.Backend

	sim, err := clouds.New(cfg, clouds.WithLogger(log))
	if err != nil {
		return Result{}, fmt.Errorf("bench: %s: %w", sc, err)
	}

	times := make([]time.Duration, 0, r.Ticks)
	viewer := cfg.Viewer
	for i := 0; i < r.Ticks; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		viewer = viewer.Add(mgl32.Vec3{r.ViewerSpeed * r.DT, 0, 0})
		start := time.Now()
		sim.Tick(r.DT, viewer)
		times = append(times, time.Since(start))
	}

	res := summarize(times)
	res.Scenario = sc
	res.Warmup = sim.WarmupDuration()

	h, err := sim.SkyImage()
	if err != nil {
		return Result{}, err
	}
	res.Opacity = meanOpacity(h.Image.Cells())
	if r.Capture {
		res.Sky = render.SkyImage(h.Image, render.NewBackdrop(cfg.AtmosphereTint))
		d, err := sim.DensityMap()
		if err != nil {
			return Result{}, err
		}
		res.Density = render.DensityImage(d.Map)
	}

	log.WithFields(logrus.Fields{
		"ticks":   res.Ticks,
		"mean":    res.Mean,
		"p95":     res.P95,
		"warmup":  res.Warmup,
		"opacity": fmt.Sprintf("%.3f", res.Opacity),
	}).Info("scenario done")
	return res, nil
}

// Sweep runs every scenario with at most workers in flight. Results keep the
// order of scenarios. The first failure cancels the rest.
func (r Runner) Sweep(ctx context.Context, scenarios []Scenario, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]Result, len(scenarios))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, sc := range scenarios {
		g.Go(func() error {
			res, err := r.Run(ctx, sc)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Fastest orders results by mean tick time.
func Fastest(results []Result) []Result {
	out := append([]Result(nil), results...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mean < out[j].Mean })
	return out
}

func summarize(times []time.Duration) Result {
	res := Result{Ticks: len(times)}
	if len(times) == 0 {
		return res
	}
	sorted := append([]time.Duration(nil), times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var total time.Duration
	for _, t := range sorted {
		total += t
	}
	res.Mean = total / time.Duration(len(sorted))
	res.P95 = sorted[int(0.95*float64(len(sorted)-1))]
	res.Max = sorted[len(sorted)-1]
	return res
}

func meanOpacity(cells []float32) float64 {
	n := len(cells) / sky.Channels
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 3; i < len(cells); i += sky.Channels {
		sum += float64(cells[i])
	}
	return sum / float64(n)
}

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("bench: create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("bench: encode %s: %w", path, err)
	}
	return f.Close()
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"cloudsky/internal/app"
	"cloudsky/internal/bench"
	"cloudsky/internal/clouds"
	"cloudsky/internal/core"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	ticks := flag.Int("ticks", 120, "ticks to simulate per scenario")
	dt := flag.Float64("dt", 1.0/60, "seconds integrated per tick")
	viewerSpeed := flag.Float64("viewer-speed", 0, "viewer drift along +x in world units per second")
	workers := flag.Int("workers", 1, "scenarios evaluated concurrently")
	qualities := flag.String("qualities", "", "comma-separated qualities to sweep (default: -quality only)")
	backends := flag.String("backends", "", "comma-separated backends to sweep (default: -backend only)")
	out := flag.String("out", "", "directory for sky and density PNGs")
	flag.Parse()

	log, err := app.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	base, err := app.Resolve(cfg, flag.CommandLine)
	if err != nil {
		log.WithError(err).Fatal("load settings")
	}

	qs, err := parseQualities(*qualities, base.Quality)
	if err != nil {
		log.WithError(err).Fatal("parse qualities")
	}
	bs := splitList(*backends, base.Backend)
	if *workers <= 0 {
		*workers = runtime.NumCPU()
	}

	if *out != "" {
		if err := os.MkdirAll(*out, 0o755); err != nil {
			log.WithError(err).Fatal("create output directory")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := bench.Runner{
		Base:        base,
		Ticks:       *ticks,
		DT:          float32(*dt),
		ViewerSpeed: float32(*viewerSpeed),
		Capture:     *out != "",
		Log:         log,
	}
	scenarios := bench.Scenarios(qs, bs)
	log.WithFields(logrus.Fields{
		"scenarios": len(scenarios),
		"workers":   *workers,
		"ticks":     *ticks,
		"executors": core.ExecutorNames(),
	}).Info("sweep starting")

	start := time.Now()
	results, err := runner.Sweep(ctx, scenarios, *workers)
	if err != nil {
		log.WithError(err).Fatal("sweep failed")
	}

	fmt.Printf("%-16s %10s %10s %10s %10s %8s\n", "scenario", "mean", "p95", "max", "warmup", "opacity")
	for _, res := range bench.Fastest(results) {
		fmt.Printf("%-16s %10s %10s %10s %10s %8.3f\n", res.Scenario,
			res.Mean.Round(time.Microsecond), res.P95.Round(time.Microsecond),
			res.Max.Round(time.Microsecond), res.Warmup.Round(time.Millisecond), res.Opacity)
	}
	fmt.Printf("\nelapsed %s\n", time.Since(start).Round(time.Millisecond))

	if *out == "" {
		return
	}
	for _, res := range results {
		name := strings.ReplaceAll(res.Scenario.String(), "/", "-")
		if err := bench.WritePNG(filepath.Join(*out, name+"-sky.png"), res.Sky); err != nil {
			log.WithError(err).Error("write sky image")
		}
		if err := bench.WritePNG(filepath.Join(*out, name+"-density.png"), res.Density); err != nil {
			log.WithError(err).Error("write density image")
		}
	}
	log.WithField("dir", *out).Info("images written")
}

func splitList(s, fallback string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return []string{fallback}
	}
	return out
}

func parseQualities(s string, fallback clouds.Quality) ([]clouds.Quality, error) {
	var out []clouds.Quality
	for _, name := range splitList(s, fallback.String()) {
		q, err := clouds.ParseQuality(name)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

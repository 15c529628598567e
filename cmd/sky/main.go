//go:build ebiten

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"cloudsky/internal/app"
	"cloudsky/internal/clouds"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()

	log, err := app.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	skyCfg, err := app.Resolve(cfg, flag.CommandLine)
	if err != nil {
		log.WithError(err).Fatal("load settings")
	}

	sim, err := clouds.New(skyCfg, clouds.WithLogger(log))
	if err != nil {
		log.WithError(err).Fatal("initialize sky")
	}

	game := app.New(sim, cfg.Scale, cfg.TPS, log)
	w, h := game.Layout(0, 0)

	ebiten.SetWindowTitle("cloudsky - " + skyCfg.Quality.String())
	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(w, h)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.WithFields(logrus.Fields{"ticks": sim.Ticks()}).WithError(err).Fatal("run")
	}
}

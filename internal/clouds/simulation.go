// Package clouds ties the noise volumes, density map, wind and sky updater
// into a single simulation driven one tick per host frame.
package clouds

import (
	"errors"
	"fmt"
	"time"

	"cloudsky/internal/core"
	"cloudsky/internal/density"
	"cloudsky/internal/noise"
	"cloudsky/internal/sky"
	"cloudsky/internal/wind"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNotInitialized is returned by operations that need a live generation.
var ErrNotInitialized = errors.New("clouds: simulation not initialized")

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger routes simulation logs to l.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.log = l
		}
	}
}

// Simulation owns every buffer of one cloud sky. Tick, Initialize and
// Reinitialize must be called from a single goroutine.
type Simulation struct {
	log logrus.FieldLogger
	cfg Config

	generation uuid.UUID
	exec       core.Executor
	shape      *core.Volume
	detail     *core.Volume
	density    *density.Map
	wind       *wind.Transport
	comp       wind.Compensator
	sky        *sky.Updater
	lighting   sky.Lighting

	anchored   bool
	viewer     mgl32.Vec3
	ticks      uint64
	warmupTook time.Duration
}

// New builds a simulation and initializes it with cfg.
func New(cfg Config, opts ...Option) (*Simulation, error) {
	s := &Simulation{log: defaultLogger()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Initialize(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func defaultLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

// Initialize releases any previous generation, builds every buffer for cfg
// and runs the warm-up cycle. On error nothing is left allocated.
func (s *Simulation) Initialize(cfg Config) error {
	if s.log == nil {
		s.log = defaultLogger()
	}
	s.release()
	start := time.Now()

	cfg, notes := cfg.Normalize()
	for _, n := range notes {
		s.log.WithField("correction", n).Debug("config corrected")
	}
	for _, w := range cfg.Warnings() {
		s.log.Warn(w)
	}

	exec, err := sky.ResolveBackend(cfg.Backend)
	if err != nil {
		return fmt.Errorf("clouds: initialize: %w", err)
	}

	dmap, err := buildDensity(cfg, exec)
	if err != nil {
		return fmt.Errorf("clouds: initialize: %w", err)
	}

	shapeRes := noise.ShapeResolution(int(cfg.Quality))
	detailRes := noise.DetailResolution(shapeRes)
	gen := noise.NewGenerator(exec)
	shape := gen.Generate(shapeRes, cfg.Seed)
	detail := gen.GenerateDetail(detailRes, cfg.Seed+1)

	viewer := cfg.Viewer.Mul(cfg.WorldScale)
	s.cfg = cfg
	s.exec = exec
	s.shape = shape
	s.detail = detail
	s.density = dmap
	s.wind = wind.NewTransport(cfg.WindDirection, cfg.WindSpeed)
	s.comp.Reset(viewer)
	s.lighting = cfg.Lighting()
	s.sky = sky.NewUpdater(sky.Options{
		Quality:  int(cfg.Quality),
		Shape:    shape,
		Detail:   detail,
		Executor: exec,
		Layer:    sky.DefaultLayer(),
	})
	s.generation = uuid.New()
	s.viewer = cfg.Viewer

	for i := 0; i < sky.Slices; i++ {
		s.step(0, viewer, true)
	}
	s.anchored = false
	s.warmupTook = time.Since(start)

	upd := s.sky.UpdateBuffer()
	img := s.sky.Current()
	s.log.WithFields(logrus.Fields{
		"generation": s.generation,
		"quality":    cfg.Quality.String(),
		"update":     fmt.Sprintf("%dx%d", upd.W, upd.H),
		"sky":        fmt.Sprintf("%dx%d", img.W, img.H),
		"shape":      shapeRes,
		"detail":     detailRes,
		"backend":    exec.Name(),
		"static_map": dmap.Static(),
		"took":       s.warmupTook,
	}).Info("cloud sky initialized")
	return nil
}

func buildDensity(cfg Config, exec core.Executor) (*density.Map, error) {
	if cfg.GenerateCloudMap {
		return density.New(cfg.DensityParams(), exec), nil
	}
	img := cfg.CloudMap
	if img == nil && cfg.CloudMapPath != "" {
		loaded, err := density.LoadImage(cfg.CloudMapPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", density.ErrMissingDensityMap, err)
		}
		img = loaded
	}
	return density.FromImage(img, cfg.Coverage)
}

// Reinitialize drops the current generation and initializes from cfg.
// Handles taken before the call become invalid.
func (s *Simulation) Reinitialize(cfg Config) error {
	prev := s.generation
	s.release()
	if err := s.Initialize(cfg); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"previous": prev, "generation": s.generation}).Info("cloud sky reinitialized")
	return nil
}

func (s *Simulation) release() {
	s.generation = uuid.Nil
	s.exec = nil
	s.shape = nil
	s.detail = nil
	s.density = nil
	s.wind = nil
	s.comp = wind.Compensator{}
	s.sky = nil
	s.anchored = false
	s.ticks = 0
}

// Initialized reports whether a generation is live.
func (s *Simulation) Initialized() bool { return s.sky != nil }

// Tick advances the simulation by dt seconds with the viewer at the given
// world position. It is a no-op before a successful Initialize.
func (s *Simulation) Tick(dt float32, viewer mgl32.Vec3) {
	if !s.Initialized() {
		return
	}
	if dt < 0 || dt != dt {
		dt = 0
	}
	s.viewer = viewer
	s.step(dt, viewer.Mul(s.cfg.WorldScale), false)
}

// step runs one tick in cloud units: wind, density, then sky.
func (s *Simulation) step(dt float32, viewer mgl32.Vec3, warmup bool) {
	windStep := s.wind.Integrate(dt)
	shift := s.comp.Shift(viewer, windStep, warmup || !s.anchored)
	s.anchored = true

	s.density.Tick(dt, s.wind.Position, s.cfg.CoverageChangeTo)
	s.sky.Tick(sky.TickInput{
		Wind:     s.wind.Position,
		Viewer:   mgl32.Vec2{viewer[0], viewer[2]},
		Shift:    shift,
		Lighting: s.lighting,
		Density:  s.density.Grid(),
		First:    warmup,
	})
	s.ticks++
}

// SetCoverage overrides the current coverage without blending.
func (s *Simulation) SetCoverage(v float32) {
	if !s.Initialized() {
		return
	}
	s.density.SetCoverage(v)
	s.cfg.Coverage = s.density.Coverage().Current
}

// SetCoverageTarget changes the coverage that incoming clouds drift toward.
func (s *Simulation) SetCoverageTarget(v float32) {
	s.cfg.CoverageChangeTo = clampUnit(v)
}

// SetQualityAndCoverage rebuilds the sky at a new tier, starting from the
// given coverage. The rest of the configuration is kept.
func (s *Simulation) SetQualityAndCoverage(q Quality, coverage float32) error {
	if !s.Initialized() {
		return ErrNotInitialized
	}
	cfg := s.cfg
	cfg.Quality = q
	cfg.Coverage = coverage
	cfg.Viewer = s.viewer
	return s.Reinitialize(cfg)
}

// Config returns the normalized configuration of the live generation.
func (s *Simulation) Config() Config { return s.cfg }

// Generation identifies the live set of buffers; uuid.Nil when released.
func (s *Simulation) Generation() uuid.UUID { return s.generation }

// Frame reports the slice the next tick refreshes.
func (s *Simulation) Frame() int {
	if !s.Initialized() {
		return 0
	}
	return s.sky.Frame()
}

// Ticks counts ticks since Initialize, warm-up included.
func (s *Simulation) Ticks() uint64 { return s.ticks }

// Coverage reports the coverage state of the density map.
func (s *Simulation) Coverage() density.Coverage {
	if !s.Initialized() {
		return density.Coverage{}
	}
	return s.density.Coverage()
}

// Wind reports the wind state.
func (s *Simulation) Wind() wind.Transport {
	if !s.Initialized() {
		return wind.Transport{}
	}
	return *s.wind
}

// LastShift reports the viewer compensation applied by the last tick.
func (s *Simulation) LastShift() mgl32.Vec2 { return s.comp.Last() }

// UpdateBuffer exposes the low-resolution staging buffer for diagnostics.
func (s *Simulation) UpdateBuffer() *core.Grid {
	if !s.Initialized() {
		return nil
	}
	return s.sky.UpdateBuffer()
}

// WarmupDuration reports how long the last Initialize took.
func (s *Simulation) WarmupDuration() time.Duration { return s.warmupTook }

func clampUnit(v float32) float32 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

//go:build ebiten

package app

import (
	"time"

	"cloudsky/internal/clouds"
	"cloudsky/internal/core"
	"cloudsky/internal/render"
	"cloudsky/internal/ui"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sirupsen/logrus"
)

const (
	hudWidth     = 260
	viewerSpeed  = 40 // world units per second
	coverageStep = 0.05
)

// Game adapts a cloud simulation to the ebiten.Game interface.
type Game struct {
	sim     *clouds.Simulation
	log     logrus.FieldLogger
	painter *render.GridPainter
	overlay *ui.Overlay
	hud     *ui.HUD
	clock   *core.FixedStep

	viewer   mgl32.Vec3
	scale    float64
	paused   bool
	tickOnce bool
}

// New constructs a Game for the provided simulation.
func New(sim *clouds.Simulation, scale float64, tps int, log logrus.FieldLogger) *Game {
	g := &Game{
		sim:   sim,
		log:   log,
		scale: scale,
		clock: core.NewFixedStep(tps),
	}
	g.rebuild()
	return g
}

// rebuild sizes the painter and panels after the sky resolution changed.
func (g *Game) rebuild() {
	h, err := g.sim.SkyImage()
	if err != nil {
		return
	}
	g.painter = render.NewGridPainter(h.Image.W, h.Image.H)
	g.overlay = ui.NewOverlay(g.sim)
	g.hud = ui.NewHUD(g.sim, hudWidth)
}

// Reset reinitializes the simulation with the provided seed.
func (g *Game) Reset(seed int64) {
	cfg := g.sim.Config()
	cfg.Seed = seed
	cfg.Viewer = g.viewer
	if err := g.sim.Reinitialize(cfg); err != nil {
		g.log.WithError(err).Error("reinitialize failed")
		return
	}
	g.tickOnce = false
	g.rebuild()
}

// Update handles per-frame logic and advances the simulation.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.paused = false
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.sim.Config().Seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(time.Now().UnixNano())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.cycleQuality()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft) {
		g.sim.SetCoverage(g.sim.Coverage().Current - coverageStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketRight) {
		g.sim.SetCoverage(g.sim.Coverage().Current + coverageStep)
	}

	dt := g.clock.Elapsed()
	g.moveViewer(dt)

	if g.overlay != nil {
		g.overlay.Update()
	}
	if g.hud != nil {
		w, _ := g.painter.Size()
		g.hud.Update(int(float64(w) * g.scale))
	}

	if !g.paused || g.tickOnce {
		g.sim.Tick(dt, g.viewer)
		g.tickOnce = false
	}
	return nil
}

func (g *Game) cycleQuality() {
	q := g.sim.Config().Quality.Next()
	if err := g.sim.SetQualityAndCoverage(q, g.sim.Coverage().Current); err != nil {
		g.log.WithError(err).Error("quality change failed")
		return
	}
	g.rebuild()
}

func (g *Game) moveViewer(dt float32) {
	var d mgl32.Vec3
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyUp) {
		d[2]--
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyLeft) {
		d[0]--
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyRight) {
		d[0]++
	}
	if ebiten.IsKeyPressed(ebiten.KeyDown) {
		d[2]++
	}
	if d.Len() == 0 {
		return
	}
	g.viewer = g.viewer.Add(d.Normalize().Mul(viewerSpeed * dt))
}

// Draw renders the current sky.
func (g *Game) Draw(screen *ebiten.Image) {
	h, err := g.sim.SkyImage()
	if err != nil || g.painter == nil {
		return
	}
	if w, sh := g.painter.Size(); w != h.Image.W || sh != h.Image.H {
		// quality changed from the HUD
		g.painter = render.NewGridPainter(h.Image.W, h.Image.H)
	}
	var geo ebiten.GeoM
	geo.Scale(g.scale, g.scale)
	g.painter.BlitSky(screen, h.Image, render.NewBackdrop(g.sim.Skybox().AtmosphereTint), geo)
	if g.overlay != nil {
		g.overlay.Draw(screen, g.scale)
	}
	if g.hud != nil {
		w, sh := g.painter.Size()
		g.hud.Draw(screen, int(float64(w)*g.scale), int(float64(sh)*g.scale))
	}
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.painter == nil {
		return outsideWidth, outsideHeight
	}
	w, h := g.painter.Size()
	return int(float64(w)*g.scale) + hudWidth, int(float64(h) * g.scale)
}

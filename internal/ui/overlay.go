//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"cloudsky/internal/clouds"
	"cloudsky/internal/render"
	"cloudsky/internal/sky"
	"cloudsky/internal/wind"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	insetMargin  = 8
	densityInset = 128
)

// Overlay draws optional debugging visuals on top of the sky.
type Overlay struct {
	sim *clouds.Simulation

	showDensity bool
	showUpdate  bool
	showWind    bool
	showSlice   bool

	densityPainter *render.GridPainter
	updatePainter  *render.GridPainter
	pixel          *ebiten.Image
}

// NewOverlay constructs a new overlay instance.
func NewOverlay(sim *clouds.Simulation) *Overlay {
	o := &Overlay{sim: sim}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Update toggles the individual layers.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showDensity = !o.showDensity
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showUpdate = !o.showUpdate
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit3) {
		o.showWind = !o.showWind
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit4) {
		o.showSlice = !o.showSlice
	}
}

// Draw renders the enabled layers over a sky drawn at the given scale.
func (o *Overlay) Draw(screen *ebiten.Image, scale float64) {
	if o.sim == nil || !o.sim.Initialized() {
		return
	}
	if scale <= 0 {
		scale = 1
	}
	if o.showSlice {
		o.drawSlice(screen, scale)
	}
	if o.showDensity {
		o.drawDensity(screen)
	}
	if o.showUpdate {
		o.drawUpdate(screen)
	}
	if o.showWind {
		o.drawWind(screen)
	}
}

func (o *Overlay) drawDensity(screen *ebiten.Image) {
	h, err := o.sim.DensityMap()
	if err != nil {
		return
	}
	g := h.Map
	if o.densityPainter == nil {
		o.densityPainter = render.NewGridPainter(g.W, g.H)
	}
	var geo ebiten.GeoM
	geo.Scale(densityInset/float64(g.W), densityInset/float64(g.H))
	geo.Translate(insetMargin, insetMargin)
	o.densityPainter.BlitDensity(screen, g, geo)
}

func (o *Overlay) drawUpdate(screen *ebiten.Image) {
	g := o.sim.UpdateBuffer()
	if g == nil {
		return
	}
	if w, h := sizeOf(o.updatePainter); w != g.W || h != g.H {
		o.updatePainter = render.NewGridPainter(g.W, g.H)
	}
	var geo ebiten.GeoM
	geo.Translate(insetMargin, insetMargin*2+densityInset)
	o.updatePainter.BlitSky(screen, g, render.NewBackdrop(o.sim.Skybox().AtmosphereTint), geo)
}

// drawSlice marks the sky blocks refreshed by the most recent tick.
func (o *Overlay) drawSlice(screen *ebiten.Image, scale float64) {
	g := o.sim.UpdateBuffer()
	if g == nil {
		return
	}
	slice := (o.sim.Frame() + sky.Slices - 1) % sky.Slices
	block := float64(sky.Scale) * scale
	col := color.RGBA{R: 255, G: 210, B: 60, A: 160}
	for y := slice / 4; y < g.H; y += 4 {
		for x := slice % 4; x < g.W; x += 4 {
			o.drawPoint(screen, (float64(x)+0.5)*block, (float64(y)+0.5)*block, math.Max(1, block*0.35), col)
		}
	}
}

func (o *Overlay) drawWind(screen *ebiten.Image) {
	const (
		headAngle = math.Pi / 6
		maxLength = 90.0
		minLength = 18.0
	)
	w := o.sim.Wind()
	cx := float64(screen.Bounds().Dx()) - 2*maxLength
	cy := maxLength + insetMargin
	speed := float64(w.Speed) * float64(w.Direction.Len())
	if speed < 1e-3 {
		o.drawPoint(screen, cx, cy, 6, color.RGBA{R: 90, G: 130, B: 170, A: 120})
		return
	}
	dir := w.Direction.Normalize()
	nx, ny := float64(dir[0]), float64(dir[1])
	normalized := clamp01(speed / wind.MaxRecommendedSpeed)
	length := minLength + (maxLength-minLength)*math.Sqrt(normalized)
	tipX, tipY := cx+nx*length*0.5, cy+ny*length*0.5
	tailX, tailY := cx-nx*length*0.5, cy-ny*length*0.5
	headLength := length * 0.3
	thickness := 2 + 2*normalized

	col := interpolateColor(normalized)
	o.drawLine(screen, tailX, tailY, tipX-nx*headLength*0.5, tipY-ny*headLength*0.5, thickness, col)
	angle := math.Atan2(ny, nx)
	o.drawLine(screen, tipX, tipY, tipX-math.Cos(angle+headAngle)*headLength, tipY-math.Sin(angle+headAngle)*headLength, thickness*0.85, col)
	o.drawLine(screen, tipX, tipY, tipX-math.Cos(angle-headAngle)*headLength, tipY-math.Sin(angle-headAngle)*headLength, thickness*0.85, col)
}

func (o *Overlay) drawPoint(screen *ebiten.Image, x, y, size float64, col color.RGBA) {
	if o.pixel == nil || size <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(size, size)
	op.GeoM.Translate(x-size*0.5, y-size*0.5)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}

func (o *Overlay) drawLine(screen *ebiten.Image, x1, y1, x2, y2, thickness float64, col color.RGBA) {
	if o.pixel == nil || thickness <= 0 {
		return
	}
	dx := x2 - x1
	dy := y2 - y1
	length := math.Hypot(dx, dy)
	if length <= 1e-4 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(length, thickness)
	op.GeoM.Translate(0, -thickness/2)
	op.GeoM.Rotate(math.Atan2(dy, dx))
	op.GeoM.Translate(x1, y1)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}

func sizeOf(gp *render.GridPainter) (int, int) {
	if gp == nil {
		return 0, 0
	}
	return gp.Size()
}

func interpolateColor(t float64) color.RGBA {
	t = clamp01(t)
	r := uint8(math.Round(80 + 70*t))
	g := uint8(math.Round(170 + 70*t))
	b := uint8(math.Round(230 + 20*t))
	a := uint8(math.Round(150 + 90*t))
	return color.RGBA{R: r, G: g, B: b, A: a}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

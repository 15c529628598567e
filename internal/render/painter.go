//go:build ebiten

package render

import (
	"cloudsky/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
)

// GridPainter uploads a simulation grid into a single RGBA image.
type GridPainter struct {
	w, h int
	img  *ebiten.Image
	buf  []byte
}

// NewGridPainter allocates a painter for a grid of size w*h.
func NewGridPainter(w, h int) *GridPainter {
	gp := &GridPainter{w: w, h: h, buf: make([]byte, 4*w*h)}
	gp.img = ebiten.NewImage(w, h)
	return gp
}

// BlitSky composites the sky grid over bg and draws it scaled to dst.
func (gp *GridPainter) BlitSky(dst *ebiten.Image, sky *core.Grid, bg Backdrop, geo ebiten.GeoM) {
	if sky == nil || sky.W != gp.w || sky.H != gp.h {
		return
	}
	FillSkyRGBA(gp.buf, sky, bg)
	gp.draw(dst, geo)
}

// BlitDensity draws channel 0 of g as greyscale.
func (gp *GridPainter) BlitDensity(dst *ebiten.Image, g *core.Grid, geo ebiten.GeoM) {
	if g == nil || g.W != gp.w || g.H != gp.h {
		return
	}
	FillDensityRGBA(gp.buf, g)
	gp.draw(dst, geo)
}

func (gp *GridPainter) draw(dst *ebiten.Image, geo ebiten.GeoM) {
	gp.img.WritePixels(gp.buf)
	op := &ebiten.DrawImageOptions{GeoM: geo}
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(gp.img, op)
}

// Size returns the dimensions of the underlying image.
func (gp *GridPainter) Size() (int, int) { return gp.w, gp.h }

// Package render converts simulation grids into RGBA pixels for the viewer
// and for image export.
package render

import (
	"image"
	"image/color"
	"math"

	"cloudsky/internal/core"

	"github.com/go-gl/mathgl/mgl32"
)

// unwrittenColor marks update texels that were never marched.
var unwrittenColor = color.RGBA{R: 255, G: 0, B: 255, A: 255}

// Backdrop is the clear-sky gradient the clouds are composited over.
type Backdrop struct {
	Zenith  mgl32.Vec3
	Horizon mgl32.Vec3
}

// NewBackdrop derives the gradient from the atmosphere tint: the horizon
// fades halfway toward white.
func NewBackdrop(tint mgl32.Vec3) Backdrop {
	return Backdrop{Zenith: tint, Horizon: tint.Add(mgl32.Vec3{1, 1, 1}.Sub(tint).Mul(0.5))}
}

// at returns the backdrop colour for row y of an h-row sky image.
func (b Backdrop) at(y, h int) mgl32.Vec3 {
	t := (float32(y) + 0.5) / float32(h)
	t = t * t
	return b.Zenith.Add(b.Horizon.Sub(b.Zenith).Mul(t))
}

// FillSkyRGBA composites a four-channel sky grid (premultiplied RGB plus
// opacity) over the backdrop into buf, which must hold 4*W*H bytes.
func FillSkyRGBA(buf []byte, sky *core.Grid, bg Backdrop) {
	cells := sky.Cells()
	for y := 0; y < sky.H; y++ {
		back := bg.at(y, sky.H)
		for x := 0; x < sky.W; x++ {
			i := sky.Index(x, y)
			base := (y*sky.W + x) * 4
			a := cells[i+3]
			if a < 0 {
				buf[base+0] = unwrittenColor.R
				buf[base+1] = unwrittenColor.G
				buf[base+2] = unwrittenColor.B
				buf[base+3] = unwrittenColor.A
				continue
			}
			buf[base+0] = toByte(cells[i+0] + back[0]*(1-a))
			buf[base+1] = toByte(cells[i+1] + back[1]*(1-a))
			buf[base+2] = toByte(cells[i+2] + back[2]*(1-a))
			buf[base+3] = 255
		}
	}
}

// FillDensityRGBA writes channel 0 of g as grey levels into buf.
func FillDensityRGBA(buf []byte, g *core.Grid) {
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			v := toByte(g.Value(x, y))
			base := (y*g.W + x) * 4
			buf[base+0] = v
			buf[base+1] = v
			buf[base+2] = v
			buf[base+3] = 255
		}
	}
}

// SkyImage renders a sky grid into a new image.
func SkyImage(sky *core.Grid, bg Backdrop) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, sky.W, sky.H))
	FillSkyRGBA(img.Pix, sky, bg)
	return img
}

// DensityImage renders a density grid into a new greyscale image.
func DensityImage(g *core.Grid) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.W, g.H))
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			img.Pix[y*img.Stride+x] = toByte(g.Value(x, y))
		}
	}
	return img
}

func toByte(v float32) uint8 {
	if v <= 0 || v != v {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(float64(v) * 255))
}

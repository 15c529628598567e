package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Grid stores a 2D field of float32 texels in row-major order. Each texel
// holds Channels consecutive values (1 for scalar maps, 4 for RGBA images).
type Grid struct {
	W, H     int
	Channels int
	data     []float32
}

// NewGrid allocates a grid with the given dimensions and channel count.
func NewGrid(w, h, channels int) *Grid {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	if channels <= 0 {
		channels = 1
	}
	if channels > 4 {
		channels = 4
	}
	return &Grid{W: w, H: h, Channels: channels, data: make([]float32, w*h*channels)}
}

// Cells exposes the backing slice so callers can read/write values directly.
func (g *Grid) Cells() []float32 { return g.data }

// Size reports the grid dimensions.
func (g *Grid) Size() Size { return Size{W: g.W, H: g.H} }

// Index returns the offset of the first channel of texel (x, y).
func (g *Grid) Index(x, y int) int { return (y*g.W + x) * g.Channels }

// Wrap applies toroidal wrapping to the provided coordinates.
func (g *Grid) Wrap(x, y int) (int, int) {
	x = (x%g.W + g.W) % g.W
	y = (y%g.H + g.H) % g.H
	return x, y
}

// Value returns channel 0 at the wrapped coordinates.
func (g *Grid) Value(x, y int) float32 {
	x, y = g.Wrap(x, y)
	return g.data[g.Index(x, y)]
}

// SetValue writes channel 0 at (x, y). Coordinates must be in range.
func (g *Grid) SetValue(x, y int, v float32) {
	g.data[g.Index(x, y)] = v
}

// Texel returns up to four channels at the wrapped coordinates. Missing
// channels read as zero.
func (g *Grid) Texel(x, y int) mgl32.Vec4 {
	x, y = g.Wrap(x, y)
	var out mgl32.Vec4
	copy(out[:g.Channels], g.data[g.Index(x, y):])
	return out
}

// SetTexel writes the first Channels components of v at (x, y).
func (g *Grid) SetTexel(x, y int, v mgl32.Vec4) {
	copy(g.data[g.Index(x, y):g.Index(x, y)+g.Channels], v[:g.Channels])
}

// Bilinear samples channel 0 at fractional texel coordinates, wrapping on
// both axes. Integer coordinates land exactly on texel values.
func (g *Grid) Bilinear(fx, fy float32) float32 {
	x0f := float32(math.Floor(float64(fx)))
	y0f := float32(math.Floor(float64(fy)))
	tx := fx - x0f
	ty := fy - y0f
	x0, y0 := int(x0f), int(y0f)
	a := g.Value(x0, y0)
	b := g.Value(x0+1, y0)
	c := g.Value(x0, y0+1)
	d := g.Value(x0+1, y0+1)
	top := a + (b-a)*tx
	bottom := c + (d-c)*tx
	return top + (bottom-top)*ty
}

// BilinearTexel samples every channel at fractional texel coordinates. The
// x axis wraps; the y axis clamps to the first and last rows, which suits
// equirectangular sky images where rows map to elevation.
func (g *Grid) BilinearTexel(fx, fy float32) mgl32.Vec4 {
	maxY := float32(g.H - 1)
	if fy < 0 {
		fy = 0
	}
	if fy > maxY {
		fy = maxY
	}
	x0f := float32(math.Floor(float64(fx)))
	y0f := float32(math.Floor(float64(fy)))
	tx := fx - x0f
	ty := fy - y0f
	x0, y0 := int(x0f), int(y0f)
	y1 := y0 + 1
	if y1 > g.H-1 {
		y1 = g.H - 1
	}
	a := g.Texel(x0, y0)
	b := g.Texel(x0+1, y0)
	c := g.Texel(x0, y1)
	d := g.Texel(x0+1, y1)
	top := a.Add(b.Sub(a).Mul(tx))
	bottom := c.Add(d.Sub(c).Mul(tx))
	return top.Add(bottom.Sub(top).Mul(ty))
}

// SameShape reports whether other has identical dimensions and channels.
func (g *Grid) SameShape(other *Grid) bool {
	return other != nil && g.W == other.W && g.H == other.H && g.Channels == other.Channels
}

// CopyFrom overwrites g with the contents of src. Both grids must share a shape.
func (g *Grid) CopyFrom(src *Grid) {
	if !g.SameShape(src) {
		panic(fmt.Sprintf("core: copy between mismatched grids %dx%dx%d <- %dx%dx%d",
			g.W, g.H, g.Channels, src.W, src.H, src.Channels))
	}
	copy(g.data, src.data)
}

// Fill sets every channel of every texel to v.
func (g *Grid) Fill(v float32) {
	for i := range g.data {
		g.data[i] = v
	}
}

// Clear fills the grid with zeros.
func (g *Grid) Clear() { g.Fill(0) }

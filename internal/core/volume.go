package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Volume is a periodic N×N×N grid of four-channel float32 samples.
type Volume struct {
	N    int
	data []float32
}

// NewVolume allocates a cubic volume with side length n.
func NewVolume(n int) *Volume {
	if n <= 0 {
		n = 1
	}
	return &Volume{N: n, data: make([]float32, n*n*n*4)}
}

// Cells exposes the backing slice. Four values per cell, x fastest.
func (v *Volume) Cells() []float32 { return v.data }

// Index returns the offset of the first channel of cell (x, y, z).
func (v *Volume) Index(x, y, z int) int { return ((z*v.N+y)*v.N + x) * 4 }

func (v *Volume) wrap(i int) int { return (i%v.N + v.N) % v.N }

// At returns the cell at the wrapped coordinates.
func (v *Volume) At(x, y, z int) mgl32.Vec4 {
	i := v.Index(v.wrap(x), v.wrap(y), v.wrap(z))
	return mgl32.Vec4{v.data[i], v.data[i+1], v.data[i+2], v.data[i+3]}
}

// Set writes the cell at (x, y, z). Coordinates must be in range.
func (v *Volume) Set(x, y, z int, val mgl32.Vec4) {
	i := v.Index(x, y, z)
	v.data[i] = val[0]
	v.data[i+1] = val[1]
	v.data[i+2] = val[2]
	v.data[i+3] = val[3]
}

// Sample trilinearly interpolates the volume at p, where p is expressed in
// normalized tiling units: one unit spans the whole volume on each axis.
func (v *Volume) Sample(p mgl32.Vec3) mgl32.Vec4 {
	n := float32(v.N)
	fx, fy, fz := p[0]*n, p[1]*n, p[2]*n
	x0f := float32(math.Floor(float64(fx)))
	y0f := float32(math.Floor(float64(fy)))
	z0f := float32(math.Floor(float64(fz)))
	tx, ty, tz := fx-x0f, fy-y0f, fz-z0f
	x0, y0, z0 := int(x0f), int(y0f), int(z0f)

	lerp := func(a, b mgl32.Vec4, t float32) mgl32.Vec4 { return a.Add(b.Sub(a).Mul(t)) }
	c00 := lerp(v.At(x0, y0, z0), v.At(x0+1, y0, z0), tx)
	c10 := lerp(v.At(x0, y0+1, z0), v.At(x0+1, y0+1, z0), tx)
	c01 := lerp(v.At(x0, y0, z0+1), v.At(x0+1, y0, z0+1), tx)
	c11 := lerp(v.At(x0, y0+1, z0+1), v.At(x0+1, y0+1, z0+1), tx)
	return lerp(lerp(c00, c10, ty), lerp(c01, c11, ty), tz)
}

// Package noise builds the periodic 3D cell-noise volumes used as cloud
// shape primitives.
package noise

import (
	"math"

	"cloudsky/internal/core"
	rng "cloudsky/pkg/core"

	"github.com/go-gl/mathgl/mgl32"
)

// Resolutions lists the supported volume side lengths in ascending order.
var Resolutions = []int{16, 32, 64, 128}

// NearestResolution maps n onto the closest supported side length. Ties
// resolve to the smaller resolution.
func NearestResolution(n int) int {
	best := Resolutions[0]
	bestDist := absInt(n - best)
	for _, r := range Resolutions[1:] {
		if d := absInt(n - r); d < bestDist {
			best, bestDist = r, d
		}
	}
	return best
}

// ShapeResolution returns the coarse volume size for a sky quality value
// (the update-buffer width). Detail volumes use half of it.
func ShapeResolution(quality int) int {
	return NearestResolution(quality / 2)
}

// DetailResolution returns the fine volume size paired with a shape size.
func DetailResolution(shape int) int {
	return NearestResolution(shape / 2)
}

// Octave frequencies in feature cells per volume period.
var (
	shapeOctaves  = [5]int{2, 4, 8, 16, 32}
	detailOctaves = [3]int{4, 8, 16}
)

// Generator evaluates noise kernels on an executor.
type Generator struct {
	exec core.Executor
}

// NewGenerator returns a generator running on exec. A nil executor runs
// serially.
func NewGenerator(exec core.Executor) *Generator {
	if exec == nil {
		exec = core.SerialExecutor{}
	}
	return &Generator{exec: exec}
}

// Generate builds the coarse shape volume. Channel R is a low-frequency
// Worley FBM used as the base shape, G/B/A are progressively higher
// frequency FBM layers used to carve it.
func (g *Generator) Generate(resolution int, seed int64) *core.Volume {
	n := NearestResolution(resolution)
	var layers [len(shapeOctaves)]*cellTable
	for i, f := range shapeOctaves {
		layers[i] = newCellTable(f, seed, uint64(i+1))
	}
	return g.fill(n, func(p mgl32.Vec3) mgl32.Vec4 {
		var w [len(shapeOctaves)]float32
		for i, l := range layers {
			w[i] = l.worley(p)
		}
		return mgl32.Vec4{
			fbm3(w[0], w[1], w[2]),
			fbm3(w[1], w[2], w[3]),
			fbm3(w[2], w[3], w[4]),
			fbm3(w[3], w[4], w[4]),
		}
	})
}

// GenerateDetail builds the fine volume: three Worley octaves in R/G/B and
// their FBM in A.
func (g *Generator) GenerateDetail(resolution int, seed int64) *core.Volume {
	n := NearestResolution(resolution)
	var layers [len(detailOctaves)]*cellTable
	for i, f := range detailOctaves {
		layers[i] = newCellTable(f, seed, uint64(100+i))
	}
	return g.fill(n, func(p mgl32.Vec3) mgl32.Vec4 {
		a := layers[0].worley(p)
		b := layers[1].worley(p)
		c := layers[2].worley(p)
		return mgl32.Vec4{a, b, c, fbm3(a, b, c)}
	})
}

// fill evaluates fn at the centre of every cell. Each z slice is independent.
func (g *Generator) fill(n int, fn func(p mgl32.Vec3) mgl32.Vec4) *core.Volume {
	vol := core.NewVolume(n)
	inv := 1 / float32(n)
	g.exec.Rows(n, func(z0, z1 int) {
		for z := z0; z < z1; z++ {
			pz := (float32(z) + 0.5) * inv
			for y := 0; y < n; y++ {
				py := (float32(y) + 0.5) * inv
				for x := 0; x < n; x++ {
					px := (float32(x) + 0.5) * inv
					vol.Set(x, y, z, fn(mgl32.Vec3{px, py, pz}))
				}
			}
		}
	})
	return vol
}

func fbm3(a, b, c float32) float32 {
	return a*0.625 + b*0.25 + c*0.125
}

// cellTable holds one jittered feature point per cell of a periodic
// freq×freq×freq lattice.
type cellTable struct {
	freq   int
	points []mgl32.Vec3
}

func newCellTable(freq int, seed int64, stream uint64) *cellTable {
	r := rng.NewStreamRNG(seed, stream)
	pts := make([]mgl32.Vec3, freq*freq*freq)
	for i := range pts {
		j := r.Jitter3()
		pts[i] = mgl32.Vec3{j[0], j[1], j[2]}
	}
	return &cellTable{freq: freq, points: pts}
}

func (t *cellTable) point(x, y, z int) mgl32.Vec3 {
	f := t.freq
	x = (x%f + f) % f
	y = (y%f + f) % f
	z = (z%f + f) % f
	return t.points[(z*f+y)*f+x]
}

// worley returns 1 minus the distance to the nearest feature point, in cell
// units and clamped to [0, 1]. p is in normalized tiling units.
func (t *cellTable) worley(p mgl32.Vec3) float32 {
	f := float32(t.freq)
	sx, sy, sz := p[0]*f, p[1]*f, p[2]*f
	cx := int(math.Floor(float64(sx)))
	cy := int(math.Floor(float64(sy)))
	cz := int(math.Floor(float64(sz)))
	best := float32(math.MaxFloat32)
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				ox, oy, oz := cx+dx, cy+dy, cz+dz
				fp := t.point(ox, oy, oz)
				ddx := float32(ox) + fp[0] - sx
				ddy := float32(oy) + fp[1] - sy
				ddz := float32(oz) + fp[2] - sz
				if d := ddx*ddx + ddy*ddy + ddz*ddz; d < best {
					best = d
				}
			}
		}
	}
	v := 1 - float32(math.Sqrt(float64(best)))
	if v < 0 {
		return 0
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

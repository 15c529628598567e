// Package density maintains the 2D cloud density field that drifts with the
// wind and eases toward a target coverage.
package density

import (
	"errors"
	"image"
	"image/draw"
	"math"

	"cloudsky/internal/core"

	"github.com/go-gl/mathgl/mgl32"
	xdraw "golang.org/x/image/draw"
)

// Size is the fixed side length of the density map.
const Size = 512

// reshapeSlices is how many ticks it takes to ease every texel toward the
// target once. Each tick reshapes one texel of every 4×4 block.
const reshapeSlices = 16

// ErrMissingDensityMap is returned when procedural generation is disabled and
// no external map was supplied.
var ErrMissingDensityMap = errors.New("density: external density map is missing")

// Params controls procedural generation and evolution.
type Params struct {
	// Coverage is the initial coverage used to build the first map.
	Coverage float32
	// CoverageChangeTo is the coverage incoming clouds drift toward.
	CoverageChangeTo float32
	Weights          Weights
	Seed             int64
	// CoverageRate is the fraction of the remaining coverage gap closed per second.
	CoverageRate float32
	// ReshapeRate is the fraction per second by which advected density eases
	// toward the procedural target.
	ReshapeRate float32
	// Softness widens the coverage threshold edge.
	Softness float32
}

// DefaultParams returns the stock coverage and cloud-type mix.
func DefaultParams() Params {
	return Params{
		Coverage:         0.4,
		CoverageChangeTo: 1.0,
		Weights:          NormalizeWeights(0.3, 0.3, 0.3),
		Seed:             10,
		CoverageRate:     0.02,
		ReshapeRate:      0.25,
		Softness:         0.2,
	}
}

// Map is the evolving density field. Texel values are kept in [0, 1].
type Map struct {
	params   Params
	grid     *core.Grid
	shape    *core.Grid
	pool     *core.TempPool
	exec     core.Executor
	coverage Coverage

	static   bool
	first    bool
	slice    int
	lastWind mgl32.Vec2
}

// New allocates a procedural map. The field is populated by the first Tick.
func New(p Params, exec core.Executor) *Map {
	if exec == nil {
		exec = core.SerialExecutor{}
	}
	if p.Softness <= 0 {
		p.Softness = 0.2
	}
	w := NormalizeWeights(p.Weights.Cumulus, p.Weights.Stratus, p.Weights.Stratocumulus)
	p.Weights = w
	return &Map{
		params:   p,
		grid:     core.NewGrid(Size, Size, 1),
		shape:    buildShape(Size, p.Seed, w, exec),
		pool:     core.NewTempPool(),
		exec:     exec,
		coverage: Coverage{Current: clamp01(p.Coverage), Target: clamp01(p.CoverageChangeTo)},
		first:    true,
	}
}

// FromImage builds a static map from an externally supplied image. The image
// is resampled to Size×Size and converted to luminance.
func FromImage(img image.Image, coverage float32) (*Map, error) {
	if img == nil {
		return nil, ErrMissingDensityMap
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrMissingDensityMap
	}
	rgba := image.NewRGBA(image.Rect(0, 0, Size, Size))
	if b.Dx() == Size && b.Dy() == Size {
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	} else {
		xdraw.BiLinear.Scale(rgba, rgba.Bounds(), img, b, xdraw.Src, nil)
	}

	g := core.NewGrid(Size, Size, 1)
	cells := g.Cells()
	for i := range cells {
		px := rgba.Pix[i*4 : i*4+3]
		lum := 0.299*float32(px[0]) + 0.587*float32(px[1]) + 0.114*float32(px[2])
		cells[i] = clamp01(lum / 255)
	}
	c := clamp01(coverage)
	return &Map{
		grid:     g,
		exec:     core.SerialExecutor{},
		coverage: Coverage{Current: c, Target: c},
		static:   true,
	}, nil
}

// Grid exposes the density field. Consumers must treat it as read-only.
func (m *Map) Grid() *core.Grid { return m.grid }

// Coverage reports the coverage state.
func (m *Map) Coverage() Coverage { return m.coverage }

// Weights reports the normalized cloud-type weights.
func (m *Map) Weights() Weights { return m.params.Weights }

// Static reports whether the map came from an external image.
func (m *Map) Static() bool { return m.static }

// Pending reports whether the next Tick will generate the map from scratch.
func (m *Map) Pending() bool { return m.first }

// SetCoverage overrides the current coverage directly, skipping the blend.
func (m *Map) SetCoverage(v float32) {
	m.coverage.Current = clamp01(v)
}

// Tick advances the field. The first call after New generates the map
// directly from the initial coverage; later calls advect the previous field
// by this tick's wind displacement and ease one slice of texels toward the
// target shape. Static maps ignore Tick.
func (m *Map) Tick(dt float32, windPosition mgl32.Vec2, coverageTarget float32) {
	if m.static {
		return
	}
	m.coverage.Target = clamp01(coverageTarget)

	if m.first {
		m.first = false
		m.lastWind = windPosition
		cov := m.coverage.Current
		ox, oy := shapeOffset(windPosition)
		m.exec.Rows(Size, func(y0, y1 int) {
			for y := y0; y < y1; y++ {
				for x := 0; x < Size; x++ {
					m.grid.SetValue(x, y, m.target(x, y, ox, oy, cov))
				}
			}
		})
		return
	}

	m.coverage.Blend(dt, m.params.CoverageRate)
	step := windPosition.Sub(m.lastWind)
	m.lastWind = windPosition

	k := reshapeFactor(m.params.ReshapeRate * dt * reshapeSlices)
	slice := m.slice
	m.slice = (m.slice + 1) % reshapeSlices
	cov := m.coverage.Current
	ox, oy := shapeOffset(windPosition)
	m.pool.Transform(m.grid, func(src, dst *core.Grid) {
		m.exec.Rows(Size, func(y0, y1 int) {
			for y := y0; y < y1; y++ {
				for x := 0; x < Size; x++ {
					v := src.Bilinear(float32(x)-step[0], float32(y)-step[1])
					if k > 0 && reshapeSliceOf(x, y) == slice {
						v += (m.target(x, y, ox, oy, cov) - v) * k
					}
					dst.SetValue(x, y, clamp01(v))
				}
			}
		})
	})
}

// reshapeSliceOf returns the slice owning texel (x, y).
func reshapeSliceOf(x, y int) int { return (y%4)*4 + x%4 }

func reshapeFactor(k float32) float32 {
	if k > 1 {
		return 1
	}
	if !(k > 0) {
		return 0
	}
	return k
}

// target evaluates the procedural density for texel (x, y) with the shape
// field scrolled by (ox, oy).
func (m *Map) target(x, y int, ox, oy, coverage float32) float32 {
	s := m.shape.Bilinear(float32(x)-ox, float32(y)-oy)
	edge := 1 - coverage
	return smoothstep(edge, edge+m.params.Softness, s)
}

// shapeOffset folds the accumulated wind position into one map period so
// long runs keep float32 precision.
func shapeOffset(wind mgl32.Vec2) (float32, float32) {
	return float32(math.Mod(float64(wind[0]), Size)), float32(math.Mod(float64(wind[1]), Size))
}

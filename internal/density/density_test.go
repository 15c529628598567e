package density

import (
	"errors"
	"image"
	"image/color"
	"math"
	"slices"
	"testing"

	"cloudsky/internal/core"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWeightsZeroSumUsesDefault(t *testing.T) {
	require.Equal(t, Weights{0.4, 0.3, 0.3}, NormalizeWeights(0, 0, 0))
	require.Equal(t, DefaultWeights, NormalizeWeights(-1, 0, -3))
}

func TestNormalizeWeightsSumToOne(t *testing.T) {
	cases := [][3]float32{{1, 2, 3}, {0.3, 0.3, 0.3}, {5, 0, 0}, {1e-4, 7, 0.2}, {-2, 1, 1}}
	for _, c := range cases {
		w := NormalizeWeights(c[0], c[1], c[2])
		assert.InDelta(t, 1.0, w.Sum(), 1e-6, "weights %v", c)
		assert.GreaterOrEqual(t, w.Cumulus, float32(0))
		assert.GreaterOrEqual(t, w.Stratus, float32(0))
		assert.GreaterOrEqual(t, w.Stratocumulus, float32(0))
	}
	w := NormalizeWeights(1, 2, 3)
	assert.InDelta(t, 1.0/6, w.Cumulus, 1e-6)
	assert.InDelta(t, 0.5, w.Stratocumulus, 1e-6)
}

func TestCoverageConvergesMonotonically(t *testing.T) {
	for _, start := range []Coverage{{Current: 0.1, Target: 0.9}, {Current: 1, Target: 0.2}, {Current: 0.5, Target: 0.5}} {
		c := start
		initial := c.Distance()
		prev := initial
		for i := 0; i < 2000; i++ {
			c.Blend(0.016, 1.5)
			d := c.Distance()
			if d > prev {
				t.Fatalf("distance increased at step %d: %v -> %v", i, prev, d)
			}
			if d > initial {
				t.Fatalf("distance exceeded initial at step %d", i)
			}
			if start.Current < start.Target && c.Current > c.Target {
				t.Fatalf("overshoot at step %d: %v > %v", i, c.Current, c.Target)
			}
			if start.Current > start.Target && c.Current < c.Target {
				t.Fatalf("overshoot at step %d: %v < %v", i, c.Current, c.Target)
			}
			prev = d
		}
		if prev > 1e-4 {
			t.Fatalf("coverage did not converge: distance %v", prev)
		}
	}
}

func TestCoverageBlendSnapsOnLargeStep(t *testing.T) {
	c := Coverage{Current: 0.2, Target: 0.7}
	c.Blend(10, 0.5)
	require.Equal(t, float32(0.7), c.Current)

	c = Coverage{Current: 0.2, Target: 0.7}
	c.Blend(0, 0.5)
	require.Equal(t, float32(0.2), c.Current)
}

func newTestMap(t *testing.T, coverage float32) *Map {
	t.Helper()
	p := DefaultParams()
	p.Coverage = coverage
	p.CoverageChangeTo = coverage
	return New(p, core.NewParallelExecutor())
}

func TestFirstTickGeneratesFromInitialCoverage(t *testing.T) {
	m := newTestMap(t, 0.6)
	require.True(t, m.Pending())
	m.Tick(0, mgl32.Vec2{}, 0.6)
	require.False(t, m.Pending())

	nonZero := 0
	for _, v := range m.Grid().Cells() {
		require.GreaterOrEqual(t, v, float32(0))
		require.LessOrEqual(t, v, float32(1))
		if v > 0 {
			nonZero++
		}
	}
	require.Greater(t, nonZero, 0, "coverage 0.6 should produce clouds")

	empty := newTestMap(t, 0)
	empty.Tick(0, mgl32.Vec2{}, 0)
	for _, v := range empty.Grid().Cells() {
		require.Zero(t, v)
	}
}

func TestTickAdvectsByWindStep(t *testing.T) {
	p := DefaultParams()
	p.Coverage = 0.5
	p.CoverageChangeTo = 0.5
	p.ReshapeRate = 0
	m := New(p, core.SerialExecutor{})
	m.Tick(0, mgl32.Vec2{}, 0.5)
	before := slices.Clone(m.Grid().Cells())

	m.Tick(0.1, mgl32.Vec2{3, -2}, 0.5)
	g := m.Grid()
	for _, pt := range [][2]int{{0, 0}, {10, 20}, {511, 511}, {300, 7}} {
		x, y := pt[0], pt[1]
		sx, sy := g.Wrap(x-3, y+2)
		want := before[sy*Size+sx]
		require.InDelta(t, want, g.Value(x, y), 1e-6, "texel (%d,%d)", x, y)
	}
}

func TestTickWithoutMotionIsStable(t *testing.T) {
	p := DefaultParams()
	p.ReshapeRate = 0
	m := New(p, core.NewParallelExecutor())
	m.Tick(0, mgl32.Vec2{5, 5}, 1)
	before := slices.Clone(m.Grid().Cells())
	m.Tick(0.5, mgl32.Vec2{5, 5}, 1)
	require.True(t, slices.Equal(before, m.Grid().Cells()))
}

func TestTickKeepsValuesClampedAndCoverageMoves(t *testing.T) {
	p := DefaultParams()
	p.Coverage = 0.1
	p.CoverageChangeTo = 0.9
	p.CoverageRate = 0.5
	p.ReshapeRate = 5
	m := New(p, core.NewParallelExecutor())
	wind := mgl32.Vec2{}
	for i := 0; i < 12; i++ {
		wind = wind.Add(mgl32.Vec2{1.7, 0.3})
		m.Tick(0.25, wind, 0.9)
		for _, v := range m.Grid().Cells() {
			if v < 0 || v > 1 {
				t.Fatalf("tick %d produced %v", i, v)
			}
		}
	}
	cov := m.Coverage()
	require.Greater(t, cov.Current, float32(0.1))
	require.LessOrEqual(t, cov.Current, float32(0.9))
}

func TestSetCoverageBypassesBlend(t *testing.T) {
	m := newTestMap(t, 0.3)
	m.SetCoverage(0.8)
	require.Equal(t, float32(0.8), m.Coverage().Current)
	m.SetCoverage(4)
	require.Equal(t, float32(1), m.Coverage().Current)
}

func TestFromImage(t *testing.T) {
	_, err := FromImage(nil, 0.5)
	require.True(t, errors.Is(err, ErrMissingDensityMap))

	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	m, err := FromImage(img, 0.5)
	require.NoError(t, err)
	require.True(t, m.Static())
	require.Equal(t, Size, m.Grid().W)
	for _, v := range m.Grid().Cells()[:64] {
		require.InDelta(t, 128.0/255, v, 0.01)
	}

	before := slices.Clone(m.Grid().Cells())
	m.Tick(1, mgl32.Vec2{10, 10}, 1)
	require.True(t, slices.Equal(before, m.Grid().Cells()), "static maps ignore ticks")

	full := image.NewRGBA(image.Rect(0, 0, Size, Size))
	full.Set(3, 4, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	m, err = FromImage(full, 0)
	require.NoError(t, err)
	require.InDelta(t, 1.0, m.Grid().Value(3, 4), 1e-3)
	require.Zero(t, m.Grid().Value(4, 4))
}

func TestTickReshapesOneSlicePerTick(t *testing.T) {
	p := DefaultParams()
	p.Coverage = 0.3
	p.CoverageChangeTo = 0.8
	p.CoverageRate = 0
	p.ReshapeRate = 100
	m := New(p, core.NewParallelExecutor())
	m.Tick(0, mgl32.Vec2{}, 0.8)
	m.SetCoverage(0.8)

	p.Coverage = 0.8
	want := New(p, core.SerialExecutor{})
	want.Tick(0, mgl32.Vec2{}, 0.8)

	before := slices.Clone(m.Grid().Cells())
	m.Tick(0.1, mgl32.Vec2{}, 0.8)
	require.Equal(t, 1, m.slice)
	g := m.Grid()
	for y := 0; y < Size; y += 37 {
		for x := 0; x < Size; x += 11 {
			if reshapeSliceOf(x, y) == 0 {
				require.InDelta(t, want.Grid().Value(x, y), g.Value(x, y), 1e-6, "texel (%d,%d)", x, y)
			} else {
				require.Equal(t, before[y*Size+x], g.Value(x, y), "texel (%d,%d)", x, y)
			}
		}
	}

	for i := 1; i < reshapeSlices; i++ {
		m.Tick(0.1, mgl32.Vec2{}, 0.8)
	}
	require.Zero(t, m.slice)
	for i, v := range m.Grid().Cells() {
		require.InDelta(t, want.Grid().Cells()[i], v, 1e-6, "texel %d", i)
	}
}

func TestReshapeSlicesPartitionBlocks(t *testing.T) {
	counts := make([]int, reshapeSlices)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			counts[reshapeSliceOf(x, y)]++
		}
	}
	for s, c := range counts {
		require.Equal(t, 4, c, "slice %d", s)
	}
	require.Zero(t, reshapeFactor(float32(math.NaN())))
	require.Zero(t, reshapeFactor(-2))
	require.Equal(t, float32(1), reshapeFactor(40))
	require.Equal(t, float32(0.5), reshapeFactor(0.5))
}

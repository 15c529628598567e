package clouds

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"cloudsky/internal/core"
	"cloudsky/internal/density"
	"cloudsky/internal/sky"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lowConfig() Config {
	cfg := DefaultConfig()
	cfg.Quality = QualityLow
	return cfg
}

func newLow(t *testing.T) *Simulation {
	t.Helper()
	s, err := New(lowConfig())
	require.NoError(t, err)
	return s
}

func TestMediumQualityBufferSizes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Quality = QualityMedium
	s, err := New(cfg)
	require.NoError(t, err)

	require.Equal(t, core.Size{W: 128, H: 64}, s.UpdateBuffer().Size())
	h, err := s.SkyImage()
	require.NoError(t, err)
	require.Equal(t, core.Size{W: 512, H: 256}, h.Image.Size())

	d, err := s.DensityMap()
	require.NoError(t, err)
	require.Equal(t, core.Size{W: density.Size, H: density.Size}, d.Map.Size())
}

func TestInitializeWarmsEveryUpdateTexel(t *testing.T) {
	s := newLow(t)
	require.Equal(t, uint64(sky.Slices), s.Ticks())
	require.Equal(t, 0, s.Frame())

	cells := s.UpdateBuffer().Cells()
	for i := sky.Channels - 1; i < len(cells); i += sky.Channels {
		if cells[i] == sky.Unwritten {
			t.Fatalf("update texel %d never written during warm-up", i/sky.Channels)
		}
	}
}

func TestFirstTickAfterReinitializeHasZeroShift(t *testing.T) {
	s := newLow(t)
	s.Tick(0.1, mgl32.Vec3{0, 0, 0})
	require.Equal(t, mgl32.Vec2{}, s.LastShift())

	s.Tick(0.1, mgl32.Vec3{50, 0, 20})
	require.NotEqual(t, mgl32.Vec2{}, s.LastShift())

	require.NoError(t, s.Reinitialize(s.Config()))
	s.Tick(0.1, mgl32.Vec3{900, 3, -400})
	require.Equal(t, mgl32.Vec2{}, s.LastShift(), "viewer motion since the previous run must not leak")

	s.Tick(0.1, mgl32.Vec3{910, 3, -400})
	shift := s.LastShift()
	windStep := s.Config().WindDirection.Mul(s.Config().WindSpeed * 0.1)
	assert.InDelta(t, -10*s.Config().WorldScale+windStep[0], shift[0], 1e-4)
	assert.InDelta(t, windStep[1], shift[1], 1e-4)
}

func TestReleaseClearsShift(t *testing.T) {
	s := newLow(t)
	s.Tick(0.1, mgl32.Vec3{})
	s.Tick(0.1, mgl32.Vec3{30, 0, 0})
	require.NotEqual(t, mgl32.Vec2{}, s.LastShift())

	cfg := s.Config()
	cfg.Backend = "opencl"
	require.Error(t, s.Reinitialize(cfg))
	require.Equal(t, mgl32.Vec2{}, s.LastShift())
	require.Equal(t, []string{"not initialized"}, s.Status())
}

func TestNoiseVolumesImmutableUntilReinitialize(t *testing.T) {
	s := newLow(t)
	shape, detail := s.NoiseVolumes()
	require.NotNil(t, shape)
	require.NotNil(t, detail)
	shapeCells := append([]float32(nil), shape.Cells()...)
	detailCells := append([]float32(nil), detail.Cells()...)

	for i := 0; i < 40; i++ {
		s.Tick(1.0/30, mgl32.Vec3{float32(i) * 5, 0, float32(-i) * 2})
	}
	gotShape, gotDetail := s.NoiseVolumes()
	require.Same(t, shape, gotShape)
	require.Same(t, detail, gotDetail)
	require.Equal(t, shapeCells, gotShape.Cells())
	require.Equal(t, detailCells, gotDetail.Cells())

	require.NoError(t, s.Reinitialize(s.Config()))
	newShape, newDetail := s.NoiseVolumes()
	require.NotSame(t, shape, newShape)
	require.NotSame(t, detail, newDetail)
}

func TestSkyHandleGoesStaleAfterTick(t *testing.T) {
	s := newLow(t)
	before, err := s.SkyImage()
	require.NoError(t, err)
	require.True(t, s.Valid(before))

	s.Tick(1.0/60, mgl32.Vec3{})
	require.False(t, s.Valid(before))

	after, err := s.SkyImage()
	require.NoError(t, err)
	require.True(t, s.Valid(after))
	require.Equal(t, 1-before.Index, after.Index)
	require.NotSame(t, before.Image, after.Image)

	dens, err := s.DensityMap()
	require.NoError(t, err)
	s.Tick(1.0/60, mgl32.Vec3{})
	require.True(t, s.Valid(dens), "density handles survive ticks")
}

func TestReinitializeInvalidatesHandles(t *testing.T) {
	s := newLow(t)
	gen := s.Generation()
	require.NotEqual(t, uuid.Nil, gen)
	skyHandle, _ := s.SkyImage()
	densHandle, _ := s.DensityMap()

	require.NoError(t, s.Reinitialize(s.Config()))
	require.NotEqual(t, gen, s.Generation())
	require.False(t, s.Valid(skyHandle))
	require.False(t, s.Valid(densHandle))
}

func TestMissingCloudMapIsFatal(t *testing.T) {
	cfg := lowConfig()
	cfg.GenerateCloudMap = false
	s, err := New(cfg)
	require.Nil(t, s)
	require.True(t, errors.Is(err, density.ErrMissingDensityMap))

	cfg.CloudMapPath = "does-not-exist.png"
	_, err = New(cfg)
	require.True(t, errors.Is(err, density.ErrMissingDensityMap))
}

func TestFailedReinitializeLeavesNothing(t *testing.T) {
	s := newLow(t)
	handle, _ := s.DensityMap()

	cfg := s.Config()
	cfg.GenerateCloudMap = false
	cfg.CloudMap = nil
	err := s.Reinitialize(cfg)
	require.Error(t, err)
	require.False(t, s.Initialized())
	require.False(t, s.Valid(handle))
	require.Equal(t, uuid.Nil, s.Generation())

	_, err = s.SkyImage()
	require.True(t, errors.Is(err, ErrNotInitialized))
	require.True(t, errors.Is(s.SetQualityAndCoverage(QualityHigh, 0.5), ErrNotInitialized))
	s.Tick(0.1, mgl32.Vec3{})
	require.Zero(t, s.Frame())
}

func TestUnknownBackendIsFatal(t *testing.T) {
	cfg := lowConfig()
	cfg.Backend = "opencl"
	_, err := New(cfg)
	require.True(t, errors.Is(err, sky.ErrUnknownBackend))
}

func TestExternalCloudMap(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 8)})
		}
	}
	cfg := lowConfig()
	cfg.GenerateCloudMap = false
	cfg.CloudMap = img
	s, err := New(cfg)
	require.NoError(t, err)

	d, _ := s.DensityMap()
	before := append([]float32(nil), d.Map.Cells()...)
	s.Tick(0.5, mgl32.Vec3{})
	require.Equal(t, before, d.Map.Cells())
}

func TestWindIntegratesAcrossTicks(t *testing.T) {
	cfg := lowConfig()
	cfg.WindDirection = mgl32.Vec2{0.6, 0.8}
	cfg.WindSpeed = 4
	s, err := New(cfg)
	require.NoError(t, err)
	require.Equal(t, mgl32.Vec2{}, s.Wind().Position, "warm-up must not move the wind")

	var total float32
	for _, dt := range []float32{0.016, 0.033, 0.1, 0.25, 0.016} {
		s.Tick(dt, mgl32.Vec3{})
		total += dt
	}
	pos := s.Wind().Position
	assert.InDelta(t, 0.6*4*total, pos[0], 1e-4)
	assert.InDelta(t, 0.8*4*total, pos[1], 1e-4)
}

func TestSetQualityAndCoverageRebuilds(t *testing.T) {
	s := newLow(t)
	gen := s.Generation()
	require.NoError(t, s.SetQualityAndCoverage(QualityMedium, 0.7))

	require.NotEqual(t, gen, s.Generation())
	require.Equal(t, QualityMedium, s.Config().Quality)
	require.InDelta(t, 0.7, s.Coverage().Current, 1e-6)
	require.Equal(t, core.Size{W: 128, H: 64}, s.UpdateBuffer().Size())
	require.Equal(t, uint64(sky.Slices), s.Ticks())
}

func TestSetCoverageBypassesBlend(t *testing.T) {
	s := newLow(t)
	s.SetCoverage(0.9)
	require.Equal(t, float32(0.9), s.Coverage().Current)
	s.SetCoverage(-3)
	require.Equal(t, float32(0), s.Coverage().Current)
}

func TestDegradedInputsAreCorrectedAndLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	cfg := DefaultConfig()
	cfg.Quality = 100
	cfg.Coverage = 1.5
	cfg.CumulusProbability = 0
	cfg.StratusProbability = 0
	cfg.StratocumulusProbability = 0
	cfg.WindSpeed = 30
	s, err := New(cfg, WithLogger(logger))
	require.NoError(t, err)

	require.Equal(t, QualityMedium, s.Config().Quality)
	require.Equal(t, float32(1), s.Config().Coverage)

	var corrections, warnings int
	for _, e := range hook.AllEntries() {
		switch e.Level {
		case logrus.DebugLevel:
			if e.Message == "config corrected" {
				corrections++
			}
		case logrus.WarnLevel:
			warnings++
		}
	}
	require.Equal(t, 3, corrections)
	require.Equal(t, 1, warnings)
	require.Equal(t, "cloud sky initialized", hook.LastEntry().Message)
	require.Equal(t, s.Generation(), hook.LastEntry().Data["generation"])
}

func TestParameters(t *testing.T) {
	s := newLow(t)
	snap := s.Parameters()
	p, ok := snap.Lookup("quality")
	require.True(t, ok)
	require.Equal(t, "64", p.Value)
	p, ok = snap.Lookup("backend")
	require.True(t, ok)
	require.Equal(t, core.ExecutorParallel, p.Value)

	require.True(t, s.SetFloatParameter("wind_speed", 7))
	require.Equal(t, float32(7), s.Wind().Speed)
	require.True(t, s.SetFloatParameter("coverage_change_to", 0.25))
	require.Equal(t, float32(0.25), s.Config().CoverageChangeTo)
	require.False(t, s.SetFloatParameter("hdr_exposure", 0))
	require.False(t, s.SetFloatParameter("wind_speed", math.NaN()))
	require.False(t, s.SetFloatParameter("density", math.Inf(1)))
	require.Equal(t, float32(7), s.Wind().Speed)
	require.Equal(t, float32(7), s.Config().WindSpeed)
	require.False(t, s.SetFloatParameter("nope", 1))

	require.True(t, s.SetIntParameter("quality", 130))
	require.Equal(t, QualityMedium, s.Config().Quality)
	require.False(t, s.SetIntParameter("nope", 1))

	keys := map[string]bool{}
	for _, c := range s.ParameterControls() {
		keys[c.Key] = true
	}
	require.True(t, keys["coverage"])
	require.True(t, keys["quality"])
}

func TestSerialBackendMatchesParallel(t *testing.T) {
	run := func(backend string) []float32 {
		cfg := lowConfig()
		cfg.Backend = backend
		s, err := New(cfg)
		require.NoError(t, err)
		for i := 0; i < 6; i++ {
			s.Tick(0.05, mgl32.Vec3{float32(i) * 3, 0, float32(i)})
		}
		h, err := s.SkyImage()
		require.NoError(t, err)
		return h.Image.Cells()
	}
	require.Equal(t, run(core.ExecutorSerial), run(core.ExecutorParallel))
}

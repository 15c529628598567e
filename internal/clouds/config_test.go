package clouds

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestQuality(t *testing.T) {
	cases := map[int]Quality{
		0:    QualityLow,
		64:   QualityLow,
		96:   QualityLow,
		100:  QualityMedium,
		200:  QualityHigh,
		384:  QualityHigh,
		385:  QualityUltra,
		4096: QualityUltra,
	}
	for in, want := range cases {
		assert.Equal(t, want, NearestQuality(in), "input %d", in)
	}
}

func TestParseQuality(t *testing.T) {
	q, err := ParseQuality("Ultra")
	require.NoError(t, err)
	require.Equal(t, QualityUltra, q)

	q, err = ParseQuality("250")
	require.NoError(t, err)
	require.Equal(t, QualityHigh, q)

	_, err = ParseQuality("potato")
	require.Error(t, err)

	require.Equal(t, QualityLow, QualityUltra.Next())
	require.Equal(t, QualityHigh, QualityMedium.Next())

	require.Equal(t, QualityHigh, QualityMedium.Toward(192))
	require.Equal(t, QualityLow, QualityMedium.Toward(100))
	require.Equal(t, QualityUltra, QualityUltra.Toward(600))
	require.Equal(t, QualityMedium, QualityMedium.Toward(128))
}

func TestFromMap(t *testing.T) {
	c := FromMap(map[string]string{
		"quality":            "low",
		"coverage":           "0.65",
		"coverage_change_to": "0.2",
		"wind_x":             "0",
		"wind_y":             "-1",
		"wind_speed":         "12.5",
		"sun_tint":           "1, 0.5, 0.25",
		"generate_cloud_map": "false",
		"cloud_map":          "maps/front.png",
		"seed":               "77",
		"backend":            "serial",
		"density":            "not-a-number",
		"ground_color":       "1,2",
	})
	d := DefaultConfig()
	require.Equal(t, QualityLow, c.Quality)
	require.Equal(t, float32(0.65), c.Coverage)
	require.Equal(t, float32(0.2), c.CoverageChangeTo)
	require.Equal(t, mgl32.Vec2{0, -1}, c.WindDirection)
	require.Equal(t, float32(12.5), c.WindSpeed)
	require.Equal(t, mgl32.Vec3{1, 0.5, 0.25}, c.SunTint)
	require.False(t, c.GenerateCloudMap)
	require.Equal(t, "maps/front.png", c.CloudMapPath)
	require.Equal(t, int64(77), c.Seed)
	require.Equal(t, "serial", c.Backend)
	require.Equal(t, d.Density, c.Density, "bad values keep defaults")
	require.Equal(t, d.GroundColor, c.GroundColor)

	require.Equal(t, d, FromMap(nil))
}

func TestNormalizeLeavesValidConfigAlone(t *testing.T) {
	c, notes := DefaultConfig().Normalize()
	require.Empty(t, notes)
	require.Equal(t, DefaultConfig(), c)
}

func TestNormalizeClampsAndDefaults(t *testing.T) {
	c := DefaultConfig()
	c.Quality = 1000
	c.Coverage = -0.5
	c.CoverageChangeTo = 2
	c.HDRExposure = 0
	c.SunDirection = mgl32.Vec3{}
	c.WindSpeed = -3
	c.Backend = ""
	out, notes := c.Normalize()

	d := DefaultConfig()
	require.Equal(t, QualityUltra, out.Quality)
	require.Zero(t, out.Coverage)
	require.Equal(t, float32(1), out.CoverageChangeTo)
	require.Equal(t, d.HDRExposure, out.HDRExposure)
	require.Equal(t, d.SunDirection, out.SunDirection)
	require.Zero(t, out.WindSpeed)
	require.Equal(t, d.Backend, out.Backend)
	require.Len(t, notes, 6)
}

func TestNormalizeReplacesNonFiniteValues(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	c := DefaultConfig()
	c.Coverage = nan
	c.CoverageRate = nan
	c.ReshapeRate = inf
	c.WindSpeed = nan
	c.WindDirection = mgl32.Vec2{1, nan}
	c.HDRExposure = nan
	c.Density = inf
	c.SunDirection = mgl32.Vec3{nan, 1, 0}
	c.WorldScale = nan
	out, notes := c.Normalize()

	d := DefaultConfig()
	require.Len(t, notes, 9)
	require.Zero(t, out.Coverage)
	require.Equal(t, d.CoverageRate, out.CoverageRate)
	require.Equal(t, d.ReshapeRate, out.ReshapeRate)
	require.Zero(t, out.WindSpeed)
	require.Equal(t, mgl32.Vec2{}, out.WindDirection)
	require.Equal(t, d.HDRExposure, out.HDRExposure)
	require.Equal(t, d.Density, out.Density)
	require.Equal(t, d.SunDirection, out.SunDirection)
	require.Equal(t, d.WorldScale, out.WorldScale)

	c = DefaultConfig()
	c.WindSpeed = inf
	out, notes = c.Normalize()
	require.Len(t, notes, 1)
	require.Equal(t, d.WindSpeed, out.WindSpeed)
}

func TestWarningsFlagFastWind(t *testing.T) {
	c := DefaultConfig()
	require.Empty(t, c.Warnings())
	c.WindSpeed = 25
	require.Len(t, c.Warnings(), 1)
}

func TestVec3RoundTrip(t *testing.T) {
	v := mgl32.Vec3{0.25, 1, -3.5}
	got, err := ParseVec3(FormatVec3(v))
	require.NoError(t, err)
	require.Equal(t, v, got)
}

package clouds

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"cloudsky/internal/core"
	"cloudsky/internal/density"
	"cloudsky/internal/sky"
	"cloudsky/internal/wind"

	"github.com/go-gl/mathgl/mgl32"
)

// Config is accepted by Initialize and Reinitialize.
type Config struct {
	Quality Quality

	Coverage         float32
	CoverageChangeTo float32
	// CoverageRate is the fraction of the coverage gap closed per second.
	CoverageRate float32
	// ReshapeRate is how quickly drifting clouds ease into the target shape.
	ReshapeRate float32

	WindDirection mgl32.Vec2
	WindSpeed     float32

	AtmosphereTint mgl32.Vec3
	GroundColor    mgl32.Vec3
	SunTint        mgl32.Vec3
	SunDirection   mgl32.Vec3
	HDRExposure    float32
	AmbientTop     mgl32.Vec3
	AmbientBottom  mgl32.Vec3
	Density        float32

	GenerateCloudMap         bool
	CumulusProbability       float32
	StratusProbability       float32
	StratocumulusProbability float32
	// CloudMap replaces procedural generation when GenerateCloudMap is false.
	CloudMap image.Image
	// CloudMapPath is decoded into CloudMap at Initialize when CloudMap is nil.
	CloudMapPath string

	Seed    int64
	Backend string
	// WorldScale converts viewer world units into cloud units (density texels).
	WorldScale float32
	// Viewer is the viewer position used while warming up.
	Viewer mgl32.Vec3
}

// DefaultConfig returns the standard sky.
func DefaultConfig() Config {
	l := sky.DefaultLighting()
	return Config{
		Quality:                  QualityMedium,
		Coverage:                 0.4,
		CoverageChangeTo:         1.0,
		CoverageRate:             0.02,
		ReshapeRate:              0.25,
		WindDirection:            mgl32.Vec2{1, 0},
		WindSpeed:                5,
		AtmosphereTint:           mgl32.Vec3{0.38, 0.55, 0.85},
		GroundColor:              mgl32.Vec3{0.37, 0.35, 0.33},
		SunTint:                  l.SunTint,
		SunDirection:             l.SunDirection,
		HDRExposure:              l.HDRExposure,
		AmbientTop:               l.AmbientTop,
		AmbientBottom:            l.AmbientBottom,
		Density:                  l.Density,
		GenerateCloudMap:         true,
		CumulusProbability:       0.3,
		StratusProbability:       0.3,
		StratocumulusProbability: 0.3,
		Seed:                     10,
		Backend:                  core.ExecutorParallel,
		WorldScale:               0.1,
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
// Unparsable values keep their defaults.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["quality"]; ok {
		if q, err := ParseQuality(v); err == nil {
			c.Quality = q
		}
	}
	setFloat(cfg, "coverage", &c.Coverage)
	setFloat(cfg, "coverage_change_to", &c.CoverageChangeTo)
	setFloat(cfg, "coverage_rate", &c.CoverageRate)
	setFloat(cfg, "reshape_rate", &c.ReshapeRate)
	setFloat(cfg, "wind_x", &c.WindDirection[0])
	setFloat(cfg, "wind_y", &c.WindDirection[1])
	setFloat(cfg, "wind_speed", &c.WindSpeed)
	setVec3(cfg, "atmosphere_tint", &c.AtmosphereTint)
	setVec3(cfg, "ground_color", &c.GroundColor)
	setVec3(cfg, "sun_tint", &c.SunTint)
	setVec3(cfg, "sun_direction", &c.SunDirection)
	setFloat(cfg, "hdr_exposure", &c.HDRExposure)
	setVec3(cfg, "ambient_top", &c.AmbientTop)
	setVec3(cfg, "ambient_bottom", &c.AmbientBottom)
	setFloat(cfg, "density", &c.Density)
	if v, ok := cfg["generate_cloud_map"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.GenerateCloudMap = parsed
		}
	}
	setFloat(cfg, "cumulus", &c.CumulusProbability)
	setFloat(cfg, "stratus", &c.StratusProbability)
	setFloat(cfg, "stratocumulus", &c.StratocumulusProbability)
	if v, ok := cfg["cloud_map"]; ok && v != "" {
		c.CloudMapPath = v
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["backend"]; ok && v != "" {
		c.Backend = v
	}
	setFloat(cfg, "world_scale", &c.WorldScale)
	return c
}

func setFloat(cfg map[string]string, key string, dst *float32) {
	v, ok := cfg[key]
	if !ok {
		return
	}
	if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 32); err == nil {
		*dst = float32(parsed)
	}
}

func setVec3(cfg map[string]string, key string, dst *mgl32.Vec3) {
	v, ok := cfg[key]
	if !ok {
		return
	}
	if parsed, err := ParseVec3(v); err == nil {
		*dst = parsed
	}
}

// ParseVec3 parses "r,g,b" (or "x,y,z").
func ParseVec3(s string) (mgl32.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return mgl32.Vec3{}, fmt.Errorf("clouds: want three components, got %q", s)
	}
	var out mgl32.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return mgl32.Vec3{}, fmt.Errorf("clouds: component %d of %q: %w", i, s, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// FormatVec3 is the inverse of ParseVec3.
func FormatVec3(v mgl32.Vec3) string {
	f := func(x float32) string { return strconv.FormatFloat(float64(x), 'f', -1, 32) }
	return f(v[0]) + "," + f(v[1]) + "," + f(v[2])
}

// Normalize corrects degraded inputs and returns a note per correction.
// Unknown backends and missing maps are left for Initialize to reject.
func (c Config) Normalize() (Config, []string) {
	var notes []string
	d := DefaultConfig()
	if !c.Quality.Supported() {
		q := NearestQuality(int(c.Quality))
		notes = append(notes, fmt.Sprintf("quality %d unsupported, using %s", int(c.Quality), q))
		c.Quality = q
	}
	c.Coverage = clampNote(c.Coverage, "coverage", &notes)
	c.CoverageChangeTo = clampNote(c.CoverageChangeTo, "coverage_change_to", &notes)
	if c.CoverageRate < 0 || !finite(c.CoverageRate) {
		notes = append(notes, "invalid coverage rate, using default")
		c.CoverageRate = d.CoverageRate
	}
	if c.ReshapeRate < 0 || !finite(c.ReshapeRate) {
		notes = append(notes, "invalid reshape rate, using default")
		c.ReshapeRate = d.ReshapeRate
	}
	switch {
	case math.IsNaN(float64(c.WindSpeed)):
		notes = append(notes, "wind speed is NaN, using 0")
		c.WindSpeed = 0
	case c.WindSpeed < 0:
		notes = append(notes, "negative wind speed, using 0")
		c.WindSpeed = 0
	case !finite(c.WindSpeed):
		notes = append(notes, "infinite wind speed, using default")
		c.WindSpeed = d.WindSpeed
	}
	if !finite(c.WindDirection[0]) || !finite(c.WindDirection[1]) {
		notes = append(notes, "non-finite wind direction, using still air")
		c.WindDirection = mgl32.Vec2{}
	}
	if c.HDRExposure <= 0 || !finite(c.HDRExposure) {
		notes = append(notes, "non-positive exposure, using default")
		c.HDRExposure = d.HDRExposure
	}
	if c.Density <= 0 || !finite(c.Density) {
		notes = append(notes, "non-positive density, using default")
		c.Density = d.Density
	}
	if l := c.SunDirection.Len(); l <= 0 || !finite(l) {
		notes = append(notes, "zero sun direction, using default")
		c.SunDirection = d.SunDirection
	}
	if c.WorldScale <= 0 || !finite(c.WorldScale) {
		notes = append(notes, "non-positive world scale, using default")
		c.WorldScale = d.WorldScale
	}
	if c.Backend == "" {
		c.Backend = d.Backend
	}
	if c.GenerateCloudMap && positive(c.CumulusProbability)+positive(c.StratusProbability)+positive(c.StratocumulusProbability) == 0 {
		notes = append(notes, "cloud type probabilities sum to zero, using defaults")
	}
	return c, notes
}

// Warnings lists settings that are accepted but likely to look wrong.
func (c Config) Warnings() []string {
	var out []string
	if c.WindSpeed > wind.MaxRecommendedSpeed {
		out = append(out, fmt.Sprintf("wind speed %.1f exceeds %d; clouds will smear", c.WindSpeed, wind.MaxRecommendedSpeed))
	}
	return out
}

// Lighting converts the shading settings for the sky updater.
func (c Config) Lighting() sky.Lighting {
	return sky.Lighting{
		SunDirection:  c.SunDirection.Normalize(),
		SunTint:       c.SunTint,
		AmbientTop:    c.AmbientTop,
		AmbientBottom: c.AmbientBottom,
		HDRExposure:   c.HDRExposure,
		Density:       c.Density,
	}
}

// DensityParams converts the generation settings for the density map.
func (c Config) DensityParams() density.Params {
	p := density.DefaultParams()
	p.Coverage = c.Coverage
	p.CoverageChangeTo = c.CoverageChangeTo
	p.CoverageRate = c.CoverageRate
	p.ReshapeRate = c.ReshapeRate
	p.Weights = density.NormalizeWeights(c.CumulusProbability, c.StratusProbability, c.StratocumulusProbability)
	p.Seed = c.Seed
	return p
}

func clampNote(v float32, name string, notes *[]string) float32 {
	switch {
	case v != v:
		*notes = append(*notes, name+" is NaN, using 0")
		return 0
	case v < 0:
		*notes = append(*notes, fmt.Sprintf("%s %.3f clamped to 0", name, v))
		return 0
	case v > 1:
		*notes = append(*notes, fmt.Sprintf("%s %.3f clamped to 1", name, v))
		return 1
	}
	return v
}

func finite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}

func positive(v float32) float32 {
	if v > 0 {
		return v
	}
	return 0
}

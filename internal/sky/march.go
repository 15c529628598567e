package sky

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Lighting carries the shading inputs for one tick.
type Lighting struct {
	SunDirection  mgl32.Vec3
	SunTint       mgl32.Vec3
	AmbientTop    mgl32.Vec3
	AmbientBottom mgl32.Vec3
	HDRExposure   float32
	// Density scales the extinction coefficient of the cloud medium.
	Density float32
}

// DefaultLighting matches the simulation defaults.
func DefaultLighting() Lighting {
	return Lighting{
		SunDirection:  mgl32.Vec3{0.3, 0.6, 0.2}.Normalize(),
		SunTint:       mgl32.Vec3{1, 0.96, 0.9},
		AmbientTop:    mgl32.Vec3{0.55, 0.62, 0.75},
		AmbientBottom: mgl32.Vec3{0.25, 0.27, 0.32},
		HDRExposure:   1.2,
		Density:       0.2,
	}
}

const (
	phaseG           = 0.3
	minTransmittance = 0.01
	detailErosion    = 0.3
)

// march integrates the slab along dir and returns tonemapped colour with
// opacity in A.
func (u *Updater) march(dir mgl32.Vec3, in *frameInputs) mgl32.Vec4 {
	l := u.layer
	sinEl := dir[1]
	t0 := l.Base / sinEl
	t1 := (l.Base + l.Thickness) / sinEl
	if maxLen := l.Thickness * 4; t1-t0 > maxLen {
		t1 = t0 + maxLen
	}
	steps := l.Steps
	dt := (t1 - t0) / float32(steps)

	light := in.lighting
	phase := henyeyGreenstein(dir.Dot(in.sun), phaseG)
	sunHeight := in.sun[1]
	if sunHeight < 0.1 {
		sunHeight = 0.1
	}

	trans := float32(1)
	var col mgl32.Vec3
	for i := 0; i < steps; i++ {
		t := t0 + (float32(i)+0.5)*dt
		wx := in.viewer[0] + dir[0]*t
		wz := in.viewer[1] + dir[2]*t
		hf := clamp01((dir[1]*t - l.Base) / l.Thickness)
		d := u.sample(wx, wz, hf, in)
		if d <= 0 {
			continue
		}
		sigma := d * light.Density
		// Single-scatter estimate of the sunlight left after the slab above.
		sunT := expf(-sigma * (1 - hf) * l.Thickness / sunHeight)
		ambient := lerp3(light.AmbientBottom, light.AmbientTop, hf)
		src := light.SunTint.Mul(sunT * phase).Add(ambient)
		stepT := expf(-sigma * dt)
		col = col.Add(src.Mul(trans * (1 - stepT)))
		trans *= stepT
		if trans < minTransmittance {
			break
		}
	}

	e := light.HDRExposure
	return mgl32.Vec4{
		1 - expf(-col[0]*e),
		1 - expf(-col[1]*e),
		1 - expf(-col[2]*e),
		1 - trans,
	}
}

// sample returns the cloud density at world (wx, wz) and normalized slab
// height hf.
func (u *Updater) sample(wx, wz, hf float32, in *frameInputs) float32 {
	cov := in.density.Bilinear(wx, wz)
	if cov <= 0 {
		return 0
	}
	l := u.layer
	vy := hf * l.Thickness
	n := u.shape.Sample(mgl32.Vec3{
		(wx - in.shapeWind[0]) / l.ShapePeriod,
		vy / l.ShapePeriod,
		(wz - in.shapeWind[1]) / l.ShapePeriod,
	})
	fbm := n[1]*0.625 + n[2]*0.25 + n[3]*0.125
	base := remap(n[0], fbm-1, 1) * heightGradient(hf)
	base = applyCoverage(base, cov)
	if base <= 0 {
		return 0
	}
	dn := u.detail.Sample(mgl32.Vec3{
		(wx - in.detailWind[0]) / l.DetailPeriod,
		vy / l.DetailPeriod,
		(wz - in.detailWind[1]) / l.DetailPeriod,
	})
	return remap(base, dn[3]*detailErosion, 1)
}

// applyCoverage erodes base below the 1-cov threshold and stretches the rest
// back onto [0, 1], so cloud cores stay opaque at any coverage.
func applyCoverage(base, cov float32) float32 {
	return remap(base, 1-cov, 1)
}

// heightGradient rounds the slab off at its bottom and top.
func heightGradient(hf float32) float32 {
	return 4 * hf * (1 - hf)
}

// remap maps v from [lo, hi] onto [0, 1], clamped.
func remap(v, lo, hi float32) float32 {
	if hi <= lo {
		return 0
	}
	return clamp01((v - lo) / (hi - lo))
}

// henyeyGreenstein is scaled by 4π so an isotropic medium yields 1.
func henyeyGreenstein(cosTheta, g float32) float32 {
	denom := 1 + g*g - 2*g*cosTheta
	return (1 - g*g) / float32(math.Pow(float64(denom), 1.5))
}

func lerp3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func expf(v float32) float32 { return float32(math.Exp(float64(v))) }

func clamp01(v float32) float32 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

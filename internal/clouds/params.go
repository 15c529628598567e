package clouds

import (
	"fmt"
	"math"

	"cloudsky/internal/core"
	"cloudsky/internal/sky"
)

// Name identifies the simulation in tool output.
func (s *Simulation) Name() string { return "clouds" }

// Status summarizes the live state in a few short lines.
func (s *Simulation) Status() []string {
	if !s.Initialized() {
		return []string{"not initialized"}
	}
	cov := s.Coverage()
	w := s.Wind()
	shift := s.LastShift()
	return []string{
		fmt.Sprintf("quality %s  frame %d/%d", s.cfg.Quality, s.Frame(), sky.Slices),
		fmt.Sprintf("coverage %.2f -> %.2f", cov.Current, s.cfg.CoverageChangeTo),
		fmt.Sprintf("wind (%.1f, %.1f)", w.Position[0], w.Position[1]),
		fmt.Sprintf("shift (%.2f, %.2f)", shift[0], shift[1]),
	}
}

// Parameters reports the tunables of the live configuration.
func (s *Simulation) Parameters() core.ParameterSnapshot {
	c := s.cfg
	cov := s.Coverage()
	groups := []core.ParameterGroup{
		{
			Name: "Sky",
			Params: []core.Parameter{
				core.IntParam("quality", "Quality", int(c.Quality)),
				core.FloatParam("coverage", "Coverage", float64(cov.Current)),
				core.FloatParam("coverage_change_to", "Coverage target", float64(c.CoverageChangeTo)),
				core.FloatParam("density", "Density", float64(c.Density)),
				core.FloatParam("hdr_exposure", "HDR exposure", float64(c.HDRExposure)),
			},
		},
		{
			Name: "Wind",
			Params: []core.Parameter{
				core.FloatParam("wind_x", "Wind direction x", float64(c.WindDirection[0])),
				core.FloatParam("wind_y", "Wind direction y", float64(c.WindDirection[1])),
				core.FloatParam("wind_speed", "Wind speed", float64(c.WindSpeed)),
			},
		},
		{
			Name: "Cloud Types",
			Params: []core.Parameter{
				core.BoolParam("generate_cloud_map", "Generate cloud map", c.GenerateCloudMap),
				core.FloatParam("cumulus", "Cumulus", float64(c.CumulusProbability)),
				core.FloatParam("stratus", "Stratus", float64(c.StratusProbability)),
				core.FloatParam("stratocumulus", "Stratocumulus", float64(c.StratocumulusProbability)),
			},
		},
		{
			Name: "Run",
			Params: []core.Parameter{
				core.Int64Param("seed", "Seed", c.Seed),
				core.TextParam("backend", "Backend", c.Backend),
				core.TextParam("generation", "Generation", s.generation.String()),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

// ParameterControls lists the HUD-adjustable parameters.
func (s *Simulation) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: "quality", Label: "Quality", Type: core.ParamTypeInt, Step: 64, Min: float64(QualityLow), Max: float64(QualityUltra), HasMin: true, HasMax: true},
		{Key: "coverage", Label: "Coverage", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, Max: 1, HasMin: true, HasMax: true},
		{Key: "coverage_change_to", Label: "Coverage target", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, Max: 1, HasMin: true, HasMax: true},
		{Key: "wind_speed", Label: "Wind speed", Type: core.ParamTypeFloat, Step: 1, Min: 0, Max: 40, HasMin: true, HasMax: true},
		{Key: "hdr_exposure", Label: "HDR exposure", Type: core.ParamTypeFloat, Step: 0.1, Min: 0.1, Max: 8, HasMin: true, HasMax: true},
		{Key: "density", Label: "Density", Type: core.ParamTypeFloat, Step: 0.02, Min: 0.02, Max: 2, HasMin: true, HasMax: true},
		{Key: "seed", Label: "Seed", Type: core.ParamTypeInt, Step: 1},
	}
}

// SetFloatParameter applies a runtime change. Settings that only affect
// shading or drift take effect on the next tick.
func (s *Simulation) SetFloatParameter(key string, value float64) bool {
	if !s.Initialized() || math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	v := float32(value)
	switch key {
	case "coverage":
		s.SetCoverage(v)
	case "coverage_change_to":
		s.SetCoverageTarget(v)
	case "wind_speed":
		if v < 0 {
			v = 0
		}
		s.cfg.WindSpeed = v
		s.wind.Speed = v
		for _, w := range s.cfg.Warnings() {
			s.log.Warn(w)
		}
	case "wind_x":
		s.cfg.WindDirection[0] = v
		s.wind.Direction = s.cfg.WindDirection
	case "wind_y":
		s.cfg.WindDirection[1] = v
		s.wind.Direction = s.cfg.WindDirection
	case "hdr_exposure":
		if v <= 0 {
			return false
		}
		s.cfg.HDRExposure = v
		s.lighting.HDRExposure = v
	case "density":
		if v <= 0 {
			return false
		}
		s.cfg.Density = v
		s.lighting.Density = v
	default:
		return false
	}
	return true
}

// SetIntParameter applies quality or seed changes, both of which rebuild the
// sky.
func (s *Simulation) SetIntParameter(key string, value int) bool {
	if !s.Initialized() {
		return false
	}
	switch key {
	case "quality":
		q := NearestQuality(value)
		if q == s.cfg.Quality {
			q = q.Toward(value)
		}
		if q == s.cfg.Quality {
			return true
		}
		return s.SetQualityAndCoverage(q, s.Coverage().Current) == nil
	case "seed":
		cfg := s.cfg
		cfg.Seed = int64(value)
		cfg.Viewer = s.viewer
		return s.Reinitialize(cfg) == nil
	}
	return false
}

package clouds

import (
	"cloudsky/internal/core"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Handle is implemented by every buffer reference handed to collaborators.
type Handle interface {
	GenerationID() uuid.UUID
}

// SkyHandle references the current sky image. It stays valid until the
// next Tick flips the buffers or the simulation is reinitialized.
type SkyHandle struct {
	Generation uuid.UUID
	Index      int
	Image      *core.Grid
}

// GenerationID implements Handle.
func (h SkyHandle) GenerationID() uuid.UUID { return h.Generation }

// DensityHandle references the density map consumed by shadow projection.
// It stays valid until the simulation is reinitialized.
type DensityHandle struct {
	Generation uuid.UUID
	Map        *core.Grid
}

// GenerationID implements Handle.
func (h DensityHandle) GenerationID() uuid.UUID { return h.Generation }

// Skybox carries the colours the skybox renderer blends the clouds over.
type Skybox struct {
	AtmosphereTint mgl32.Vec3
	GroundColor    mgl32.Vec3
	SunTint        mgl32.Vec3
	SunDirection   mgl32.Vec3
	HDRExposure    float32
}

// SkyImage returns a handle to the current sky buffer.
func (s *Simulation) SkyImage() (SkyHandle, error) {
	if !s.Initialized() {
		return SkyHandle{}, ErrNotInitialized
	}
	return SkyHandle{
		Generation: s.generation,
		Index:      s.sky.CurrentIndex(),
		Image:      s.sky.Current(),
	}, nil
}

// DensityMap returns a handle to the density field.
func (s *Simulation) DensityMap() (DensityHandle, error) {
	if !s.Initialized() {
		return DensityHandle{}, ErrNotInitialized
	}
	return DensityHandle{Generation: s.generation, Map: s.density.Grid()}, nil
}

// Skybox returns the skybox parameters of the live configuration.
func (s *Simulation) Skybox() Skybox {
	c := s.cfg
	return Skybox{
		AtmosphereTint: c.AtmosphereTint,
		GroundColor:    c.GroundColor,
		SunTint:        c.SunTint,
		SunDirection:   c.SunDirection.Normalize(),
		HDRExposure:    c.HDRExposure,
	}
}

// Valid reports whether h still references live, readable data.
func (s *Simulation) Valid(h Handle) bool {
	if !s.Initialized() || h == nil || h.GenerationID() != s.generation {
		return false
	}
	if sh, ok := h.(SkyHandle); ok {
		return sh.Index == s.sky.CurrentIndex() && sh.Image == s.sky.Current()
	}
	return true
}

// NoiseVolumes exposes the shape and detail volumes of the live generation.
func (s *Simulation) NoiseVolumes() (shape, detail *core.Volume) {
	return s.shape, s.detail
}

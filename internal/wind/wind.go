// Package wind integrates cloud drift and the viewer-motion compensation
// applied to the sky image.
package wind

import "github.com/go-gl/mathgl/mgl32"

// MaxRecommendedSpeed is the speed above which drift starts to outrun the
// 16-tick refresh cycle and visibly smears.
const MaxRecommendedSpeed = 20

// Transport accumulates the wind phase offset fed to density advection and
// sky sampling.
type Transport struct {
	Position  mgl32.Vec2
	Direction mgl32.Vec2
	Speed     float32
}

// NewTransport returns a transport at the origin.
func NewTransport(direction mgl32.Vec2, speed float32) *Transport {
	return &Transport{Direction: direction, Speed: speed}
}

// Step returns the displacement produced over dt without applying it.
func (t *Transport) Step(dt float32) mgl32.Vec2 {
	return t.Direction.Mul(t.Speed * dt)
}

// Integrate advances Position by Direction*Speed*dt and returns the delta.
func (t *Transport) Integrate(dt float32) mgl32.Vec2 {
	delta := t.Step(dt)
	t.Position = t.Position.Add(delta)
	return delta
}

// Compensator turns viewer motion into the shift that keeps sky content
// anchored to world space. The zero value tracks from the origin.
type Compensator struct {
	previous mgl32.Vec3
	last     mgl32.Vec2
}

// Reset forgets any earlier motion and anchors on viewer.
func (c *Compensator) Reset(viewer mgl32.Vec3) {
	c.previous = viewer
	c.last = mgl32.Vec2{}
}

// Shift returns -cameraDelta.xz + windStep, or exactly zero when first is
// set. The viewer position is recorded either way.
func (c *Compensator) Shift(viewer mgl32.Vec3, windStep mgl32.Vec2, first bool) mgl32.Vec2 {
	delta := viewer.Sub(c.previous)
	c.previous = viewer
	if first {
		c.last = mgl32.Vec2{}
		return c.last
	}
	c.last = mgl32.Vec2{-delta[0] + windStep[0], -delta[2] + windStep[1]}
	return c.last
}

// Last reports the shift returned by the most recent Shift call.
func (c *Compensator) Last() mgl32.Vec2 { return c.last }

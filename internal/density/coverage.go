package density

// Coverage tracks the current cloud coverage and the value it is drifting
// toward.
type Coverage struct {
	Current float32
	Target  float32
}

// Blend moves Current toward Target by the fraction rate*dt of the remaining
// distance. The fraction is capped at 1 so Current lands exactly on Target
// instead of overshooting.
func (c *Coverage) Blend(dt, rate float32) {
	k := rate * dt
	if k <= 0 {
		return
	}
	if k >= 1 {
		c.Current = c.Target
		return
	}
	next := c.Current + (c.Target-c.Current)*k
	// Rounding must not carry Current past Target.
	if (c.Current <= c.Target && next > c.Target) || (c.Current >= c.Target && next < c.Target) {
		next = c.Target
	}
	c.Current = next
}

// Distance returns |Target - Current|.
func (c Coverage) Distance() float32 {
	d := c.Target - c.Current
	if d < 0 {
		return -d
	}
	return d
}

func clamp01(v float32) float32 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

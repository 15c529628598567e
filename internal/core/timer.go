package core

import "time"

// FixedStep tracks the nominal tick rate and measures the time between
// consecutive ticks.
type FixedStep struct {
	step     time.Duration
	lastTick time.Time
	now      func() time.Time
}

// NewFixedStep constructs a FixedStep controller targeting the given TPS.
func NewFixedStep(tps int) *FixedStep {
	fs := &FixedStep{now: time.Now}
	fs.SetTPS(tps)
	return fs
}

// SetTPS changes the tick rate. Non-positive values fall back to 60.
func (f *FixedStep) SetTPS(tps int) {
	if tps <= 0 {
		tps = 60
	}
	f.step = time.Second / time.Duration(tps)
}

// Elapsed returns the seconds since the previously accepted tick and marks
// now as the new reference. The first call reports the nominal step.
func (f *FixedStep) Elapsed() float32 {
	now := f.now()
	if f.lastTick.IsZero() {
		f.lastTick = now
		return float32(f.step.Seconds())
	}
	dt := now.Sub(f.lastTick)
	f.lastTick = now
	return float32(dt.Seconds())
}
